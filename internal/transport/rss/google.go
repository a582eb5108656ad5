package rss

import (
	"context"
	"fmt"
	"net/url"

	"github.com/kailas-cloud/screener/internal/domain/screening/record"
	"github.com/kailas-cloud/screener/internal/transport/fetch"
)

// DefaultBaseURL is the Google News RSS search endpoint.
const DefaultBaseURL = "https://news.google.com/rss/search"

// Config holds feed settings.
type Config struct {
	BaseURL    string
	Locale     string // hl, e.g. "en-US"
	Country    string // gl, e.g. "US"
	MaxRecords int    // per term
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Locale == "" {
		c.Locale = "en-US"
	}
	if c.Country == "" {
		c.Country = "US"
	}
	if c.MaxRecords <= 0 {
		c.MaxRecords = 10
	}
	return c
}

// GoogleNews searches Google News RSS.
type GoogleNews struct {
	client *fetch.Client
	cfg    Config
}

// NewGoogleNews creates the baseline news search source.
func NewGoogleNews(client *fetch.Client, cfg Config) *GoogleNews {
	return &GoogleNews{client: client, cfg: cfg.withDefaults()}
}

// Name is the provenance tag for records from this source.
func (g *GoogleNews) Name() string { return "google_news" }

// Search runs one term against the feed.
func (g *GoogleNews) Search(ctx context.Context, term string) ([]record.Record, error) {
	items, err := search(ctx, g.client, g.cfg, term)
	if err != nil {
		return nil, err
	}

	out := make([]record.Record, 0, len(items))
	for _, it := range items {
		if len(out) == g.cfg.MaxRecords {
			break
		}
		name, headline := it.publisher()
		out = append(out, record.New(
			headline,
			name,
			fetch.Date(it.PubDate),
			fetch.Clean(it.Description),
			it.publisherURL(),
			g.Name(),
		))
	}
	return out, nil
}

func search(ctx context.Context, client *fetch.Client, cfg Config, q string) ([]item, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	params := u.Query()
	params.Set("q", q)
	params.Set("hl", cfg.Locale)
	params.Set("gl", cfg.Country)
	params.Set("ceid", cfg.Country+":"+languageOf(cfg.Locale))
	u.RawQuery = params.Encode()

	body, err := client.Get(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	return parse(body)
}

func languageOf(locale string) string {
	for i, r := range locale {
		if r == '-' || r == '_' {
			return locale[:i]
		}
	}
	return locale
}
