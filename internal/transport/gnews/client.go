// Package gnews searches the GNews.io v4 API.
package gnews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kailas-cloud/screener/internal/domain/screening/record"
	"github.com/kailas-cloud/screener/internal/transport/fetch"
)

// DefaultBaseURL is the public GNews search endpoint.
const DefaultBaseURL = "https://gnews.io/api/v4/search"

// Config holds GNews settings. An empty APIKey leaves the source unconfigured.
type Config struct {
	APIKey     string
	BaseURL    string
	Language   string
	MaxRecords int
}

// Client is a GNews search source.
type Client struct {
	client *fetch.Client
	cfg    Config
}

// New creates a GNews client.
func New(client *fetch.Client, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.MaxRecords <= 0 {
		cfg.MaxRecords = 10
	}
	return &Client{client: client, cfg: cfg}
}

// Name is the provenance tag for records from this source.
func (c *Client) Name() string { return "gnews" }

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.cfg.APIKey != "" }

type response struct {
	TotalArticles int       `json:"totalArticles"`
	Articles      []article `json:"articles"`
}

type article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"source"`
}

// errorBody covers both shapes GNews uses: a list of messages or a keyed map.
type errorBody struct {
	Errors json.RawMessage `json:"errors"`
}

// Search runs one term against the search endpoint.
func (c *Client) Search(ctx context.Context, term string) ([]record.Record, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	params := u.Query()
	params.Set("q", term)
	params.Set("lang", c.cfg.Language)
	params.Set("max", strconv.Itoa(c.cfg.MaxRecords))
	params.Set("apikey", c.cfg.APIKey)
	u.RawQuery = params.Encode()

	body, err := c.client.Get(ctx, u.String(), nil)
	if err != nil {
		return nil, describe(err)
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode gnews response: %v: %w", err, fetch.ErrMalformed)
	}

	out := make([]record.Record, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if len(out) == c.cfg.MaxRecords {
			break
		}
		link := a.URL
		if link == "" {
			link = a.Source.URL
		}
		out = append(out, record.New(
			fetch.Clean(a.Title),
			a.Source.Name,
			fetch.Date(a.PublishedAt),
			fetch.Clean(a.Description),
			link,
			c.Name(),
		))
	}
	return out, nil
}

// describe keeps the API key out of the message and surfaces provider errors.
func describe(err error) error {
	var se *fetch.StatusError
	if errors.As(err, &se) {
		if msg := errorMessage([]byte(se.Body)); msg != "" {
			return fmt.Errorf("gnews %d: %s", se.Code, msg)
		}
		return fmt.Errorf("gnews %d", se.Code)
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("gnews request: %w", ue.Err)
	}
	return fmt.Errorf("gnews request: %w", err)
}

func errorMessage(body []byte) string {
	var eb errorBody
	if json.Unmarshal(body, &eb) != nil || len(eb.Errors) == 0 {
		return ""
	}
	var list []string
	if json.Unmarshal(eb.Errors, &list) == nil {
		return strings.Join(list, "; ")
	}
	var keyed map[string]string
	if json.Unmarshal(eb.Errors, &keyed) == nil {
		msgs := make([]string, 0, len(keyed))
		for k, v := range keyed {
			msgs = append(msgs, k+": "+v)
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
