// Package newsapi searches the NewsAPI.org "everything" endpoint.
package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/kailas-cloud/screener/internal/domain/screening/record"
	"github.com/kailas-cloud/screener/internal/transport/fetch"
)

// DefaultBaseURL is the public NewsAPI endpoint.
const DefaultBaseURL = "https://newsapi.org/v2/everything"

// Config holds NewsAPI settings. An empty APIKey leaves the source unconfigured.
type Config struct {
	APIKey     string
	BaseURL    string
	Language   string
	MaxRecords int
}

// Client is a NewsAPI search source.
type Client struct {
	client *fetch.Client
	cfg    Config
}

// New creates a NewsAPI client.
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
func (c *Client) Name() string { return "newsapi" }

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.cfg.APIKey != "" }

type response struct {
	Status   string    `json:"status"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Articles []article `json:"articles"`
}

type article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

// Search runs one term against the everything endpoint.
func (c *Client) Search(ctx context.Context, term string) ([]record.Record, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	params := u.Query()
	params.Set("q", term)
	params.Set("language", c.cfg.Language)
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", strconv.Itoa(c.cfg.MaxRecords))
	u.RawQuery = params.Encode()

	body, err := c.client.Get(ctx, u.String(), map[string]string{"X-Api-Key": c.cfg.APIKey})
	if err != nil {
		return nil, c.describe(err)
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode newsapi response: %v: %w", err, fetch.ErrMalformed)
	}
	if resp.Status != "" && resp.Status != "ok" {
		return nil, fmt.Errorf("newsapi %s: %s", resp.Code, resp.Message)
	}

	out := make([]record.Record, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if len(out) == c.cfg.MaxRecords {
			break
		}
		// NewsAPI tombstones deleted articles with this title.
		if a.Title == "[Removed]" {
			continue
		}
		out = append(out, record.New(
			fetch.Clean(a.Title),
			a.Source.Name,
			fetch.Date(a.PublishedAt),
			fetch.Clean(a.Description),
			a.URL,
			c.Name(),
		))
	}
	return out, nil
}

// describe surfaces the provider message from an error body when present.
func (c *Client) describe(err error) error {
	var se *fetch.StatusError
	if errors.As(err, &se) {
		var resp response
		if json.Unmarshal([]byte(se.Body), &resp) == nil && resp.Message != "" {
			return fmt.Errorf("newsapi %d %s: %s: %w", se.Code, resp.Code, resp.Message, err)
		}
	}
	return fmt.Errorf("newsapi request: %w", err)
}
