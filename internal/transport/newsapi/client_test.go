package newsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kailas-cloud/screener/internal/transport/fetch"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(fetch.New(srv.Client(), ""), Config{APIKey: "key", BaseURL: srv.URL, MaxRecords: 5})
}

func TestClient_Search(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "key" {
			t.Errorf("api key header = %q", r.Header.Get("X-Api-Key"))
		}
		if got := r.URL.Query().Get("q"); got != `"Jane Doe" fraud` {
			t.Errorf("q = %q", got)
		}
		if got := r.URL.Query().Get("pageSize"); got != "5" {
			t.Errorf("pageSize = %q", got)
		}
		_, _ = w.Write([]byte(`{"status":"ok","totalResults":2,"articles":[
			{"source":{"id":"bbc-news","name":"BBC News"},"title":"Jane Doe arrested",
			 "description":"<p>Police said</p>","url":"https://www.bbc.co.uk/news/1","publishedAt":"2024-01-02T10:00:00Z"},
			{"source":{"name":null},"title":"[Removed]","url":"https://removed.com"},
			{"source":{},"title":"Jane Doe profile","url":"https://jane.substack.com/p/1"}
		]}`))
	})

	recs, err := c.Search(context.Background(), `"Jane Doe" fraud`)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Headline != "Jane Doe arrested" || recs[0].SourceName != "BBC News" {
		t.Errorf("first = %+v", recs[0])
	}
	if recs[0].Summary != "Police said" || recs[0].PublishedDate != "2024-01-02" {
		t.Errorf("summary/date = %q/%q", recs[0].Summary, recs[0].PublishedDate)
	}
	if recs[0].SourceCredibility != "HIGH" {
		t.Errorf("bbc credibility = %q", recs[0].SourceCredibility)
	}
	if recs[1].SourceName != "" || recs[1].SourceCredibility != "LOW" {
		t.Errorf("absent source should be empty with LOW tier from host, got %q/%q",
			recs[1].SourceName, recs[1].SourceCredibility)
	}
	if recs[1].OriginSource != "newsapi" {
		t.Errorf("origin = %q", recs[1].OriginSource)
	}
}

func TestClient_ErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid."}`))
	})

	_, err := c.Search(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "apiKeyInvalid") {
		t.Fatalf("expected provider code in error, got %v", err)
	}
}

func TestClient_Malformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>captcha</html>`))
	})

	_, err := c.Search(context.Background(), "x")
	if !errors.Is(err, fetch.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestClient_Configured(t *testing.T) {
	if New(fetch.New(nil, ""), Config{}).Configured() {
		t.Error("empty key must be unconfigured")
	}
	if !New(fetch.New(nil, ""), Config{APIKey: "k"}).Configured() {
		t.Error("key set must be configured")
	}
}
