package gnews

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
	return New(fetch.New(srv.Client(), ""), Config{APIKey: "secret", BaseURL: srv.URL, MaxRecords: 3})
}

func TestClient_Search(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("apikey") != "secret" || q.Get("max") != "3" || q.Get("lang") != "en" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"totalArticles":4,"articles":[
			{"title":"Acme fined by regulator","description":"Acme &amp; partners fined","url":"https://www.ft.com/a",
			 "publishedAt":"2024-05-01T08:00:00Z","source":{"name":"Financial Times","url":"https://www.ft.com"}},
			{"title":"Acme two","url":"","source":{"name":"Blog","url":"https://acme.blogspot.com"}},
			{"title":"Acme three"},
			{"title":"Acme four"}
		]}`))
	})

	recs, err := c.Search(context.Background(), `"Acme"`)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3 (capped)", len(recs))
	}
	if recs[0].Summary != "Acme & partners fined" || recs[0].PublishedDate != "2024-05-01" {
		t.Errorf("first = %+v", recs[0])
	}
	if recs[1].URL != "https://acme.blogspot.com" || recs[1].SourceCredibility != "LOW" {
		t.Errorf("second url/tier = %q/%q", recs[1].URL, recs[1].SourceCredibility)
	}
	if recs[2].URL != "" || recs[2].SourceName != "" {
		t.Errorf("absent fields must be empty, got %+v", recs[2])
	}
}

func TestClient_ErrorList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":["You have reached your request limit for today."]}`))
	})

	_, err := c.Search(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "request limit") {
		t.Fatalf("expected provider message, got %v", err)
	}
	if strings.Contains(err.Error(), "secret") {
		t.Errorf("api key leaked into error: %v", err)
	}
}

func TestClient_ErrorMap(t *testing.T) {
	if got := errorMessage([]byte(`{"errors":{"q":"The query is required."}}`)); got != "q: The query is required." {
		t.Errorf("got %q", got)
	}
	if got := errorMessage([]byte(`nope`)); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestClient_Malformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"articles":`))
	})

	_, err := c.Search(context.Background(), "x")
	if !errors.Is(err, fetch.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestClient_TransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := New(fetch.New(nil, ""), Config{APIKey: "secret", BaseURL: srv.URL})
	_, err := c.Search(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "secret") {
		t.Errorf("api key leaked into error: %v", err)
	}
}
