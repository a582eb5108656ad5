// Package rss searches Google News RSS, optionally restricted to government domains.
package rss

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/kailas-cloud/screener/internal/transport/fetch"
)

// document is the subset of RSS 2.0 read from a search feed. Every tag is optional.
type document struct {
	Channel struct {
		Items []item `xml:"item"`
	} `xml:"channel"`
}

type item struct {
	Title       string     `xml:"title"`
	Link        string     `xml:"link"`
	PubDate     string     `xml:"pubDate"`
	Description string     `xml:"description"`
	Source      itemSource `xml:"source"`
}

type itemSource struct {
	URL  string `xml:"url,attr"`
	Name string `xml:",chardata"`
}

func parse(body []byte) ([]item, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = false
	dec.CharsetReader = charset.NewReaderLabel

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode rss: %v: %w", err, fetch.ErrMalformed)
	}
	return doc.Channel.Items, nil
}

// publisher returns the item's publisher and its headline with the
// " - Publisher" suffix Google News appends removed.
func (it item) publisher() (name, headline string) {
	headline = strings.TrimSpace(it.Title)
	name = strings.TrimSpace(it.Source.Name)
	if name == "" {
		if i := strings.LastIndex(headline, " - "); i > 0 {
			name = strings.TrimSpace(headline[i+3:])
		}
	}
	if name != "" {
		headline = strings.TrimSpace(strings.TrimSuffix(headline, " - "+name))
	}
	if name == "" {
		name = hostOf(it.Source.URL)
	}
	if name == "" {
		name = hostOf(it.Link)
	}
	return name, headline
}

// publisherURL prefers the <source url> attribute since item links are redirects.
func (it item) publisherURL() string {
	if s := strings.TrimSpace(it.Source.URL); s != "" {
		return s
	}
	return strings.TrimSpace(it.Link)
}

func hostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
