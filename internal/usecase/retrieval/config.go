package retrieval

import (
	"slices"

	"github.com/kailas-cloud/screener/internal/domain/retrieval/chunk"
)

// Defaults for Config.
const (
	DefaultTopK           = 16
	DefaultScoreThreshold = 0.7
	DefaultCaseNamespace  = "enforcement"
	DefaultCaseCategory   = "case_study"
)

// Namespace is one vector index with its local pre-merge cap.
type Namespace struct {
	Name string
	TopK int
}

// DefaultNamespaces are the namespaces searched when none are configured.
var DefaultNamespaces = []Namespace{
	{Name: "screenings", TopK: 5},
	{Name: "case_notes", TopK: 5},
	{Name: "enforcement", TopK: 3},
	{Name: "typologies", TopK: 3},
}

// Config tunes the retrieval service.
type Config struct {
	Namespaces     []Namespace
	DefaultTopK    int
	ScoreThreshold float64
	CaseNamespace  string
	CaseCategory   string
	ChunkSize      int
	ChunkOverlap   int
}

func (c Config) withDefaults() Config {
	if len(c.Namespaces) == 0 {
		c.Namespaces = DefaultNamespaces
	}
	c.Namespaces = slices.Clone(c.Namespaces)
	for i := range c.Namespaces {
		if c.Namespaces[i].TopK <= 0 {
			c.Namespaces[i].TopK = DefaultTopK
		}
	}
	if c.DefaultTopK <= 0 {
		c.DefaultTopK = DefaultTopK
	}
	if c.ScoreThreshold <= 0 {
		c.ScoreThreshold = DefaultScoreThreshold
	}
	if c.CaseNamespace == "" {
		c.CaseNamespace = DefaultCaseNamespace
	}
	if c.CaseCategory == "" {
		c.CaseCategory = DefaultCaseCategory
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = chunk.DefaultSize
	}
	if c.ChunkOverlap <= 0 {
		c.ChunkOverlap = chunk.DefaultOverlap
	}
	return c
}

// Options narrow one query.
type Options struct {
	WorkspaceScope string   // must match workspace_id when set
	ExcludeID      string   // case_id that must not match when set
	TopK           int      // final cap after merging; 0 uses the default
	ScoreThreshold *float64 // nil uses the default
}

// Findings are the tag lists a relevant-case lookup is built from.
type Findings struct {
	Indicators    []string
	Typologies    []string
	Jurisdictions []string
}

// IndexResult reports a successful write.
type IndexResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Chunks  int    `json:"chunks"`
}
