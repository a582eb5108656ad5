package query

import (
	"fmt"
	"strings"
)

// Defaults for term derivation.
const (
	DefaultMaxTerms    = 6
	DefaultMaxKeywords = 5
)

var individualKeywords = []string{
	"fraud", "money laundering", "sanctions", "corruption", "bribery",
	"indicted", "convicted", "arrested",
}

var entityKeywords = []string{
	"fraud", "money laundering", "sanctions", "corruption", "bribery",
	"investigation", "fined", "penalty",
}

// TermOptions caps how many strings a query expands into.
type TermOptions struct {
	MaxTerms    int
	MaxKeywords int
}

// TermSet is the ordered list of search strings derived from one Query.
// Earlier terms are the most important: sources consume a prefix.
type TermSet []string

// Head returns at most the first k terms.
func (ts TermSet) Head(k int) TermSet {
	if k <= 0 || k >= len(ts) {
		return ts
	}
	return ts[:k]
}

// Terms expands the query into search strings.
// Order: keyword variant, jurisdiction variant, plain quoted subject, one per extra term.
func (q Query) Terms(opts TermOptions) TermSet {
	maxTerms := opts.MaxTerms
	if maxTerms <= 0 {
		maxTerms = DefaultMaxTerms
	}
	maxKeywords := opts.MaxKeywords
	if maxKeywords <= 0 {
		maxKeywords = DefaultMaxKeywords
	}

	quoted := quote(q.subject)
	keywords := keywordClause(q.keywords(), maxKeywords)

	terms := TermSet{fmt.Sprintf("%s %s", quoted, keywords)}
	if q.jurisdiction != "" {
		terms = append(terms, fmt.Sprintf("%s %s %s", quoted, q.jurisdiction, keywords))
	}
	terms = append(terms, quoted)
	for _, extra := range q.extraTerms {
		terms = append(terms, fmt.Sprintf("%s %s", quoted, extra))
	}

	return dedupeTerms(terms).Head(maxTerms)
}

func (q Query) keywords() []string {
	if q.subjectType == Entity {
		return entityKeywords
	}
	return individualKeywords
}

func keywordClause(keywords []string, limit int) string {
	if limit > len(keywords) {
		limit = len(keywords)
	}
	parts := make([]string, limit)
	for i, kw := range keywords[:limit] {
		if strings.Contains(kw, " ") {
			kw = quote(kw)
		}
		parts[i] = kw
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, "") + `"`
}

func dedupeTerms(terms TermSet) TermSet {
	seen := make(map[string]struct{}, len(terms))
	out := terms[:0]
	for _, t := range terms {
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}
