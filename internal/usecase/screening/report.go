package screening

import (
	"github.com/kailas-cloud/screener/internal/domain/screening/outcome"
	"github.com/kailas-cloud/screener/internal/domain/screening/query"
	"github.com/kailas-cloud/screener/internal/domain/screening/record"
	"github.com/kailas-cloud/screener/internal/domain/screening/risk"
)

// MediaStatus summarizes whether anything adverse was found.
type MediaStatus string

// Media statuses.
const (
	StatusFindings MediaStatus = "FINDINGS"
	StatusClear    MediaStatus = "CLEAR"
)

// Request is the wire-level screening input.
type Request struct {
	Name            string   `json:"name"`
	Type            string   `json:"type,omitempty"`
	Country         string   `json:"country,omitempty"`
	AdditionalTerms []string `json:"additionalTerms,omitempty"`
}

// Report is the screening response.
type Report struct {
	ScreeningID          string                   `json:"screeningId"`
	Subject              string                   `json:"subject"`
	Type                 query.SubjectType        `json:"type"`
	ScreeningDate        string                   `json:"screeningDate"`
	AdverseMedia         AdverseMedia             `json:"adverseMedia"`
	RiskScore            int                      `json:"riskScore"`
	RiskLevel            risk.Level               `json:"riskLevel"`
	SeverityCounts       risk.SeverityCounts      `json:"severityCounts"`
	SourcesSearched      map[string]SourceSummary `json:"sourcesSearched"`
	SuggestedSearchTerms []string                 `json:"suggestedSearchTerms"`
}

// AdverseMedia holds the deduplicated, classified articles.
type AdverseMedia struct {
	Status        MediaStatus             `json:"status"`
	TotalArticles int                     `json:"totalArticles"`
	Categories    map[record.Category]int `json:"categories"`
	Articles      []record.Record         `json:"articles"`
}

// SourceSummary is one source's line in sourcesSearched. Error is null on success.
type SourceSummary struct {
	Count  int            `json:"count"`
	Error  *string        `json:"error"`
	Status outcome.Status `json:"status"`
}

func summarize(outcomes []outcome.Outcome) map[string]SourceSummary {
	out := make(map[string]SourceSummary, len(outcomes))
	for _, o := range outcomes {
		s := SourceSummary{Count: len(o.Records), Status: o.Status}
		if o.Err != "" {
			msg := o.Err
			s.Error = &msg
		}
		out[o.Source] = s
	}
	return out
}

func categoryCounts(records []record.Record) map[record.Category]int {
	counts := make(map[record.Category]int)
	for _, r := range records {
		counts[r.Category]++
	}
	return counts
}
