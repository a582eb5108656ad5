// Package record defines the canonical adverse-media record every source is normalized into.
package record

import "strings"

// Credibility is the trust tier of the publisher.
type Credibility string

// Credibility tiers.
const (
	CredibilityHigh   Credibility = "HIGH"
	CredibilityMedium Credibility = "MEDIUM"
	CredibilityLow    Credibility = "LOW"
)

// Relevance is how strongly a record bears on the screened subject.
type Relevance string

// Relevance levels.
const (
	RelevanceHigh   Relevance = "HIGH"
	RelevanceMedium Relevance = "MEDIUM"
	RelevanceLow    Relevance = "LOW"
)

// Category is the adverse-media typology of a record.
type Category string

// Categories.
const (
	CategoryFinancialCrime   Category = "FINANCIAL_CRIME"
	CategoryCorruption       Category = "CORRUPTION"
	CategoryFraud            Category = "FRAUD"
	CategorySanctionsEvasion Category = "SANCTIONS_EVASION"
	CategoryMoneyLaundering  Category = "MONEY_LAUNDERING"
	CategoryOther            Category = "OTHER"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryFinancialCrime,
	CategoryCorruption,
	CategoryFraud,
	CategorySanctionsEvasion,
	CategoryMoneyLaundering,
	CategoryOther,
}

// ParseCategory normalizes free-form labels ("money laundering", "Sanctions-Evasion").
// The second return is false for anything that is not a known category.
func ParseCategory(s string) (Category, bool) {
	c := Category(normalizeLabel(s))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// ParseRelevance normalizes a relevance label. The second return is false when unknown.
func ParseRelevance(s string) (Relevance, bool) {
	switch r := Relevance(normalizeLabel(s)); r {
	case RelevanceHigh, RelevanceMedium, RelevanceLow:
		return r, true
	default:
		return "", false
	}
}

func normalizeLabel(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// Record is the canonical shape of one adverse-media hit.
type Record struct {
	Headline          string      `json:"headline"`
	SourceName        string      `json:"sourceName"`
	SourceCredibility Credibility `json:"sourceCredibility"`
	PublishedDate     string      `json:"publishedDate"`
	Summary           string      `json:"summary"`
	URL               string      `json:"url"`
	Category          Category    `json:"category"`
	Relevance         Relevance   `json:"relevance"`
	OriginSource      string      `json:"originSource"`

	// Authoritative records come from regulator-published material; their relevance is fixed.
	Authoritative bool `json:"-"`
}

// New builds a record with default classification. Credibility is derived from the publisher.
func New(headline, sourceName, publishedDate, summary, url, originSource string) Record {
	return Record{
		Headline:          strings.TrimSpace(headline),
		SourceName:        strings.TrimSpace(sourceName),
		SourceCredibility: TierFor(sourceName, url),
		PublishedDate:     publishedDate,
		Summary:           strings.TrimSpace(summary),
		URL:               strings.TrimSpace(url),
		Category:          CategoryOther,
		Relevance:         RelevanceMedium,
		OriginSource:      originSource,
	}
}
