// Package risk turns a final record set into a deterministic risk assessment.
package risk

import "github.com/kailas-cloud/screener/internal/domain/screening/record"

// Level is the categorical risk level.
type Level string

// Risk levels.
const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// Score weights. Changing any of these changes audit results.
const (
	weightHighRelevance   = 25
	weightMediumRelevance = 10
	weightLowRelevance    = 3

	weightSevereCategory  = 15 // sanctions evasion, money laundering
	weightAdverseCategory = 10 // financial crime, fraud, corruption
	weightHighCredibility = 5

	maxScore          = 100
	criticalThreshold = 70
	highThreshold     = 40
	mediumThreshold   = 15
)

// SeverityCounts is the number of records per relevance level.
type SeverityCounts struct {
	High   int `json:"HIGH"`
	Medium int `json:"MEDIUM"`
	Low    int `json:"LOW"`
}

// Assessment is the risk verdict for a record set.
type Assessment struct {
	Score          int
	Level          Level
	SeverityCounts SeverityCounts
}

// Score computes the assessment for a record set. The sum is unbounded before
// the final clamp, so many weak hits can reach the same level as one strong hit.
func Score(records []record.Record) Assessment {
	var (
		score  int
		counts SeverityCounts
	)

	for i := range records {
		r := &records[i]

		switch r.Relevance {
		case record.RelevanceHigh:
			counts.High++
			score += weightHighRelevance
		case record.RelevanceMedium:
			counts.Medium++
			score += weightMediumRelevance
		default:
			counts.Low++
			score += weightLowRelevance
		}

		switch r.Category {
		case record.CategorySanctionsEvasion, record.CategoryMoneyLaundering:
			score += weightSevereCategory
		case record.CategoryFinancialCrime, record.CategoryFraud, record.CategoryCorruption:
			score += weightAdverseCategory
		}

		if r.SourceCredibility == record.CredibilityHigh {
			score += weightHighCredibility
		}
	}

	score = min(max(score, 0), maxScore)

	return Assessment{Score: score, Level: LevelFor(score), SeverityCounts: counts}
}

// LevelFor maps a clamped score to its level.
func LevelFor(score int) Level {
	switch {
	case score >= criticalThreshold:
		return LevelCritical
	case score >= highThreshold:
		return LevelHigh
	case score >= mediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}
