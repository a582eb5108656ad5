// Package match defines the merged cross-namespace retrieval hit.
package match

import (
	"cmp"
	"slices"
)

// Match is a retrieval hit attributed to the namespace it came from.
type Match struct {
	ID        string            `json:"id"`
	Score     float64           `json:"score"`
	Namespace string            `json:"namespace"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Merge drops matches below threshold, sorts the rest by score descending and
// keeps at most topK. Ties keep their input order. topK <= 0 means no cap.
func Merge(matches []Match, threshold float64, topK int) []Match {
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		if m.Score >= threshold {
			out = append(out, m)
		}
	}

	slices.SortStableFunc(out, func(a, b Match) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}
