package record

import (
	"strings"
	"unicode"
)

// DedupKeyLength is the number of normalized headline runes that identify a story.
const DedupKeyLength = 80

// DedupKey lowercases the headline, strips everything but letters and digits
// and keeps the first DedupKeyLength runes.
func DedupKey(headline string) string {
	var b strings.Builder
	n := 0
	for _, r := range strings.ToLower(headline) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(r)
		n++
		if n == DedupKeyLength {
			break
		}
	}
	return b.String()
}

// Dedupe collapses records sharing a DedupKey. The first occurrence wins and
// output keeps first-seen order. Records with an empty key are dropped.
func Dedupe(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		key := DedupKey(r.Headline)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
