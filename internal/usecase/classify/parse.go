package classify

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

var errNoArray = errors.New("no JSON array in reply")

// patch is one sparse per-record overlay from the model.
type patch struct {
	Index     flexIndex `json:"index"`
	Category  string    `json:"category"`
	Relevance string    `json:"relevance"`
	Summary   string    `json:"summary"`
}

// flexIndex accepts 3, 3.0 and "3". Anything else leaves it invalid.
type flexIndex struct {
	n     int
	valid bool
}

func (f *flexIndex) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if v, err := strconv.Atoi(s); err == nil {
		f.n, f.valid = v, true
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && v == float64(int(v)) {
		f.n, f.valid = int(v), true
	}
	return nil
}

// parsePatches tries the whole reply first, then the outermost bracketed span.
// Elements that fail to decode are skipped so one bad patch never sinks the batch.
func parsePatches(reply string) ([]patch, error) {
	reply = strings.TrimSpace(reply)

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(reply), &raw); err != nil {
		start := strings.Index(reply, "[")
		end := strings.LastIndex(reply, "]")
		if start < 0 || end <= start {
			return nil, errNoArray
		}
		if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
			return nil, err
		}
	}

	patches := make([]patch, 0, len(raw))
	for _, elem := range raw {
		var p patch
		if err := json.Unmarshal(elem, &p); err != nil {
			continue
		}
		patches = append(patches, p)
	}
	return patches, nil
}

var notFindings = map[string]struct{}{
	"not_relevant": {},
	"not relevant": {},
	"none":         {},
	"n/a":          {},
	"na":           {},
	"null":         {},
	"-":            {},
}

// isFinding reports whether a model summary carries an actual adverse finding.
func isFinding(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return false
	}
	_, sentinel := notFindings[strings.TrimRight(s, ".")]
	return !sentinel
}
