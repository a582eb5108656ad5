package classify

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/screener/internal/domain/screening/query"
	"github.com/kailas-cloud/screener/internal/domain/screening/record"
)

const maxSnippetRunes = 300

func buildPrompt(subject string, subjectType query.SubjectType, batch []record.Record) string {
	cats := make([]string, len(record.Categories))
	for i, c := range record.Categories {
		cats[i] = string(c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Screening subject: %q (%s).\n", subject, subjectType)
	b.WriteString("For each article below decide whether it reports adverse information about the subject.\n")
	fmt.Fprintf(&b, "category: one of %s.\n", strings.Join(cats, ", "))
	b.WriteString("relevance: HIGH if the subject is directly implicated, MEDIUM if mentioned in an adverse context, LOW otherwise.\n")
	b.WriteString("summary: one sentence stating the adverse finding, or NOT_RELEVANT.\n")
	b.WriteString(`Reply with a JSON array only: [{"index":0,"category":"FRAUD","relevance":"HIGH","summary":"..."}]` + "\n\n")

	for i, r := range batch {
		fmt.Fprintf(&b, "[%d] %s\n", i, r.Headline)
		if r.SourceName != "" || r.PublishedDate != "" {
			fmt.Fprintf(&b, "    source: %s %s\n", r.SourceName, r.PublishedDate)
		}
		if r.Summary != "" {
			fmt.Fprintf(&b, "    snippet: %s\n", truncate(r.Summary, maxSnippetRunes))
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
