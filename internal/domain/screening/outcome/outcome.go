// Package outcome captures the result of invoking one source for one screening.
package outcome

import "github.com/kailas-cloud/screener/internal/domain/screening/record"

// Status tells a failed source apart from one that was never attempted.
type Status string

// Outcome statuses.
const (
	StatusOK            Status = "ok"
	StatusError         Status = "error"
	StatusNotConfigured Status = "not_configured"
)

// Outcome is one source's contribution to a screening. Failures are data, never errors.
type Outcome struct {
	Source  string
	Status  Status
	Records []record.Record
	Err     string
}

// OK builds a successful outcome.
func OK(source string, records []record.Record) Outcome {
	return Outcome{Source: source, Status: StatusOK, Records: records}
}

// Failed builds an error outcome with no records.
func Failed(source string, err error) Outcome {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Outcome{Source: source, Status: StatusError, Err: msg}
}

// NotConfigured marks a source whose credential is absent.
func NotConfigured(source string) Outcome {
	return Outcome{Source: source, Status: StatusNotConfigured, Err: "source not configured"}
}

// Attempted reports whether the source was actually called.
func (o Outcome) Attempted() bool { return o.Status != StatusNotConfigured }
