// Package query holds the immutable screening input and the search terms derived from it.
package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/screener/internal/domain"
)

// SubjectType distinguishes people from organisations.
type SubjectType string

const (
	// Individual is a natural person.
	Individual SubjectType = "INDIVIDUAL"
	// Entity is a company, fund, vessel or other organisation.
	Entity SubjectType = "ENTITY"
)

// ParseSubjectType maps wire input to a SubjectType. Empty input defaults to Individual.
func ParseSubjectType(s string) (SubjectType, error) {
	switch SubjectType(strings.ToUpper(strings.TrimSpace(s))) {
	case "", Individual:
		return Individual, nil
	case Entity:
		return Entity, nil
	default:
		return "", fmt.Errorf("%w: unknown subject type %q", domain.ErrInvalidQuery, s)
	}
}

// Query is one screening request. Construct it with New.
type Query struct {
	subject      string
	subjectType  SubjectType
	jurisdiction string
	extraTerms   []string
}

// New validates and creates a Query. Blank extra terms are dropped.
func New(subject string, subjectType SubjectType, jurisdiction string, extraTerms []string) (Query, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return Query{}, fmt.Errorf("%w: subject is required", domain.ErrInvalidQuery)
	}
	switch subjectType {
	case Individual, Entity:
	case "":
		subjectType = Individual
	default:
		return Query{}, fmt.Errorf("%w: unknown subject type %q", domain.ErrInvalidQuery, subjectType)
	}

	terms := make([]string, 0, len(extraTerms))
	for _, t := range extraTerms {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}

	return Query{
		subject:      subject,
		subjectType:  subjectType,
		jurisdiction: strings.TrimSpace(jurisdiction),
		extraTerms:   terms,
	}, nil
}

// Subject returns the screened name.
func (q Query) Subject() string { return q.subject }

// SubjectType returns the subject kind.
func (q Query) SubjectType() SubjectType { return q.subjectType }

// Jurisdiction returns the optional country or jurisdiction hint.
func (q Query) Jurisdiction() string { return q.jurisdiction }

// ExtraTerms returns a copy of the caller-supplied additional terms.
func (q Query) ExtraTerms() []string {
	out := make([]string, len(q.extraTerms))
	copy(out, q.extraTerms)
	return out
}
