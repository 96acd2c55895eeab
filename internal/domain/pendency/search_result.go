package pendency

import (
	"time"
)

// OutcomeStatus summarizes how a single provider call ended
type OutcomeStatus string

const (
	// OutcomeOK means the provider answered with at least one record
	OutcomeOK OutcomeStatus = "ok"
	// OutcomeEmpty means the provider answered with no records
	OutcomeEmpty OutcomeStatus = "empty"
	// OutcomeSkipped means no credential was configured for the provider
	OutcomeSkipped OutcomeStatus = "skipped"
	// OutcomeFailed means the call failed and contributed nothing
	OutcomeFailed OutcomeStatus = "failed"
)

// ProviderOutcome records the result of one provider call
type ProviderOutcome struct {
	Provider ProviderCode  `json:"provider"`
	Status   OutcomeStatus `json:"status"`
	Records  int           `json:"records"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// SearchResult is the ordered, deduplicated record list of a search plus
// the outcome of every provider. Provider failures never turn into errors;
// they are only visible here.
type SearchResult struct {
	TaxID      TaxID             `json:"-"`
	Records    []DebtRecord      `json:"records"`
	Outcomes   []ProviderOutcome `json:"outcomes"`
	SearchedAt time.Time         `json:"searched_at"`
	Duration   time.Duration     `json:"duration"`
}

// Count returns how many outcomes ended with the given status
func (r *SearchResult) Count(status OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Queried returns how many providers were actually called
func (r *SearchResult) Queried() int {
	return len(r.Outcomes) - r.Count(OutcomeSkipped)
}

// Degraded reports whether at least one queried provider failed
func (r *SearchResult) Degraded() bool {
	return r.Count(OutcomeFailed) > 0
}

// AllFailed reports whether every queried provider failed.
// An empty record list with AllFailed() == false really means "no debts found".
func (r *SearchResult) AllFailed() bool {
	q := r.Queried()
	return q > 0 && r.Count(OutcomeFailed) == q
}

// FailedProviders lists the codes of providers whose call failed
func (r *SearchResult) FailedProviders() []ProviderCode {
	var codes []ProviderCode
	for _, o := range r.Outcomes {
		if o.Status == OutcomeFailed {
			codes = append(codes, o.Provider)
		}
	}
	return codes
}
