package pendency

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SearchAudit is the persisted trace of one search. It never stores the
// clear tax id nor the records themselves: TaxID is only available to the
// repository to derive a keyed fingerprint and is empty on loaded audits.
type SearchAudit struct {
	ID               uuid.UUID
	TaxID            TaxID
	RequestID        string
	ClientID         string
	MaskedTaxID      string
	TaxIDKind        TaxIDKind
	RecordCount      int
	ProvidersQueried int
	ProvidersFailed  int
	ProvidersSkipped int
	Outcomes         []ProviderOutcome
	Duration         time.Duration
	SearchedAt       time.Time
}

// NewSearchAudit builds the audit entry of a finished search
func NewSearchAudit(result *SearchResult, requestID, clientID string) *SearchAudit {
	return &SearchAudit{
		ID:               uuid.New(),
		TaxID:            result.TaxID,
		RequestID:        requestID,
		ClientID:         clientID,
		MaskedTaxID:      result.TaxID.Masked(),
		TaxIDKind:        result.TaxID.Kind(),
		RecordCount:      len(result.Records),
		ProvidersQueried: result.Queried(),
		ProvidersFailed:  result.Count(OutcomeFailed),
		ProvidersSkipped: result.Count(OutcomeSkipped),
		Outcomes:         result.Outcomes,
		Duration:         result.Duration,
		SearchedAt:       result.SearchedAt,
	}
}

// AuditFilter narrows audit listings
type AuditFilter struct {
	ClientID  string
	TaxID     TaxID // zero matches every identifier
	Kind      TaxIDKind
	From      *time.Time
	To        *time.Time
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// AuditRepository persists search audits
type AuditRepository interface {
	Save(ctx context.Context, audit *SearchAudit) error
	FindByID(ctx context.Context, id uuid.UUID) (*SearchAudit, error)
	FindAll(ctx context.Context, filter AuditFilter) ([]SearchAudit, int64, error)
}
