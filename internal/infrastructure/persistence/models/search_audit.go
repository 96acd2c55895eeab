package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pendencias/backend/internal/domain/pendency"
)

// OutcomeModel is the JSON shape of one provider outcome inside an audit row
type OutcomeModel struct {
	Provider   string `json:"provider"`
	Status     string `json:"status"`
	Records    int    `json:"records"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// SearchAuditModel is the persistence model for the search_audits table
type SearchAuditModel struct {
	BaseModel
	RequestID        string         `gorm:"type:varchar(64);index"`
	ClientID         string         `gorm:"type:varchar(128);index"`
	MaskedTaxID      string         `gorm:"type:varchar(20);not null"`
	TaxIDFingerprint string         `gorm:"type:char(64);not null;index"`
	TaxIDKind        string         `gorm:"type:varchar(4);not null"`
	RecordCount      int            `gorm:"not null;default:0"`
	ProvidersQueried int            `gorm:"not null;default:0"`
	ProvidersFailed  int            `gorm:"not null;default:0"`
	ProvidersSkipped int            `gorm:"not null;default:0"`
	Outcomes         []OutcomeModel `gorm:"type:jsonb;serializer:json"`
	DurationMS       int64          `gorm:"not null;default:0"`
	SearchedAt       time.Time      `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (SearchAuditModel) TableName() string {
	return "search_audits"
}

// ToDomain converts the model to a domain audit. The tax id itself is not
// recoverable from a row.
func (m *SearchAuditModel) ToDomain() *pendency.SearchAudit {
	outcomes := make([]pendency.ProviderOutcome, len(m.Outcomes))
	for i, o := range m.Outcomes {
		outcomes[i] = pendency.ProviderOutcome{
			Provider: pendency.ProviderCode(o.Provider),
			Status:   pendency.OutcomeStatus(o.Status),
			Records:  o.Records,
			Duration: time.Duration(o.DurationMS) * time.Millisecond,
			Error:    o.Error,
		}
	}
	return &pendency.SearchAudit{
		ID:               m.ID,
		RequestID:        m.RequestID,
		ClientID:         m.ClientID,
		MaskedTaxID:      m.MaskedTaxID,
		TaxIDKind:        pendency.TaxIDKind(m.TaxIDKind),
		RecordCount:      m.RecordCount,
		ProvidersQueried: m.ProvidersQueried,
		ProvidersFailed:  m.ProvidersFailed,
		ProvidersSkipped: m.ProvidersSkipped,
		Outcomes:         outcomes,
		Duration:         time.Duration(m.DurationMS) * time.Millisecond,
		SearchedAt:       m.SearchedAt,
	}
}

// SearchAuditModelFromDomain creates a model from a domain audit and the
// fingerprint of its tax id
func SearchAuditModelFromDomain(a *pendency.SearchAudit, fingerprint string) *SearchAuditModel {
	outcomes := make([]OutcomeModel, len(a.Outcomes))
	for i, o := range a.Outcomes {
		outcomes[i] = OutcomeModel{
			Provider:   o.Provider.String(),
			Status:     string(o.Status),
			Records:    o.Records,
			DurationMS: o.Duration.Milliseconds(),
			Error:      o.Error,
		}
	}
	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &SearchAuditModel{
		BaseModel:        BaseModel{ID: id},
		RequestID:        a.RequestID,
		ClientID:         a.ClientID,
		MaskedTaxID:      a.MaskedTaxID,
		TaxIDFingerprint: fingerprint,
		TaxIDKind:        string(a.TaxIDKind),
		RecordCount:      a.RecordCount,
		ProvidersQueried: a.ProvidersQueried,
		ProvidersFailed:  a.ProvidersFailed,
		ProvidersSkipped: a.ProvidersSkipped,
		Outcomes:         outcomes,
		DurationMS:       a.Duration.Milliseconds(),
		SearchedAt:       a.SearchedAt,
	}
}
