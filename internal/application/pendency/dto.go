package pendency

import (
	"github.com/pendencias/backend/internal/domain/pendency"
)

// SearchRequest is the input of a search
type SearchRequest struct {
	// TaxID is the identifier as typed by the user, punctuation allowed
	TaxID string
	// Credentials override the configured provider keys for this call only
	Credentials pendency.Credentials
	// Owner scopes the search history; empty skips history
	Owner     string
	RequestID string
	ClientID  string
}

// ValidationResult describes a tax identifier without querying any provider
type ValidationResult struct {
	Valid      bool               `json:"valid"`
	Kind       pendency.TaxIDKind `json:"kind,omitempty"`
	Normalized string             `json:"normalized,omitempty"`
	Formatted  string             `json:"formatted,omitempty"`
}

// ProviderInfo describes a registered provider
type ProviderInfo struct {
	Code       pendency.ProviderCode `json:"code"`
	Name       string                `json:"name"`
	Configured bool                  `json:"configured"`
}
