package pendency

import (
	"errors"

	"github.com/pendencias/backend/internal/domain/shared"
)

// ErrInvalidTaxID is the only error a search surfaces to its caller.
var ErrInvalidTaxID = shared.NewDomainError("INVALID_TAX_ID", "tax identifier is not a valid CPF or CNPJ")

// ---------------------------------------------------------------------------
// Provider Errors
// ---------------------------------------------------------------------------

var (
	ErrProviderNotConfigured   = errors.New("pendency: provider not configured")
	ErrProviderUnavailable     = errors.New("pendency: provider temporarily unavailable")
	ErrProviderRequestFailed   = errors.New("pendency: provider request failed")
	ErrProviderInvalidResponse = errors.New("pendency: invalid provider response")
	ErrProviderAuthFailed      = errors.New("pendency: provider authentication failed")
	ErrProviderRateLimited     = errors.New("pendency: provider rate limited")
	ErrUnknownProvider         = errors.New("pendency: unknown provider code")
)

// ---------------------------------------------------------------------------
// History / Audit Errors
// ---------------------------------------------------------------------------

var (
	ErrEmptyHistoryOwner = errors.New("pendency: history owner is required")
	ErrEmptyQuery        = errors.New("pendency: history query is empty")
	ErrAuditNotFound     = shared.NewDomainError("AUDIT_NOT_FOUND", "search audit not found")
)
