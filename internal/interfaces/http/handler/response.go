package handler

import "github.com/pendencias/backend/internal/interfaces/http/dto"

// Envelope types below only describe responses for swag; handlers write
// dto.Response directly.

// APIResponse is the success envelope with a typed data field
type APIResponse[T any] struct {
	Success bool `json:"success" example:"true"`
	Data    T    `json:"data"`
}

// PagedResponse is the success envelope of paginated listings
type PagedResponse[T any] struct {
	Success bool      `json:"success" example:"true"`
	Data    []T       `json:"data"`
	Meta    *dto.Meta `json:"meta"`
}

// ErrorResponse is the failure envelope. error.code is one of the ERR_* codes,
// e.g. ERR_INVALID_TAX_ID or ERR_RATE_LIMITED.
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error"`
}
