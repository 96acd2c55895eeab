package handler

import (
	"time"

	"github.com/google/uuid"

	pendencyapp "github.com/pendencias/backend/internal/application/pendency"
	"github.com/pendencias/backend/internal/domain/pendency"
)

// SearchPendenciesRequest is the body of a pendency search
// @Description Tax identifier plus optional per-call provider keys
// @name HandlerSearchPendenciesRequest
type SearchPendenciesRequest struct {
	TaxID   string            `json:"tax_id" binding:"required,max=32" example:"111.444.777-35"`
	APIKeys map[string]string `json:"api_keys" binding:"omitempty,max=5,dive,keys,provider_code,endkeys,max=512" example:"SERASA:sk_test_123"`
}

// credentials maps the request keys to provider codes. Keys are already
// validated by the provider_code tag.
func (r SearchPendenciesRequest) credentials() pendency.Credentials {
	creds := make(pendency.Credentials, len(r.APIKeys))
	for k, v := range r.APIKeys {
		if code, err := pendency.ParseProviderCode(k); err == nil {
			creds[code] = v
		}
	}
	return creds
}

// OutcomeResponse is how one provider call ended
// @name HandlerOutcomeResponse
type OutcomeResponse struct {
	Provider   pendency.ProviderCode  `json:"provider" example:"SERASA"`
	Name       string                 `json:"name" example:"Serasa"`
	Status     pendency.OutcomeStatus `json:"status" example:"ok"`
	Records    int                    `json:"records" example:"2"`
	DurationMS int64                  `json:"duration_ms" example:"120"`
	Error      string                 `json:"error,omitempty"`
}

// SearchSummary aggregates a search result
// @name HandlerSearchSummary
type SearchSummary struct {
	TaxID       string             `json:"tax_id" example:"*******7735"`
	Kind        pendency.TaxIDKind `json:"kind" example:"CPF"`
	Count       int                `json:"count" example:"2"`
	TotalAmount string             `json:"total_amount" example:"1523.40"`
	Degraded    bool               `json:"degraded" example:"false"`
	AllFailed   bool               `json:"all_failed" example:"false"`
	SearchedAt  time.Time          `json:"searched_at"`
	DurationMS  int64              `json:"duration_ms" example:"350"`
}

// SearchPendenciesResponse is the result of a pendency search
// @name HandlerSearchPendenciesResponse
type SearchPendenciesResponse struct {
	Records  []pendency.DebtRecord `json:"records"`
	Outcomes []OutcomeResponse     `json:"outcomes"`
	Summary  SearchSummary         `json:"summary"`
}

func newSearchPendenciesResponse(result *pendency.SearchResult) SearchPendenciesResponse {
	records := result.Records
	if records == nil {
		records = []pendency.DebtRecord{}
	}
	return SearchPendenciesResponse{
		Records:  records,
		Outcomes: toOutcomeResponses(result.Outcomes),
		Summary: SearchSummary{
			TaxID:       result.TaxID.Masked(),
			Kind:        result.TaxID.Kind(),
			Count:       len(records),
			TotalAmount: pendency.TotalCurrentAmount(records).StringFixed(2),
			Degraded:    result.Degraded(),
			AllFailed:   result.AllFailed(),
			SearchedAt:  result.SearchedAt,
			DurationMS:  result.Duration.Milliseconds(),
		},
	}
}

func toOutcomeResponses(outcomes []pendency.ProviderOutcome) []OutcomeResponse {
	out := make([]OutcomeResponse, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, OutcomeResponse{
			Provider:   o.Provider,
			Name:       o.Provider.DisplayName(),
			Status:     o.Status,
			Records:    o.Records,
			DurationMS: o.Duration.Milliseconds(),
			Error:      o.Error,
		})
	}
	return out
}

// ValidateTaxIDRequest carries the identifier to validate
type ValidateTaxIDRequest struct {
	TaxID string `uri:"tax_id" binding:"required,max=32"`
}

// HistoryResponse lists the recent searches of the caller, newest first
// @name HandlerHistoryResponse
type HistoryResponse struct {
	Entries []string `json:"entries" example:"111.444.777-35"`
}

// ProvidersResponse lists the registered providers in query order
// @name HandlerProvidersResponse
type ProvidersResponse struct {
	Providers []pendencyapp.ProviderInfo `json:"providers"`
}

// ListAuditsQuery filters the search audit listing
// @name HandlerListAuditsQuery
type ListAuditsQuery struct {
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	ClientID  string     `form:"client_id" binding:"omitempty,max=128"`
	TaxID     string     `form:"tax_id" binding:"omitempty,taxid"`
	Kind      string     `form:"kind" binding:"omitempty,oneof=CPF CNPJ"`
	From      *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To        *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy    string     `form:"sort_by" binding:"omitempty,oneof=searched_at created_at record_count duration_ms providers_failed providers_queried client_id"`
	SortOrder string     `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
}

func (q ListAuditsQuery) filter() pendency.AuditFilter {
	f := pendency.AuditFilter{
		ClientID:  q.ClientID,
		Kind:      pendency.TaxIDKind(q.Kind),
		From:      q.From,
		To:        q.To,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
		Page:      q.Page,
		PageSize:  q.PageSize,
	}
	if q.TaxID != "" {
		f.TaxID, _ = pendency.ParseTaxID(q.TaxID)
	}
	return f
}

// AuditResponse is a persisted search trace
// @name HandlerAuditResponse
type AuditResponse struct {
	ID               uuid.UUID          `json:"id"`
	RequestID        string             `json:"request_id,omitempty"`
	ClientID         string             `json:"client_id,omitempty"`
	TaxID            string             `json:"tax_id" example:"*******7735"`
	Kind             pendency.TaxIDKind `json:"kind" example:"CPF"`
	RecordCount      int                `json:"record_count"`
	ProvidersQueried int                `json:"providers_queried"`
	ProvidersFailed  int                `json:"providers_failed"`
	ProvidersSkipped int                `json:"providers_skipped"`
	Outcomes         []OutcomeResponse  `json:"outcomes"`
	DurationMS       int64              `json:"duration_ms"`
	SearchedAt       time.Time          `json:"searched_at"`
}

func toAuditResponse(a *pendency.SearchAudit) AuditResponse {
	return AuditResponse{
		ID:               a.ID,
		RequestID:        a.RequestID,
		ClientID:         a.ClientID,
		TaxID:            a.MaskedTaxID,
		Kind:             a.TaxIDKind,
		RecordCount:      a.RecordCount,
		ProvidersQueried: a.ProvidersQueried,
		ProvidersFailed:  a.ProvidersFailed,
		ProvidersSkipped: a.ProvidersSkipped,
		Outcomes:         toOutcomeResponses(a.Outcomes),
		DurationMS:       a.Duration.Milliseconds(),
		SearchedAt:       a.SearchedAt,
	}
}
