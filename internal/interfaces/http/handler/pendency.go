package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	pendencyapp "github.com/pendencias/backend/internal/application/pendency"
	"github.com/pendencias/backend/internal/interfaces/http/dto"
	"github.com/pendencias/backend/internal/interfaces/http/middleware"
)

// PendencyHandler handles pendency search endpoints
type PendencyHandler struct {
	BaseHandler
	service *pendencyapp.SearchService
}

// NewPendencyHandler creates a new PendencyHandler
func NewPendencyHandler(service *pendencyapp.SearchService) *PendencyHandler {
	return &PendencyHandler{service: service}
}

// Search godoc
// @ID           searchPendencies
// @Summary      Search pendencies
// @Description  Queries every provider with a configured key and returns the deduplicated records,
// @Description  most urgent first. Provider failures never fail the request: they show up in outcomes
// @Description  and summary.degraded / summary.all_failed.
// @Tags         pendencies
// @Accept       json
// @Produce      json
// @Param        X-Client-ID header   string                  false "Client identifier scoping the search history"
// @Param        request     body     SearchPendenciesRequest true  "Search request"
// @Success      200         {object} APIResponse[SearchPendenciesResponse]
// @Failure      400         {object} ErrorResponse
// @Failure      422         {object} ErrorResponse
// @Failure      429         {object} ErrorResponse
// @Router       /pendencies/search [post]
func (h *PendencyHandler) Search(c *gin.Context) {
	var req SearchPendenciesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.service.Search(c.Request.Context(), pendencyapp.SearchRequest{
		TaxID:       req.TaxID,
		Credentials: req.credentials(),
		Owner:       middleware.GetHistoryOwner(c),
		RequestID:   getRequestID(c),
		ClientID:    middleware.GetClientID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newSearchPendenciesResponse(result))
}

// ValidateTaxID godoc
// @ID           validateTaxID
// @Summary      Validate a CPF or CNPJ
// @Description  Checks the identifier checksum without calling any provider
// @Tags         pendencies
// @Produce      json
// @Param        tax_id path     string true "CPF or CNPJ, punctuation allowed"
// @Success      200    {object} APIResponse[pendencyapp.ValidationResult]
// @Failure      400    {object} ErrorResponse
// @Router       /pendencies/validate/{tax_id} [get]
func (h *PendencyHandler) ValidateTaxID(c *gin.Context) {
	var req ValidateTaxIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.Success(c, h.service.ValidateTaxID(req.TaxID))
}

// History godoc
// @ID           getSearchHistory
// @Summary      Recent searches
// @Description  Returns up to the configured number of recent searches of the caller, newest first
// @Tags         pendencies
// @Produce      json
// @Param        X-Client-ID header   string false "Client identifier; the client IP is used when absent"
// @Success      200         {object} APIResponse[HistoryResponse]
// @Failure      503         {object} ErrorResponse
// @Router       /pendencies/history [get]
func (h *PendencyHandler) History(c *gin.Context) {
	entries, err := h.service.History(c.Request.Context(), middleware.GetHistoryOwner(c))
	if err != nil {
		_ = c.Error(err)
		h.ServiceUnavailable(c, "Search history is unavailable")
		return
	}
	h.Success(c, HistoryResponse{Entries: entries})
}

// ClearHistory godoc
// @ID           clearSearchHistory
// @Summary      Clear recent searches
// @Tags         pendencies
// @Param        X-Client-ID header string false "Client identifier; the client IP is used when absent"
// @Success      204
// @Failure      503 {object} ErrorResponse
// @Router       /pendencies/history [delete]
func (h *PendencyHandler) ClearHistory(c *gin.Context) {
	if err := h.service.ClearHistory(c.Request.Context(), middleware.GetHistoryOwner(c)); err != nil {
		_ = c.Error(err)
		h.ServiceUnavailable(c, "Search history is unavailable")
		return
	}
	h.NoContent(c)
}

// Providers godoc
// @ID           listProviders
// @Summary      Registered providers
// @Description  Lists the providers in query order and whether a server-side key is configured
// @Tags         pendencies
// @Produce      json
// @Success      200 {object} APIResponse[ProvidersResponse]
// @Router       /pendencies/providers [get]
func (h *PendencyHandler) Providers(c *gin.Context) {
	h.Success(c, ProvidersResponse{Providers: h.service.Providers()})
}

// ListAudits godoc
// @ID           listSearchAudits
// @Summary      List search audits
// @Description  Paginated search trail. Identifiers are stored masked; tax_id filters by keyed fingerprint.
// @Tags         audits
// @Produce      json
// @Param        page       query    int    false "Page number"          minimum(1)
// @Param        page_size  query    int    false "Page size"            minimum(1) maximum(100)
// @Param        client_id  query    string false "Client identifier"
// @Param        tax_id     query    string false "CPF or CNPJ"
// @Param        kind       query    string false "Identifier kind"      Enums(CPF, CNPJ)
// @Param        from       query    string false "Searched at or after (RFC3339)"
// @Param        to         query    string false "Searched at or before (RFC3339)"
// @Param        sort_by    query    string false "Sort field"           default(searched_at)
// @Param        sort_order query    string false "Sort direction"       Enums(asc, desc)
// @Success      200        {object} PagedResponse[AuditResponse]
// @Failure      400        {object} ErrorResponse
// @Failure      404        {object} ErrorResponse
// @Router       /pendencies/audits [get]
func (h *PendencyHandler) ListAudits(c *gin.Context) {
	var q ListAuditsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	defaults := dto.DefaultListRequest()
	if q.Page == 0 {
		q.Page = defaults.Page
	}
	if q.PageSize == 0 {
		q.PageSize = defaults.PageSize
	}

	audits, total, err := h.service.ListAudits(c.Request.Context(), q.filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]AuditResponse, 0, len(audits))
	for i := range audits {
		out = append(out, toAuditResponse(&audits[i]))
	}
	h.SuccessWithMeta(c, out, total, q.Page, q.PageSize)
}

// GetAudit godoc
// @ID           getSearchAudit
// @Summary      Get a search audit
// @Tags         audits
// @Produce      json
// @Param        id  path     string true "Audit ID" format(uuid)
// @Success      200 {object} APIResponse[AuditResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /pendencies/audits/{id} [get]
func (h *PendencyHandler) GetAudit(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BindError(c, err)
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid audit ID")
		return
	}

	audit, err := h.service.GetAudit(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAuditResponse(audit))
}
