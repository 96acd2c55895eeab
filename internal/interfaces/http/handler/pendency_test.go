package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pendencyapp "github.com/pendencias/backend/internal/application/pendency"
	"github.com/pendencias/backend/internal/domain/pendency"
	"github.com/pendencias/backend/internal/infrastructure/cache"
	"github.com/pendencias/backend/internal/interfaces/http/dto"
	"github.com/pendencias/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

const validCPF = "111.444.777-35"

type stubProvider struct {
	code    pendency.ProviderCode
	records []pendency.DebtRecord
	err     error
	keys    []string
}

func (p *stubProvider) Code() pendency.ProviderCode { return p.code }

func (p *stubProvider) Fetch(_ context.Context, _ pendency.TaxID, key string) ([]pendency.DebtRecord, error) {
	p.keys = append(p.keys, key)
	if p.err != nil {
		return nil, p.err
	}
	return append([]pendency.DebtRecord(nil), p.records...), nil
}

type stubAuditRepository struct {
	mock.Mock
}

func (m *stubAuditRepository) Save(ctx context.Context, audit *pendency.SearchAudit) error {
	return m.Called(ctx, audit).Error(0)
}

func (m *stubAuditRepository) FindByID(ctx context.Context, id uuid.UUID) (*pendency.SearchAudit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pendency.SearchAudit), args.Error(1)
}

func (m *stubAuditRepository) FindAll(ctx context.Context, filter pendency.AuditFilter) ([]pendency.SearchAudit, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]pendency.SearchAudit), args.Get(1).(int64), args.Error(2)
}

type failingHistory struct{}

func (failingHistory) Add(context.Context, string, string) error { return errors.New("redis down") }
func (failingHistory) List(context.Context, string) ([]string, error) {
	return nil, errors.New("redis down")
}
func (failingHistory) Clear(context.Context, string) error { return errors.New("redis down") }

func debt(creditor, amount string, due time.Time, status pendency.Status) pendency.DebtRecord {
	return pendency.DebtRecord{
		ID:             uuid.NewString(),
		Creditor:       creditor,
		OriginalAmount: decimal.RequireFromString(amount),
		CurrentAmount:  decimal.RequireFromString(amount),
		DueDate:        due,
		Status:         status,
		Type:           pendency.TypeLoan,
	}
}

func newPendencyRouter(h *PendencyHandler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ClientIdentity())
	g := r.Group("/api/v1/pendencies")
	g.POST("/search", h.Search)
	g.GET("/validate/:tax_id", h.ValidateTaxID)
	g.GET("/history", h.History)
	g.DELETE("/history", h.ClearHistory)
	g.GET("/providers", h.Providers)
	g.GET("/audits", h.ListAudits)
	g.GET("/audits/:id", h.GetAudit)
	return r
}

func do(r *gin.Engine, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// envelope mirrors dto.Response with a typed data field
type envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
	Meta    *dto.Meta      `json:"meta"`
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var resp envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestPendencyHandler_Search(t *testing.T) {
	due := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	serasa := &stubProvider{code: pendency.ProviderSerasa, records: []pendency.DebtRecord{
		debt("Banco A", "100.00", due.AddDate(0, 1, 0), pendency.StatusRegular),
	}}
	spc := &stubProvider{code: pendency.ProviderSPC, records: []pendency.DebtRecord{
		debt("Loja B", "50.50", due, pendency.StatusLate),
	}}
	quod := &stubProvider{code: pendency.ProviderQuod, err: pendency.ErrProviderUnavailable}
	pgfn := &stubProvider{code: pendency.ProviderPGFN}

	history := cache.NewInMemoryHistoryStore(cache.HistoryOptions{})
	t.Cleanup(func() { _ = history.Close() })

	svc := pendencyapp.NewSearchService(
		[]pendency.Provider{serasa, spc, quod, pgfn},
		pendency.Credentials{pendency.ProviderSerasa: "server-key", pendency.ProviderQuod: "q"},
		zap.NewNop(),
		pendencyapp.WithHistory(history),
	)
	r := newPendencyRouter(NewPendencyHandler(svc))

	w := do(r, http.MethodPost, "/api/v1/pendencies/search",
		`{"tax_id":"`+validCPF+`","api_keys":{"spc":"client-key"}}`,
		middleware.HeaderClientID, "web")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeData[SearchPendenciesResponse](t, w)
	assert.True(t, resp.Success)

	require.Len(t, resp.Data.Records, 2)
	assert.Equal(t, "Loja B", resp.Data.Records[0].Creditor, "late debts come first")
	assert.Equal(t, "Banco A", resp.Data.Records[1].Creditor)

	summary := resp.Data.Summary
	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, "150.50", summary.TotalAmount)
	assert.Equal(t, pendency.TaxIDKindCPF, summary.Kind)
	assert.NotContains(t, summary.TaxID, "11144477735")
	assert.True(t, summary.Degraded)
	assert.False(t, summary.AllFailed)

	statuses := make(map[pendency.ProviderCode]pendency.OutcomeStatus)
	for _, o := range resp.Data.Outcomes {
		statuses[o.Provider] = o.Status
	}
	assert.Equal(t, map[pendency.ProviderCode]pendency.OutcomeStatus{
		pendency.ProviderSerasa: pendency.OutcomeOK,
		pendency.ProviderSPC:    pendency.OutcomeOK,
		pendency.ProviderQuod:   pendency.OutcomeFailed,
		pendency.ProviderPGFN:   pendency.OutcomeSkipped,
	}, statuses)

	assert.Equal(t, []string{"client-key"}, spc.keys)
	assert.Empty(t, pgfn.keys)

	w = do(r, http.MethodGet, "/api/v1/pendencies/history", "", middleware.HeaderClientID, "web")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{validCPF}, decodeData[HistoryResponse](t, w).Data.Entries)
}

func TestPendencyHandler_Search_NoProvidersConfigured(t *testing.T) {
	svc := pendencyapp.NewSearchService(
		[]pendency.Provider{&stubProvider{code: pendency.ProviderSerasa}},
		nil,
		zap.NewNop(),
	)
	r := newPendencyRouter(NewPendencyHandler(svc))

	w := do(r, http.MethodPost, "/api/v1/pendencies/search", `{"tax_id":"11144477735"}`)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeData[SearchPendenciesResponse](t, w)
	assert.NotNil(t, resp.Data.Records)
	assert.Empty(t, resp.Data.Records)
	assert.Equal(t, "0.00", resp.Data.Summary.TotalAmount)
	assert.False(t, resp.Data.Summary.AllFailed)
	assert.Contains(t, w.Body.String(), `"records":[]`)
}

func TestPendencyHandler_Search_Errors(t *testing.T) {
	svc := pendencyapp.NewSearchService(nil, nil, zap.NewNop())
	r := newPendencyRouter(NewPendencyHandler(svc))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"invalid tax id", `{"tax_id":"111.444.777-36"}`, http.StatusUnprocessableEntity, dto.ErrCodeInvalidTaxID},
		{"missing tax id", `{}`, http.StatusBadRequest, dto.ErrCodeValidation},
		{"unknown provider key", `{"tax_id":"11144477735","api_keys":{"experian":"k"}}`, http.StatusBadRequest, dto.ErrCodeValidation},
		{"malformed json", `{"tax_id":`, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
		{"wrong type", `{"tax_id":123}`, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/v1/pendencies/search", tt.body, middleware.HeaderRequestID, "req-42")

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeData[any](t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-42", resp.Error.RequestID)
		})
	}
}

func TestPendencyHandler_ValidateTaxID(t *testing.T) {
	svc := pendencyapp.NewSearchService(nil, nil, zap.NewNop())
	r := newPendencyRouter(NewPendencyHandler(svc))

	tests := []struct {
		path string
		want pendencyapp.ValidationResult
	}{
		{"11144477735", pendencyapp.ValidationResult{Valid: true, Kind: pendency.TaxIDKindCPF, Normalized: "11144477735", Formatted: "111.444.777-35"}},
		{"11222333000181", pendencyapp.ValidationResult{Valid: true, Kind: pendency.TaxIDKindCNPJ, Normalized: "11222333000181", Formatted: "11.222.333/0001-81"}},
		{"11111111111", pendencyapp.ValidationResult{Valid: false}},
		{"abc", pendencyapp.ValidationResult{Valid: false}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := do(r, http.MethodGet, "/api/v1/pendencies/validate/"+tt.path, "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, decodeData[pendencyapp.ValidationResult](t, w).Data)
		})
	}
}

func TestPendencyHandler_History(t *testing.T) {
	history := cache.NewInMemoryHistoryStore(cache.HistoryOptions{})
	t.Cleanup(func() { _ = history.Close() })
	svc := pendencyapp.NewSearchService(nil, nil, zap.NewNop(), pendencyapp.WithHistory(history))
	r := newPendencyRouter(NewPendencyHandler(svc))

	require.NoError(t, history.Add(context.Background(), "client:web", "111.444.777-35"))
	require.NoError(t, history.Add(context.Background(), "client:other", "11.222.333/0001-81"))

	w := do(r, http.MethodGet, "/api/v1/pendencies/history", "", middleware.HeaderClientID, "web")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"111.444.777-35"}, decodeData[HistoryResponse](t, w).Data.Entries)

	w = do(r, http.MethodDelete, "/api/v1/pendencies/history", "", middleware.HeaderClientID, "web")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodGet, "/api/v1/pendencies/history", "", middleware.HeaderClientID, "web")
	assert.Empty(t, decodeData[HistoryResponse](t, w).Data.Entries)

	w = do(r, http.MethodGet, "/api/v1/pendencies/history", "", middleware.HeaderClientID, "other")
	assert.Len(t, decodeData[HistoryResponse](t, w).Data.Entries, 1)
}

func TestPendencyHandler_History_StoreDown(t *testing.T) {
	svc := pendencyapp.NewSearchService(nil, nil, zap.NewNop(), pendencyapp.WithHistory(failingHistory{}))
	r := newPendencyRouter(NewPendencyHandler(svc))

	w := do(r, http.MethodGet, "/api/v1/pendencies/history", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeUnavailable)

	w = do(r, http.MethodDelete, "/api/v1/pendencies/history", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPendencyHandler_Providers(t *testing.T) {
	svc := pendencyapp.NewSearchService(
		[]pendency.Provider{
			&stubProvider{code: pendency.ProviderSerasa},
			&stubProvider{code: pendency.ProviderBoaVista},
		},
		pendency.Credentials{pendency.ProviderBoaVista: "k"},
		zap.NewNop(),
	)
	r := newPendencyRouter(NewPendencyHandler(svc))

	w := do(r, http.MethodGet, "/api/v1/pendencies/providers", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []pendencyapp.ProviderInfo{
		{Code: pendency.ProviderSerasa, Name: "Serasa", Configured: false},
		{Code: pendency.ProviderBoaVista, Name: "Boa Vista", Configured: true},
	}, decodeData[ProvidersResponse](t, w).Data.Providers)
}

func TestPendencyHandler_Audits_Disabled(t *testing.T) {
	svc := pendencyapp.NewSearchService(nil, nil, zap.NewNop())
	r := newPendencyRouter(NewPendencyHandler(svc))

	w := do(r, http.MethodGet, "/api/v1/pendencies/audits", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeAuditDisabled)

	w = do(r, http.MethodGet, "/api/v1/pendencies/audits/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPendencyHandler_ListAudits(t *testing.T) {
	repo := new(stubAuditRepository)
	svc := pendencyapp.NewSearchService(nil, nil, zap.NewNop(), pendencyapp.WithAuditRepository(repo))
	r := newPendencyRouter(NewPendencyHandler(svc))

	searchedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	audit := pendency.SearchAudit{
		ID:               uuid.New(),
		RequestID:        "req-1",
		MaskedTaxID:      "*******7735",
		TaxIDKind:        pendency.TaxIDKindCPF,
		RecordCount:      3,
		ProvidersQueried: 2,
		ProvidersFailed:  1,
		Outcomes: []pendency.ProviderOutcome{
			{Provider: pendency.ProviderSerasa, Status: pendency.OutcomeOK, Records: 3, Duration: 120 * time.Millisecond},
			{Provider: pendency.ProviderSPC, Status: pendency.OutcomeFailed, Error: "timeout"},
		},
		Duration:   300 * time.Millisecond,
		SearchedAt: searchedAt,
	}

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	repo.On("FindAll", mock.Anything, mock.MatchedBy(func(f pendency.AuditFilter) bool {
		return f.Page == 2 && f.PageSize == 10 && f.Kind == pendency.TaxIDKindCPF &&
			f.TaxID.Digits() == "11144477735" && f.From != nil && f.From.Equal(from) &&
			f.SortBy == "record_count" && f.SortOrder == "asc"
	})).Return([]pendency.SearchAudit{audit}, int64(11), nil).Once()

	w := do(r, http.MethodGet,
		"/api/v1/pendencies/audits?page=2&page_size=10&kind=CPF&tax_id=111.444.777-35&from=2025-06-01T00:00:00Z&sort_by=record_count&sort_order=asc", "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeData[[]AuditResponse](t, w)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, audit.ID, resp.Data[0].ID)
	assert.Equal(t, int64(300), resp.Data[0].DurationMS)
	assert.Equal(t, int64(120), resp.Data[0].Outcomes[0].DurationMS)
	assert.Equal(t, "timeout", resp.Data[0].Outcomes[1].Error)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(11), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.TotalPages)
	repo.AssertExpectations(t)
}

func TestPendencyHandler_ListAudits_InvalidQuery(t *testing.T) {
	repo := new(stubAuditRepository)
	svc := pendencyapp.NewSearchService(nil, nil, zap.NewNop(), pendencyapp.WithAuditRepository(repo))
	r := newPendencyRouter(NewPendencyHandler(svc))

	for _, q := range []string{"page=-1", "page_size=500", "kind=RG", "tax_id=123", "sort_by=tax_id"} {
		t.Run(q, func(t *testing.T) {
			w := do(r, http.MethodGet, "/api/v1/pendencies/audits?"+q, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	repo.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
}

func TestPendencyHandler_GetAudit(t *testing.T) {
	repo := new(stubAuditRepository)
	svc := pendencyapp.NewSearchService(nil, nil, zap.NewNop(), pendencyapp.WithAuditRepository(repo))
	r := newPendencyRouter(NewPendencyHandler(svc))

	found := &pendency.SearchAudit{ID: uuid.New(), MaskedTaxID: "**********0181", TaxIDKind: pendency.TaxIDKindCNPJ}
	missing := uuid.New()
	repo.On("FindByID", mock.Anything, found.ID).Return(found, nil)
	repo.On("FindByID", mock.Anything, missing).Return(nil, pendency.ErrAuditNotFound)

	w := do(r, http.MethodGet, "/api/v1/pendencies/audits/"+found.ID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pendency.TaxIDKindCNPJ, decodeData[AuditResponse](t, w).Data.Kind)

	w = do(r, http.MethodGet, "/api/v1/pendencies/audits/"+missing.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeAuditNotFound)

	w = do(r, http.MethodGet, "/api/v1/pendencies/audits/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
