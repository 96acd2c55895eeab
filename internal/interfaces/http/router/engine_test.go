package router

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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	pendencyapp "github.com/pendencias/backend/internal/application/pendency"
	"github.com/pendencias/backend/internal/domain/pendency"
	"github.com/pendencias/backend/internal/infrastructure/config"
	"github.com/pendencias/backend/internal/interfaces/http/handler"
	"github.com/pendencias/backend/internal/interfaces/http/middleware"
)

type emptyProvider struct{}

func (emptyProvider) Code() pendency.ProviderCode { return pendency.ProviderSerasa }

func (emptyProvider) Fetch(context.Context, pendency.TaxID, string) ([]pendency.DebtRecord, error) {
	return nil, nil
}

func newTestEngine(t *testing.T, mutate func(*EngineConfig), opts ...handler.SystemOption) *gin.Engine {
	t.Helper()

	svc := pendencyapp.NewSearchService(
		[]pendency.Provider{emptyProvider{}},
		pendency.Credentials{pendency.ProviderSerasa: "k"},
		zaptest.NewLogger(t),
	)
	cfg := EngineConfig{
		Logger: zaptest.NewLogger(t),
		HTTP: config.HTTPConfig{
			MaxBodySize:      1024,
			CORSAllowOrigins: []string{"http://app.example"},
		},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	engine, _, err := NewEngine(cfg, Handlers{
		Pendency: handler.NewPendencyHandler(svc),
		System:   handler.NewSystemHandler(opts...),
	})
	require.NoError(t, err)
	return engine
}

func request(engine *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestNewEngine_Routes(t *testing.T) {
	engine := newTestEngine(t, nil)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/api/v1/system/ping", "", http.StatusOK},
		{http.MethodGet, "/api/v1/system/info", "", http.StatusOK},
		{http.MethodGet, "/api/v1/pendencies/validate/11144477735", "", http.StatusOK},
		{http.MethodGet, "/api/v1/pendencies/providers", "", http.StatusOK},
		{http.MethodGet, "/api/v1/pendencies/history", "", http.StatusOK},
		{http.MethodDelete, "/api/v1/pendencies/history", "", http.StatusNoContent},
		{http.MethodPost, "/api/v1/pendencies/search", `{"tax_id":"11144477735"}`, http.StatusOK},
		{http.MethodPost, "/api/v1/pendencies/search", `{"tax_id":"11144477736"}`, http.StatusUnprocessableEntity},
		{http.MethodGet, "/api/v1/pendencies/audits", "", http.StatusNotFound},
		{http.MethodGet, "/swagger/index.html", "", http.StatusNotFound},
		{http.MethodGet, "/api/v1/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := request(engine, tt.method, tt.path, tt.body, nil)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
		})
	}
}

func TestNewEngine_GlobalMiddleware(t *testing.T) {
	engine := newTestEngine(t, nil)

	w := request(engine, http.MethodGet, "/api/v1/system/ping", "", map[string]string{
		"Origin":                   "http://app.example",
		middleware.HeaderRequestID: "trace-me",
	})

	assert.Equal(t, "trace-me", w.Header().Get(middleware.HeaderRequestID))
	assert.Equal(t, "http://app.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestNewEngine_BodyLimit(t *testing.T) {
	engine := newTestEngine(t, nil)

	body := `{"tax_id":"` + strings.Repeat("1", 2048) + `"}`
	w := request(engine, http.MethodPost, "/api/v1/pendencies/search", body, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestNewEngine_RateLimitScopedToPendencies(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Minute)
	t.Cleanup(limiter.Stop)
	engine := newTestEngine(t, func(cfg *EngineConfig) { cfg.RateLimiter = limiter })

	headers := map[string]string{middleware.HeaderClientID: "cli"}
	assert.Equal(t, http.StatusOK, request(engine, http.MethodGet, "/api/v1/pendencies/providers", "", headers).Code)
	assert.Equal(t, http.StatusTooManyRequests, request(engine, http.MethodGet, "/api/v1/pendencies/providers", "", headers).Code)
	assert.Equal(t, http.StatusOK, request(engine, http.MethodGet, "/api/v1/system/ping", "", headers).Code)
	assert.Equal(t, http.StatusOK, request(engine, http.MethodGet, "/health", "", headers).Code)
}

func TestNewEngine_HealthReportsDependencies(t *testing.T) {
	engine := newTestEngine(t, nil,
		handler.WithHealthCheck("database", func(context.Context) error { return errors.New("down") }),
	)

	w := request(engine, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body handler.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
}

func TestNewEngine_InvalidTrustedProxies(t *testing.T) {
	_, _, err := NewEngine(EngineConfig{HTTP: config.HTTPConfig{TrustedProxies: []string{"not-a-cidr"}}}, Handlers{})
	assert.Error(t, err)
}
