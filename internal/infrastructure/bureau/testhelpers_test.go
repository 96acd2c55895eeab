package bureau

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pendencias/backend/internal/domain/pendency"
)

var (
	testTaxID     = pendency.MustParseTaxID("111.444.777-35")
	testFetchedAt = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
)

// testConfig returns a fast-retrying configuration pointing at server
func testConfig(server *httptest.Server) *ClientConfig {
	cfg := NewClientConfig(server.URL)
	cfg.Timeout = 2 * time.Second
	cfg.RetryInitialInterval = time.Millisecond
	cfg.RetryMaxInterval = 5 * time.Millisecond
	return cfg
}

func testOptions(server *httptest.Server) []Option {
	return []Option{
		WithHTTPClient(server.Client()),
		WithClock(func() time.Time { return testFetchedAt }),
	}
}

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}
