package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSWithConfig(t *testing.T) {
	tests := []struct {
		name            string
		origins         []string
		method          string
		origin          string
		wantStatus      int
		wantAllowOrigin string
	}{
		{"empty whitelist ignores cross-origin", nil, http.MethodGet, "http://evil.example", http.StatusOK, ""},
		{"same-origin passes", nil, http.MethodGet, "", http.StatusOK, ""},
		{"preflight with empty whitelist", nil, http.MethodOptions, "http://a.example", http.StatusNoContent, ""},
		{"allowed origin echoed", []string{"http://app.example"}, http.MethodGet, "http://app.example", http.StatusOK, "http://app.example"},
		{"unlisted origin ignored", []string{"http://app.example"}, http.MethodGet, "http://other.example", http.StatusOK, ""},
		{"wildcard", []string{"*"}, http.MethodGet, "http://any.example", http.StatusOK, "*"},
		{"preflight allowed", []string{"http://app.example"}, http.MethodOptions, "http://app.example", http.StatusNoContent, "http://app.example"},
		{"preflight disallowed", []string{"http://app.example"}, http.MethodOptions, "http://other.example", http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCORSConfig()
			cfg.AllowOrigins = tt.origins

			r := gin.New()
			r.Use(CORSWithConfig(cfg))
			r.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := serve(r, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantAllowOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORSWithConfig_Headers(t *testing.T) {
	cfg := CORSConfig{
		AllowOrigins:     []string{"http://app.example"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Content-Type", HeaderClientID},
		ExposeHeaders:    []string{HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r := gin.New()
	r.Use(CORSWithConfig(cfg))
	r.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "http://app.example")
	w := serve(r, req)

	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, X-Client-ID", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "X-Request-ID", w.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
}

func TestDefaultCORSConfig(t *testing.T) {
	cfg := DefaultCORSConfig()

	assert.Empty(t, cfg.AllowOrigins)
	assert.Contains(t, cfg.AllowMethods, "DELETE")
	assert.Contains(t, cfg.AllowHeaders, HeaderClientID)
	assert.NotContains(t, cfg.AllowHeaders, "Authorization")
	assert.False(t, cfg.AllowCredentials)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"generated when absent", "", false},
		{"caller id kept", "req-123_abc.def:1", true},
		{"unsafe id replaced", "bad id\r\n", false},
		{"oversized id replaced", strings.Repeat("a", MaxRequestIDLength+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set(HeaderRequestID, tt.header)
			}
			w := serve(r, req)

			got := w.Header().Get(HeaderRequestID)
			assert.NotEmpty(t, got)
			assert.Equal(t, got, w.Body.String())
			if tt.keep {
				assert.Equal(t, tt.header, got)
			} else {
				assert.NotEqual(t, tt.header, got)
				assert.Len(t, got, 36)
			}
		})
	}
}

func TestClientIdentity(t *testing.T) {
	r := gin.New()
	r.Use(ClientIdentity())
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"client": GetClientID(c), "owner": GetHistoryOwner(c)})
	})

	t.Run("client header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(HeaderClientID, "mobile-app")
		w := serve(r, req)
		assert.JSONEq(t, `{"client":"mobile-app","owner":"client:mobile-app"}`, w.Body.String())
	})

	t.Run("falls back to IP", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		w := serve(r, req)
		assert.JSONEq(t, `{"client":"","owner":"ip:203.0.113.7"}`, w.Body.String())
	})

	t.Run("invalid header ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "203.0.113.8:5555"
		req.Header.Set(HeaderClientID, "has space")
		w := serve(r, req)
		assert.JSONEq(t, `{"client":"","owner":"ip:203.0.113.8"}`, w.Body.String())
	})
}

func TestSecureWithConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		r := gin.New()
		r.Use(Secure())
		r.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

		w := serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Contains(t, w.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
		assert.Contains(t, w.Header().Get("Permissions-Policy"), "camera=()")
		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("hsts", func(t *testing.T) {
		cfg := DefaultSecurityConfig()
		cfg.HSTSEnabled = true
		cfg.HSTSPreload = true
		r := gin.New()
		r.Use(SecureWithConfig(cfg))
		r.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

		w := serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, "max-age=31536000; includeSubDomains; preload", w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("all optional headers off", func(t *testing.T) {
		r := gin.New()
		r.Use(SecureWithConfig(SecurityConfig{}))
		r.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

		w := serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Empty(t, w.Header().Get("Content-Security-Policy"))
		assert.Empty(t, w.Header().Get("Permissions-Policy"))
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	})
}
