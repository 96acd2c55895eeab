package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendencias/backend/internal/interfaces/http/dto"
)

func TestNewSystemHandler(t *testing.T) {
	h := NewSystemHandler()
	assert.NotNil(t, h)
	assert.False(t, h.startTime.IsZero())
	assert.Equal(t, "Pendency API", h.name)
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler(WithVersion("Pendency API", "2.3.0"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/system/info", nil)

	h.GetSystemInfo(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "Pendency API", data["name"])
	assert.Equal(t, "2.3.0", data["version"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}

func TestSystemHandler_Ping(t *testing.T) {
	h := NewSystemHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/system/ping", nil)

	h.Ping(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, "pong", data["message"])

	_, err := time.Parse(time.RFC3339, data["timestamp"].(string))
	assert.NoError(t, err)
}

func TestSystemHandler_Health(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		opts       []SystemOption
		wantStatus int
		want       HealthResponse
	}{
		{
			name:       "no dependencies",
			wantStatus: http.StatusOK,
			want:       HealthResponse{Status: "healthy"},
		},
		{
			name:       "all healthy",
			opts:       []SystemOption{WithHealthCheck("history", ok), WithHealthCheck("database", ok)},
			wantStatus: http.StatusOK,
			want:       HealthResponse{Status: "healthy", Checks: map[string]string{"history": "ok", "database": "ok"}},
		},
		{
			name:       "database down",
			opts:       []SystemOption{WithHealthCheck("history", ok), WithHealthCheck("database", down)},
			wantStatus: http.StatusServiceUnavailable,
			want:       HealthResponse{Status: "unhealthy", Checks: map[string]string{"history": "ok", "database": "unavailable"}},
		},
		{
			name:       "nil check ignored",
			opts:       []SystemOption{WithHealthCheck("database", nil)},
			wantStatus: http.StatusOK,
			want:       HealthResponse{Status: "healthy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandler(tt.opts...)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

			h.Health(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			var got HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSystemHandler_HealthCheckTimeout(t *testing.T) {
	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	h := NewSystemHandler(WithHealthCheck("history", slow))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil).WithContext(ctx)

	h.Health(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
