package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRedactTaxIDs(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/validate/111.444.777-35", "/validate/[tax-id]"},
		{"/validate/11144477735", "/validate/[tax-id]"},
		{"11.222.333/0001-81", "[tax-id]"},
		{"11222333000181", "[tax-id]"},
		{"page=2&page_size=10", "page=2&page_size=10"},
		{"2025-06-01T00:00:00Z", "2025-06-01T00:00:00Z"},
		{"1234567890", "1234567890"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, RedactTaxIDs(tt.input))
		})
	}
}

func TestSafeQuery(t *testing.T) {
	assert.Empty(t, SafeQuery(""))
	assert.Equal(t, "x=1", SafeQuery("x=1"))

	got := SafeQuery("tax_id=11.222.333%2F0001-81&kind=CNPJ")
	assert.NotContains(t, got, "222")
	assert.Contains(t, got, "kind=CNPJ")
}

func TestSafePath(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var matched string
	router := gin.New()
	router.GET("/validate/:tax_id", func(c *gin.Context) {
		matched = SafePath(c)
		c.Status(http.StatusOK)
	})
	var unmatched string
	router.NoRoute(func(c *gin.Context) {
		unmatched = SafePath(c)
		c.Status(http.StatusNotFound)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/validate/111.444.777-35", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/other/11144477735", nil))

	assert.Equal(t, "/validate/:tax_id", matched)
	assert.Equal(t, "/other/[tax-id]", unmatched)
}
