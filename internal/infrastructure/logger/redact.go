package logger

import (
	"net/url"
	"regexp"

	"github.com/gin-gonic/gin"
)

// RedactedTaxID replaces CPF and CNPJ digits in request paths and queries
const RedactedTaxID = "[tax-id]"

// 11 to 14 digits, optionally punctuated as 111.444.777-35 or 11.222.333/0001-81
var taxIDPattern = regexp.MustCompile(`\d(?:[.\-/]?\d){10,13}`)

// RedactTaxIDs masks every CPF/CNPJ-like digit run in s
func RedactTaxIDs(s string) string {
	return taxIDPattern.ReplaceAllString(s, RedactedTaxID)
}

// SafePath returns the matched route pattern, e.g.
// /api/v1/pendencies/validate/:tax_id, so path parameters never reach logs or
// spans. Unmatched requests fall back to the raw path with tax ids redacted.
func SafePath(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return RedactTaxIDs(c.Request.URL.Path)
}

// SafeQuery redacts tax ids from a raw query string. Values are decoded first
// so percent-encoded separators are caught too.
func SafeQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return RedactTaxIDs(rawQuery)
	}
	for key, vs := range values {
		for i, v := range vs {
			vs[i] = RedactTaxIDs(v)
		}
		values[key] = vs
	}
	return values.Encode()
}
