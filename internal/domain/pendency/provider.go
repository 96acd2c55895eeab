package pendency

import (
	"context"
	"strings"
)

// ---------------------------------------------------------------------------
// ProviderCode
// ---------------------------------------------------------------------------

// ProviderCode identifies a pendency data source
type ProviderCode string

const (
	// ProviderSerasa represents the Serasa Experian bureau
	ProviderSerasa ProviderCode = "SERASA"
	// ProviderSPC represents the SPC Brasil bureau
	ProviderSPC ProviderCode = "SPC"
	// ProviderBoaVista represents the Boa Vista SCPC bureau
	ProviderBoaVista ProviderCode = "BOA_VISTA"
	// ProviderQuod represents the Quod positive-credit bureau
	ProviderQuod ProviderCode = "QUOD"
	// ProviderPGFN represents the federal tax debt registry (Dívida Ativa da União)
	ProviderPGFN ProviderCode = "PGFN"
)

// AllProviders lists every known provider in registration order
func AllProviders() []ProviderCode {
	return []ProviderCode{ProviderSerasa, ProviderSPC, ProviderBoaVista, ProviderQuod, ProviderPGFN}
}

// ParseProviderCode accepts codes case-insensitively, with '-' or ' ' in place of '_'
func ParseProviderCode(s string) (ProviderCode, error) {
	code := ProviderCode(strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(strings.TrimSpace(s))))
	if !code.IsValid() {
		return "", ErrUnknownProvider
	}
	return code, nil
}

// IsValid returns true if the provider code is known
func (c ProviderCode) IsValid() bool {
	switch c {
	case ProviderSerasa, ProviderSPC, ProviderBoaVista, ProviderQuod, ProviderPGFN:
		return true
	}
	return false
}

// String returns the string representation
func (c ProviderCode) String() string {
	return string(c)
}

// DisplayName returns the label shown as a record source
func (c ProviderCode) DisplayName() string {
	switch c {
	case ProviderSerasa:
		return "Serasa"
	case ProviderSPC:
		return "SPC Brasil"
	case ProviderBoaVista:
		return "Boa Vista"
	case ProviderQuod:
		return "Quod"
	case ProviderPGFN:
		return "PGFN"
	default:
		return string(c)
	}
}

// ---------------------------------------------------------------------------
// Provider port
// ---------------------------------------------------------------------------

// Provider fetches the pendencies one data source holds for a tax id.
// Implementations return normalized records; an empty credential is never
// passed to Fetch.
type Provider interface {
	Code() ProviderCode
	Fetch(ctx context.Context, taxID TaxID, credential string) ([]DebtRecord, error)
}

// Credentials maps provider codes to API keys
type Credentials map[ProviderCode]string

// Lookup returns the trimmed key for code
func (c Credentials) Lookup(code ProviderCode) (string, bool) {
	key := strings.TrimSpace(c[code])
	return key, key != ""
}

// Merge returns a copy of c overridden by the non-empty keys of other
func (c Credentials) Merge(other Credentials) Credentials {
	out := make(Credentials, len(c)+len(other))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range other {
		if strings.TrimSpace(v) != "" {
			out[k] = v
		}
	}
	return out
}
