package pendency

import (
	"strings"
)

// TaxIDKind distinguishes individuals (CPF) from organizations (CNPJ)
type TaxIDKind string

const (
	TaxIDKindCPF  TaxIDKind = "CPF"
	TaxIDKindCNPJ TaxIDKind = "CNPJ"
)

const (
	cpfLength  = 11
	cnpjLength = 14
)

var (
	cpfFirstWeights   = []int{10, 9, 8, 7, 6, 5, 4, 3, 2}
	cpfSecondWeights  = []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjFirstWeights  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjSecondWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// TaxID is a checksum-validated Brazilian tax identifier.
// The zero value is not valid; obtain one through ParseTaxID.
type TaxID struct {
	digits string
	kind   TaxIDKind
}

// ParseTaxID normalizes raw and validates it as a CPF or a CNPJ.
// Punctuation and whitespace are ignored.
func ParseTaxID(raw string) (TaxID, error) {
	digits := NormalizeTaxID(raw)
	switch {
	case IsValidCPF(digits):
		return TaxID{digits: digits, kind: TaxIDKindCPF}, nil
	case IsValidCNPJ(digits):
		return TaxID{digits: digits, kind: TaxIDKindCNPJ}, nil
	default:
		return TaxID{}, ErrInvalidTaxID
	}
}

// MustParseTaxID is like ParseTaxID but panics on invalid input.
// Intended for tests and constants.
func MustParseTaxID(raw string) TaxID {
	id, err := ParseTaxID(raw)
	if err != nil {
		panic("pendency: invalid tax id " + raw)
	}
	return id
}

// IsValidTaxID reports whether raw is a valid CPF or CNPJ after normalization
func IsValidTaxID(raw string) bool {
	_, err := ParseTaxID(raw)
	return err == nil
}

// NormalizeTaxID strips every non-digit character
func NormalizeTaxID(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidCPF validates an already-normalized 11-digit individual identifier
func IsValidCPF(digits string) bool {
	if len(digits) != cpfLength || allSameDigit(digits) {
		return false
	}
	return checkDigit(digits[:9], cpfFirstWeights) == int(digits[9]-'0') &&
		checkDigit(digits[:10], cpfSecondWeights) == int(digits[10]-'0')
}

// IsValidCNPJ validates an already-normalized 14-digit organization identifier
func IsValidCNPJ(digits string) bool {
	if len(digits) != cnpjLength || allSameDigit(digits) {
		return false
	}
	return checkDigit(digits[:12], cnpjFirstWeights) == int(digits[12]-'0') &&
		checkDigit(digits[:13], cnpjSecondWeights) == int(digits[13]-'0')
}

// checkDigit computes a mod-11 verification digit
func checkDigit(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}

func allSameDigit(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}

// Digits returns the normalized identifier
func (t TaxID) Digits() string {
	return t.digits
}

// Kind returns whether the identifier is a CPF or a CNPJ
func (t TaxID) Kind() TaxIDKind {
	return t.kind
}

// IsZero reports whether t was never parsed
func (t TaxID) IsZero() bool {
	return t.digits == ""
}

// Formatted returns the conventional punctuation: 000.000.000-00 or 00.000.000/0000-00
func (t TaxID) Formatted() string {
	d := t.digits
	switch t.kind {
	case TaxIDKindCPF:
		return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
	case TaxIDKindCNPJ:
		return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:14]
	default:
		return d
	}
}

// Masked hides everything but the last four digits. Use it in logs and audit rows.
func (t TaxID) Masked() string {
	if len(t.digits) < 4 {
		return strings.Repeat("*", len(t.digits))
	}
	return strings.Repeat("*", len(t.digits)-4) + t.digits[len(t.digits)-4:]
}

// String returns the masked form so a TaxID never leaks through %v
func (t TaxID) String() string {
	return t.Masked()
}
