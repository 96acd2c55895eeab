package bureau

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pendencias/backend/internal/domain/pendency"
)

// saoPaulo is the zone date-only provider fields are expressed in
var saoPaulo = loadLocation("America/Sao_Paulo", -3*60*60)

func loadLocation(name string, fallbackOffset int) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("BRT", fallbackOffset)
	}
	return loc
}

// foldText lowercases s and strips diacritics: "Cartão de Crédito" -> "cartao de credito"
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// classifyStatus maps free-text Portuguese collection states
func classifyStatus(text string) pendency.Status {
	s := foldText(text)
	switch {
	case s == "":
		return pendency.StatusRegular
	case containsAny(s, "judicial", "ajuizad", "protest", "execucao", "cobranca judicial"):
		return pendency.StatusLegal
	case containsAny(s, "renegoci", "negociac", "acordo", "parcelad"):
		return pendency.StatusRenegotiated
	case containsAny(s, "atras", "vencid", "inadimpl", "negativad", "em aberto"):
		return pendency.StatusLate
	default:
		return pendency.ParseStatus(s)
	}
}

// classifyType maps free-text Portuguese product names
func classifyType(text string) pendency.Type {
	s := foldText(text)
	switch {
	case s == "":
		return pendency.TypeOther
	case containsAny(s, "cartao"):
		return pendency.TypeCreditCard
	case containsAny(s, "emprestimo", "financiamento", "consignado", "credito pessoal", "cheque especial"):
		return pendency.TypeLoan
	case containsAny(s, "imposto", "tributo", "iptu", "ipva", "irpf", "irpj", "taxa", "multa"):
		return pendency.TypeTax
	case containsAny(s, "servico", "telefon", "internet", "energia", "agua", "luz", "gas", "escola", "plano de saude"):
		return pendency.TypeService
	default:
		return pendency.ParseType(s)
	}
}

// parseBRLAmount parses Brazilian formatted numbers: "1.234,56", "R$ 10,00", "15"
func parseBRLAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}

// parseDecimal parses a dot-decimal string, empty meaning zero
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// centsToDecimal converts an integer amount in cents
func centsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// parseTime tries RFC3339 first, then each date-only layout in the Sao Paulo zone.
// Empty input yields the zero time without error.
func parseTime(s string, layouts ...string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, s, saoPaulo)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		_, lastErr = time.Parse(time.RFC3339, s)
	}
	return time.Time{}, lastErr
}

const (
	layoutISODate    = "2006-01-02"
	layoutBRDate     = "02/01/2006"
	layoutBRDateTime = "02/01/2006 15:04:05"
)

func contactOrNil(phone, email, website string) *pendency.Contact {
	c := pendency.Contact{
		Phone:   strings.TrimSpace(phone),
		Email:   strings.TrimSpace(email),
		Website: strings.TrimSpace(website),
	}
	if c.IsEmpty() {
		return nil
	}
	return &c
}
