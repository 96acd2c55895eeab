package pendency

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

// Status is the collection state of a debt
type Status string

const (
	StatusRegular      Status = "regular"
	StatusLate         Status = "late"
	StatusRenegotiated Status = "renegotiated"
	StatusLegal        Status = "legal"
)

// ParseStatus maps a value onto the closed status set. Anything unknown is regular.
func ParseStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusLate:
		return StatusLate
	case StatusRenegotiated:
		return StatusRenegotiated
	case StatusLegal:
		return StatusLegal
	default:
		return StatusRegular
	}
}

// IsValid returns true if the status belongs to the closed set
func (s Status) IsValid() bool {
	switch s {
	case StatusRegular, StatusLate, StatusRenegotiated, StatusLegal:
		return true
	}
	return false
}

// Priority ranks statuses for sorting: late > legal > renegotiated > regular
func (s Status) Priority() int {
	switch s {
	case StatusLate:
		return 4
	case StatusLegal:
		return 3
	case StatusRenegotiated:
		return 2
	case StatusRegular:
		return 1
	default:
		return 0
	}
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Type
// ---------------------------------------------------------------------------

// Type classifies the origin of a debt
type Type string

const (
	TypeLoan       Type = "loan"
	TypeCreditCard Type = "credit_card"
	TypeTax        Type = "tax"
	TypeService    Type = "service"
	TypeOther      Type = "other"
)

// ParseType maps a value onto the closed type set. Anything unknown is other.
func ParseType(s string) Type {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeLoan:
		return TypeLoan
	case TypeCreditCard:
		return TypeCreditCard
	case TypeTax:
		return TypeTax
	case TypeService:
		return TypeService
	default:
		return TypeOther
	}
}

// IsValid returns true if the type belongs to the closed set
func (t Type) IsValid() bool {
	switch t {
	case TypeLoan, TypeCreditCard, TypeTax, TypeService, TypeOther:
		return true
	}
	return false
}

// String returns the string representation
func (t Type) String() string {
	return string(t)
}

// ---------------------------------------------------------------------------
// DebtRecord
// ---------------------------------------------------------------------------

// Contact is how a debtor can reach the creditor
type Contact struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

// IsEmpty returns true when no contact channel is set
func (c Contact) IsEmpty() bool {
	return c.Phone == "" && c.Email == "" && c.Website == ""
}

// PaymentOptions describes a settlement offer attached to a debt
type PaymentOptions struct {
	Installments      int             `json:"installments"`
	InstallmentAmount decimal.Decimal `json:"installment_amount"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	DiscountPercent   decimal.Decimal `json:"discount_percent"`
}

// DebtRecord is a pendency normalized from one provider payload.
// Records exist only for the duration of a search.
type DebtRecord struct {
	ID             string          `json:"id"`
	Creditor       string          `json:"creditor"`
	Description    string          `json:"description"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	CurrentAmount  decimal.Decimal `json:"current_amount"`
	DueDate        time.Time       `json:"due_date"`
	LastUpdate     time.Time       `json:"last_update"`
	Status         Status          `json:"status"`
	Type           Type            `json:"type"`
	Source         string          `json:"source"`
	Contact        *Contact        `json:"contact,omitempty"`
	PaymentOptions *PaymentOptions `json:"payment_options,omitempty"`
}

// Normalize enforces the record invariants in place: amounts are never
// negative, enums are closed and a missing LastUpdate takes fetchedAt.
// It returns false when the record cannot be kept (no creditor or no due date).
func (r *DebtRecord) Normalize(fetchedAt time.Time) bool {
	r.Creditor = strings.TrimSpace(r.Creditor)
	if r.Creditor == "" || r.DueDate.IsZero() {
		return false
	}
	if r.OriginalAmount.IsNegative() {
		r.OriginalAmount = decimal.Zero
	}
	if r.CurrentAmount.IsNegative() {
		r.CurrentAmount = decimal.Zero
	}
	if r.LastUpdate.IsZero() {
		r.LastUpdate = fetchedAt
	}
	if !r.Status.IsValid() {
		r.Status = ParseStatus(string(r.Status))
	}
	if !r.Type.IsValid() {
		r.Type = ParseType(string(r.Type))
	}
	if r.Contact != nil && r.Contact.IsEmpty() {
		r.Contact = nil
	}
	if r.PaymentOptions != nil && r.PaymentOptions.Installments <= 0 {
		r.PaymentOptions = nil
	}
	return true
}

// IsOverdue returns true if the due date is before now and the debt is still owed
func (r *DebtRecord) IsOverdue(now time.Time) bool {
	return r.DueDate.Before(now) && r.CurrentAmount.IsPositive()
}

// dedupKey identifies records considered to be the same debt. The due date
// is keyed as UTC RFC3339Nano.
func (r *DebtRecord) dedupKey() string {
	return r.Creditor + "|" + r.OriginalAmount.String() + "|" + r.DueDate.UTC().Format(time.RFC3339Nano)
}

// TotalCurrentAmount sums the current amount of records
func TotalCurrentAmount(records []DebtRecord) decimal.Decimal {
	total := decimal.Zero
	for i := range records {
		total = total.Add(records[i].CurrentAmount)
	}
	return total
}
