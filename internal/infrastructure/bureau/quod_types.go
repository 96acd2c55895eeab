package bureau

// QuodResponse is the body of GET /v1/negativacoes
type QuodResponse struct {
	Data []QuodNegativacao `json:"data"`
	Meta QuodMeta          `json:"meta"`
}

// QuodNegativacao is one negative record. Amounts are integer cents.
type QuodNegativacao struct {
	ContractID          string       `json:"contractId"`
	CreditorName        string       `json:"creditorName"`
	Description         string       `json:"description"`
	OriginalAmountCents int64        `json:"originalAmountCents"`
	CurrentAmountCents  *int64       `json:"currentAmountCents,omitempty"`
	DueDate             string       `json:"dueDate"`
	LastUpdated         string       `json:"lastUpdated"`
	Status              string       `json:"status"`
	Kind                string       `json:"kind"`
	CreditorContact     *QuodContact `json:"creditorContact,omitempty"`
}

// QuodContact holds creditor channels
type QuodContact struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

// QuodMeta carries the result count
type QuodMeta struct {
	Count int `json:"count"`
}

// Quod status codes
const (
	QuodStatusCurrent      = "CURRENT"
	QuodStatusOverdue      = "OVERDUE"
	QuodStatusRenegotiated = "RENEGOTIATED"
	QuodStatusLegalAction  = "LEGAL_ACTION"
)

// Quod kind codes
const (
	QuodKindLoan       = "LOAN"
	QuodKindCreditCard = "CREDIT_CARD"
	QuodKindTax        = "TAX"
	QuodKindUtility    = "UTILITY"
	QuodKindOther      = "OTHER"
)
