package bureau

import "github.com/shopspring/decimal"

// BoaVistaSearchRequest is the body of POST /api/v2/debts/search
type BoaVistaSearchRequest struct {
	CPFCNPJ string `json:"cpfCnpj"`
}

// BoaVistaSearchResponse wraps the search result
type BoaVistaSearchResponse struct {
	Result BoaVistaResult `json:"result"`
}

// BoaVistaResult lists the debts found
type BoaVistaResult struct {
	Total int            `json:"total"`
	Items []BoaVistaDebt `json:"items"`
}

// BoaVistaDebt is one debt. State and Product are free text.
type BoaVistaDebt struct {
	DebtID     string             `json:"debtId"`
	Company    BoaVistaCompany    `json:"company"`
	Product    string             `json:"product"`
	Amount     BoaVistaAmount     `json:"amount"`
	DueDate    string             `json:"dueDate"`
	LastUpdate string             `json:"lastUpdate"`
	State      string             `json:"state"`
	Agreement  *BoaVistaAgreement `json:"agreement,omitempty"`
}

// BoaVistaCompany is the creditor
type BoaVistaCompany struct {
	Name    string          `json:"name"`
	Contact BoaVistaContact `json:"contact"`
}

// BoaVistaContact holds creditor channels
type BoaVistaContact struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
	URL   string `json:"url,omitempty"`
}

// BoaVistaAmount holds JSON-number amounts
type BoaVistaAmount struct {
	Original decimal.Decimal `json:"original"`
	Current  decimal.Decimal `json:"current"`
}

// BoaVistaAgreement is a negotiation offer
type BoaVistaAgreement struct {
	Installments      int             `json:"installments"`
	InstallmentAmount decimal.Decimal `json:"installmentAmount"`
	Total             decimal.Decimal `json:"total"`
	Discount          decimal.Decimal `json:"discount"`
}
