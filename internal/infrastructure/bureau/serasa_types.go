package bureau

// SerasaResponse is the body of GET /v1/consumers/{document}/pendencies
type SerasaResponse struct {
	Document   string            `json:"document"`
	Pendencies []SerasaPendency  `json:"pendencies"`
	Pagination *SerasaPagination `json:"pagination,omitempty"`
}

// SerasaPendency is one negative record
type SerasaPendency struct {
	ID            string         `json:"id"`
	Creditor      SerasaCreditor `json:"creditor"`
	Description   string         `json:"description"`
	OriginalValue string         `json:"originalValue"`
	UpdatedValue  string         `json:"updatedValue"`
	DueDate       string         `json:"dueDate"`
	UpdatedAt     string         `json:"updatedAt"`
	Situation     string         `json:"situation"`
	Category      string         `json:"category"`
	Offer         *SerasaOffer   `json:"offer,omitempty"`
}

// SerasaCreditor identifies who registered the pendency
type SerasaCreditor struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
	Site  string `json:"site,omitempty"`
}

// SerasaOffer is a settlement offer ("Limpa Nome")
type SerasaOffer struct {
	Installments     int    `json:"installments"`
	InstallmentValue string `json:"installmentValue"`
	TotalValue       string `json:"totalValue"`
	DiscountPercent  string `json:"discountPercent"`
}

// SerasaPagination is present when more pages exist
type SerasaPagination struct {
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}

// Serasa situation codes
const (
	SerasaSituationCurrent      = "EM_DIA"
	SerasaSituationLate         = "ATRASADO"
	SerasaSituationNegative     = "NEGATIVADO"
	SerasaSituationRenegotiated = "RENEGOCIADO"
	SerasaSituationLegal        = "JUDICIAL"
)

// Serasa category codes
const (
	SerasaCategoryLoan       = "EMPRESTIMO"
	SerasaCategoryCreditCard = "CARTAO_CREDITO"
	SerasaCategoryTax        = "TRIBUTO"
	SerasaCategoryService    = "SERVICO"
	SerasaCategoryOther      = "OUTROS"
)
