package sandbox

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/pendencias/backend/internal/domain/pendency"
	"github.com/pendencias/backend/internal/infrastructure/bureau"
)

const (
	isoDate    = "2006-01-02"
	brDate     = "02/01/2006"
	brDateTime = "02/01/2006 15:04:05"

	serasaPageSize = 2
)

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// formatBRL renders cents the way SPC and PGFN do: "1.234,56"
func formatBRL(cents int64) string {
	return brPrinter.Sprint(number.Decimal(float64(cents)/100, number.Scale(2)))
}

func formatDot(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// ---------------------------------------------------------------------------
// Serasa
// ---------------------------------------------------------------------------

func renderSerasa(taxID pendency.TaxID, debts []Debt, page int) bureau.SerasaResponse {
	totalPages := (len(debts) + serasaPageSize - 1) / serasaPageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	start := min((page-1)*serasaPageSize, len(debts))
	end := min(start+serasaPageSize, len(debts))

	items := make([]bureau.SerasaPendency, 0, end-start)
	for _, d := range debts[start:end] {
		p := bureau.SerasaPendency{
			ID: d.ID,
			Creditor: bureau.SerasaCreditor{
				Name:  d.Creditor,
				Phone: d.Phone,
				Email: d.Email,
				Site:  d.Website,
			},
			Description:   d.Description,
			OriginalValue: formatDot(d.OriginalCents),
			UpdatedValue:  formatDot(d.CurrentCents),
			DueDate:       d.DueDate.Format(isoDate),
			UpdatedAt:     d.LastUpdate.Format(time.RFC3339),
			Situation:     serasaSituation(d.Status),
			Category:      serasaCategory(d.Type),
		}
		if d.Installments > 0 {
			p.Offer = &bureau.SerasaOffer{
				Installments:     d.Installments,
				InstallmentValue: formatDot(d.InstallmentCents()),
				TotalValue:       formatDot(d.OfferCents()),
				DiscountPercent:  "15",
			}
		}
		items = append(items, p)
	}

	return bureau.SerasaResponse{
		Document:   taxID.Digits(),
		Pendencies: items,
		Pagination: &bureau.SerasaPagination{Page: page, TotalPages: totalPages},
	}
}

func serasaSituation(s pendency.Status) string {
	switch s {
	case pendency.StatusLate:
		return bureau.SerasaSituationNegative
	case pendency.StatusRenegotiated:
		return bureau.SerasaSituationRenegotiated
	case pendency.StatusLegal:
		return bureau.SerasaSituationLegal
	default:
		return bureau.SerasaSituationCurrent
	}
}

func serasaCategory(t pendency.Type) string {
	switch t {
	case pendency.TypeLoan:
		return bureau.SerasaCategoryLoan
	case pendency.TypeCreditCard:
		return bureau.SerasaCategoryCreditCard
	case pendency.TypeTax:
		return bureau.SerasaCategoryTax
	case pendency.TypeService:
		return bureau.SerasaCategoryService
	default:
		return bureau.SerasaCategoryOther
	}
}

// ---------------------------------------------------------------------------
// SPC
// ---------------------------------------------------------------------------

func renderSPC(taxID pendency.TaxID, debts []Debt, protocol string) bureau.SPCConsulta {
	regs := make([]bureau.SPCRegistro, 0, len(debts))
	for _, d := range debts {
		r := bureau.SPCRegistro{
			Codigo:          d.ID,
			Credor:          d.Creditor,
			TelefoneCredor:  d.Phone,
			EmailCredor:     d.Email,
			Descricao:       d.Description,
			ValorOriginal:   formatBRL(d.OriginalCents),
			ValorAtualizado: formatBRL(d.CurrentCents),
			DataVencimento:  d.DueDate.Format(brDate),
			DataAtualizacao: d.LastUpdate.Format(brDateTime),
			Situacao:        spcSituacao(d.Status),
			Natureza:        spcNatureza(d.Type),
		}
		if d.Installments > 0 {
			r.Proposta = &bureau.SPCProposta{
				Parcelas:     d.Installments,
				ValorParcela: formatBRL(d.InstallmentCents()),
				ValorTotal:   formatBRL(d.OfferCents()),
				Desconto:     "15,0",
			}
		}
		regs = append(regs, r)
	}
	return bureau.SPCConsulta{Documento: taxID.Digits(), Protocolo: protocol, Registros: regs}
}

func spcSituacao(s pendency.Status) string {
	switch s {
	case pendency.StatusLate:
		return bureau.SPCSituacaoInadimplente
	case pendency.StatusRenegotiated:
		return bureau.SPCSituacaoAcordo
	case pendency.StatusLegal:
		return bureau.SPCSituacaoJudicial
	default:
		return bureau.SPCSituacaoRegular
	}
}

func spcNatureza(t pendency.Type) string {
	switch t {
	case pendency.TypeLoan:
		return bureau.SPCNaturezaFinanciamento
	case pendency.TypeCreditCard:
		return bureau.SPCNaturezaCartao
	case pendency.TypeService:
		return bureau.SPCNaturezaServicos
	case pendency.TypeTax:
		return bureau.SPCNaturezaTributo
	default:
		return bureau.SPCNaturezaOutros
	}
}

// ---------------------------------------------------------------------------
// Boa Vista
// ---------------------------------------------------------------------------

func renderBoaVista(debts []Debt) bureau.BoaVistaSearchResponse {
	items := make([]bureau.BoaVistaDebt, 0, len(debts))
	for _, d := range debts {
		item := bureau.BoaVistaDebt{
			DebtID: d.ID,
			Company: bureau.BoaVistaCompany{
				Name: d.Creditor,
				Contact: bureau.BoaVistaContact{
					Phone: d.Phone,
					Email: d.Email,
					URL:   d.Website,
				},
			},
			Product: d.Description,
			Amount: bureau.BoaVistaAmount{
				Original: decimal.New(d.OriginalCents, -2),
				Current:  decimal.New(d.CurrentCents, -2),
			},
			DueDate:    d.DueDate.Format(isoDate),
			LastUpdate: d.LastUpdate.Format(time.RFC3339),
			State:      boaVistaState(d.Status),
		}
		if d.Installments > 0 {
			item.Agreement = &bureau.BoaVistaAgreement{
				Installments:      d.Installments,
				InstallmentAmount: decimal.New(d.InstallmentCents(), -2),
				Total:             decimal.New(d.OfferCents(), -2),
				Discount:          decimal.NewFromInt(15),
			}
		}
		items = append(items, item)
	}
	return bureau.BoaVistaSearchResponse{
		Result: bureau.BoaVistaResult{Total: len(items), Items: items},
	}
}

// boaVistaState renders free text, which the adapter classifies by keyword
func boaVistaState(s pendency.Status) string {
	switch s {
	case pendency.StatusLate:
		return "Em atraso"
	case pendency.StatusRenegotiated:
		return "Renegociada"
	case pendency.StatusLegal:
		return "Cobrança judicial"
	default:
		return "Em dia"
	}
}

// ---------------------------------------------------------------------------
// Quod
// ---------------------------------------------------------------------------

func renderQuod(debts []Debt) bureau.QuodResponse {
	data := make([]bureau.QuodNegativacao, 0, len(debts))
	for _, d := range debts {
		current := d.CurrentCents
		n := bureau.QuodNegativacao{
			ContractID:          d.ID,
			CreditorName:        d.Creditor,
			Description:         d.Description,
			OriginalAmountCents: d.OriginalCents,
			CurrentAmountCents:  &current,
			DueDate:             d.DueDate.Format(isoDate),
			LastUpdated:         d.LastUpdate.Format(time.RFC3339),
			Status:              quodStatus(d.Status),
			Kind:                quodKind(d.Type),
		}
		if d.Phone != "" || d.Email != "" || d.Website != "" {
			n.CreditorContact = &bureau.QuodContact{Phone: d.Phone, Email: d.Email, Website: d.Website}
		}
		data = append(data, n)
	}
	return bureau.QuodResponse{Data: data, Meta: bureau.QuodMeta{Count: len(data)}}
}

func quodStatus(s pendency.Status) string {
	switch s {
	case pendency.StatusLate:
		return bureau.QuodStatusOverdue
	case pendency.StatusRenegotiated:
		return bureau.QuodStatusRenegotiated
	case pendency.StatusLegal:
		return bureau.QuodStatusLegalAction
	default:
		return bureau.QuodStatusCurrent
	}
}

func quodKind(t pendency.Type) string {
	switch t {
	case pendency.TypeLoan:
		return bureau.QuodKindLoan
	case pendency.TypeCreditCard:
		return bureau.QuodKindCreditCard
	case pendency.TypeTax:
		return bureau.QuodKindTax
	case pendency.TypeService:
		return bureau.QuodKindUtility
	default:
		return bureau.QuodKindOther
	}
}

// ---------------------------------------------------------------------------
// PGFN
// ---------------------------------------------------------------------------

// renderPGFN uses Creditor as the revenue name, the real creditor being fixed
func renderPGFN(taxID pendency.TaxID, debts []Debt) bureau.PGFNInscricoes {
	out := make([]bureau.PGFNInscricao, 0, len(debts))
	for _, d := range debts {
		in := bureau.PGFNInscricao{
			Numero:           d.ID,
			Receita:          d.Creditor,
			ValorPrincipal:   formatBRL(d.OriginalCents),
			ValorConsolidado: formatBRL(d.CurrentCents),
			DataVencimento:   d.DueDate.Format(brDate),
			DataInscricao:    d.DueDate.AddDate(0, 6, 0).Format(isoDate),
			DataAtualizacao:  d.LastUpdate.Format(isoDate),
			Situacao:         pgfnSituacao(d.Status),
		}
		if d.Installments > 0 {
			in.Parcelamento = &bureau.PGFNParcelamento{
				Parcelas:           d.Installments,
				ValorParcela:       formatBRL(d.CurrentCents / int64(d.Installments)),
				ValorTotal:         formatBRL(d.CurrentCents),
				PercentualDesconto: "0",
			}
		}
		out = append(out, in)
	}
	return bureau.PGFNInscricoes{NI: taxID.Digits(), Inscricoes: out}
}

func pgfnSituacao(s pendency.Status) string {
	switch s {
	case pendency.StatusLegal:
		return bureau.PGFNSituacaoAjuizada
	case pendency.StatusRenegotiated:
		return bureau.PGFNSituacaoParcelada
	case pendency.StatusRegular:
		return bureau.PGFNSituacaoSuspensa
	default:
		return bureau.PGFNSituacaoAtiva
	}
}
