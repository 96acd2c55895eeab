// Package sandbox serves fake bureau APIs for local development and tests.
// Responses are derived from the queried document so the same tax id always
// yields the same debts, and debts shared between bureaus exercise dedup.
package sandbox

import (
	"hash/fnv"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/pendencias/backend/internal/domain/pendency"
)

// Debt is a bureau-neutral generated debt
type Debt struct {
	ID            string
	Creditor      string
	Description   string
	Status        pendency.Status
	Type          pendency.Type
	OriginalCents int64
	CurrentCents  int64
	DueDate       time.Time
	LastUpdate    time.Time
	Phone         string
	Email         string
	Website       string
	Installments  int
}

// InstallmentCents returns the value of each installment of the offer
func (d Debt) InstallmentCents() int64 {
	if d.Installments <= 0 {
		return 0
	}
	return d.OfferCents() / int64(d.Installments)
}

// OfferCents returns the settlement total, 15% off the current amount
func (d Debt) OfferCents() int64 {
	return d.CurrentCents * 85 / 100
}

// Generator derives debts from a tax id
type Generator struct {
	seed uint64
	now  func() time.Time
}

// NewGenerator creates a generator. now anchors generated dates.
func NewGenerator(seed uint64, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{seed: seed, now: now}
}

var descriptions = map[pendency.Type][]string{
	pendency.TypeLoan:       {"Emprestimo pessoal", "Financiamento de veiculo", "Credito consignado"},
	pendency.TypeCreditCard: {"Cartao de credito", "Fatura cartao internacional"},
	pendency.TypeService:    {"Conta de energia", "Internet banda larga", "Telefonia movel", "Mensalidade escolar"},
	pendency.TypeOther:      {"Crediario loja", "Cheque devolvido"},
}

var privateTypes = []pendency.Type{
	pendency.TypeLoan, pendency.TypeCreditCard, pendency.TypeService, pendency.TypeOther,
}

var statuses = []pendency.Status{
	pendency.StatusRegular, pendency.StatusLate, pendency.StatusLate,
	pendency.StatusRenegotiated, pendency.StatusLegal,
}

var taxRevenues = []string{"IRPF", "IRPJ", "COFINS", "Simples Nacional", "Multa trabalhista"}

// Profile returns the private-sector debts of taxID, before any bureau picks them
func (g *Generator) Profile(taxID pendency.TaxID) []Debt {
	f := gofakeit.New(g.seedFor(taxID.Digits(), "profile"))
	today := g.today()

	n := f.IntRange(0, 5)
	debts := make([]Debt, 0, n)
	for i := 0; i < n; i++ {
		typ := privateTypes[f.IntRange(0, len(privateTypes)-1)]
		original := int64(f.IntRange(2_000, 2_500_000))
		status := statuses[f.IntRange(0, len(statuses)-1)]
		d := Debt{
			ID:            taxID.Digits()[:4] + "-" + strconv.Itoa(i+1),
			Creditor:      f.Company(),
			Description:   f.RandomString(descriptions[typ]),
			Status:        status,
			Type:          typ,
			OriginalCents: original,
			CurrentCents:  original + original*int64(f.IntRange(0, 60))/100,
			DueDate:       today.AddDate(0, 0, -f.IntRange(15, 1200)),
			LastUpdate:    today.AddDate(0, 0, -f.IntRange(0, 14)),
		}
		if f.Bool() {
			d.Phone = f.Numerify("0800 ### ####")
		}
		if f.Bool() {
			d.Email = "cobranca@" + f.DomainName()
			d.Website = "https://" + f.DomainName()
		}
		if status == pendency.StatusLate || status == pendency.StatusRenegotiated {
			d.Installments = f.RandomInt([]int{0, 3, 6, 10, 12})
		}
		debts = append(debts, d)
	}
	return debts
}

// Debts returns what the bureau identified by code reports for taxID.
// Private bureaus each see a subset of the profile; PGFN reports tax debts only.
func (g *Generator) Debts(taxID pendency.TaxID, code pendency.ProviderCode) []Debt {
	if code == pendency.ProviderPGFN {
		return g.taxDebts(taxID)
	}

	f := gofakeit.New(g.seedFor(taxID.Digits(), code.String()))
	profile := g.Profile(taxID)
	out := make([]Debt, 0, len(profile))
	for _, d := range profile {
		if f.IntRange(0, 99) < 70 {
			out = append(out, d)
		}
	}
	return out
}

func (g *Generator) taxDebts(taxID pendency.TaxID) []Debt {
	f := gofakeit.New(g.seedFor(taxID.Digits(), pendency.ProviderPGFN.String()))
	today := g.today()

	n := f.IntRange(0, 2)
	debts := make([]Debt, 0, n)
	for i := 0; i < n; i++ {
		original := int64(f.IntRange(50_000, 9_000_000))
		status := f.RandomString([]string{
			string(pendency.StatusLate), string(pendency.StatusLegal), string(pendency.StatusRenegotiated),
		})
		d := Debt{
			ID:            f.Numerify("80 # ## ######-##"),
			Creditor:      f.RandomString(taxRevenues),
			Status:        pendency.Status(status),
			Type:          pendency.TypeTax,
			OriginalCents: original,
			CurrentCents:  original + original*int64(f.IntRange(10, 90))/100,
			DueDate:       today.AddDate(0, 0, -f.IntRange(90, 2500)),
			LastUpdate:    today.AddDate(0, 0, -f.IntRange(0, 30)),
		}
		if d.Status == pendency.StatusRenegotiated {
			d.Installments = 60
		}
		debts = append(debts, d)
	}
	return debts
}

// today truncates the clock to midnight UTC so dates are stable through the day
func (g *Generator) today() time.Time {
	y, m, d := g.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (g *Generator) seedFor(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64() ^ g.seed
}
