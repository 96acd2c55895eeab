package bureau

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/pendencias/backend/internal/domain/pendency"
	"github.com/pendencias/backend/internal/infrastructure/logger"
)

// SPCAdapter implements pendency.Provider for SPC Brasil.
// SPC answers in XML with Brazilian number and date formats.
type SPCAdapter struct {
	client *client
}

// NewSPCAdapter creates a new SPC adapter
func NewSPCAdapter(cfg *ClientConfig, opts ...Option) (*SPCAdapter, error) {
	c, err := newClient(pendency.ProviderSPC, cfg, opts)
	if err != nil {
		return nil, err
	}
	return &SPCAdapter{client: c}, nil
}

// Code implements pendency.Provider
func (a *SPCAdapter) Code() pendency.ProviderCode {
	return pendency.ProviderSPC
}

// Fetch implements pendency.Provider
func (a *SPCAdapter) Fetch(ctx context.Context, taxID pendency.TaxID, credential string) ([]pendency.DebtRecord, error) {
	q := url.Values{}
	q.Set("documento", taxID.Digits())
	q.Set("tipo", string(taxID.Kind()))
	endpoint := a.client.url("/ws/consulta?" + q.Encode())

	resp, err := a.client.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Api-Key", credential)
		req.Header.Set("Accept", "application/xml")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	var body SPCConsulta
	if err := xml.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", pendency.ErrProviderInvalidResponse, err)
	}

	fetchedAt := a.client.now()
	records := make([]pendency.DebtRecord, 0, len(body.Registros))
	for i := range body.Registros {
		r, err := convertSPCRegistro(&body.Registros[i])
		if err != nil || !r.Normalize(fetchedAt) {
			logger.WithLogger(ctx, a.client.logger).Debug("Skipping malformed registro",
				zap.String("codigo", body.Registros[i].Codigo), zap.Error(err))
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// convertSPCRegistro converts an SPC registro to a DebtRecord
func convertSPCRegistro(reg *SPCRegistro) (pendency.DebtRecord, error) {
	original, err := parseBRLAmount(reg.ValorOriginal)
	if err != nil {
		return pendency.DebtRecord{}, fmt.Errorf("valorOriginal: %w", err)
	}
	current := original
	if reg.ValorAtualizado != "" {
		if current, err = parseBRLAmount(reg.ValorAtualizado); err != nil {
			return pendency.DebtRecord{}, fmt.Errorf("valorAtualizado: %w", err)
		}
	}
	due, err := parseTime(reg.DataVencimento, layoutBRDate)
	if err != nil {
		return pendency.DebtRecord{}, fmt.Errorf("dataVencimento: %w", err)
	}
	updated, _ := parseTime(reg.DataAtualizacao, layoutBRDateTime, layoutBRDate)

	r := pendency.DebtRecord{
		ID:             "spc-" + reg.Codigo,
		Creditor:       reg.Credor,
		Description:    reg.Descricao,
		OriginalAmount: original,
		CurrentAmount:  current,
		DueDate:        due,
		LastUpdate:     updated,
		Status:         mapSPCSituacao(reg.Situacao),
		Type:           mapSPCNatureza(reg.Natureza),
		Source:         pendency.ProviderSPC.DisplayName(),
		Contact:        contactOrNil(reg.TelefoneCredor, reg.EmailCredor, ""),
	}
	if p := reg.Proposta; p != nil && p.Parcelas > 0 {
		installment, _ := parseBRLAmount(p.ValorParcela)
		total, _ := parseBRLAmount(p.ValorTotal)
		discount, _ := parseBRLAmount(p.Desconto)
		r.PaymentOptions = &pendency.PaymentOptions{
			Installments:      p.Parcelas,
			InstallmentAmount: installment,
			TotalAmount:       total,
			DiscountPercent:   discount,
		}
	}
	return r, nil
}

// mapSPCSituacao maps SPC situation codes to pendency status
func mapSPCSituacao(s string) pendency.Status {
	switch s {
	case SPCSituacaoInadimplente:
		return pendency.StatusLate
	case SPCSituacaoAcordo:
		return pendency.StatusRenegotiated
	case SPCSituacaoProtesto, SPCSituacaoJudicial:
		return pendency.StatusLegal
	case SPCSituacaoRegular:
		return pendency.StatusRegular
	default:
		return classifyStatus(s)
	}
}

// mapSPCNatureza maps SPC nature codes to pendency type
func mapSPCNatureza(n string) pendency.Type {
	switch n {
	case SPCNaturezaFinanciamento:
		return pendency.TypeLoan
	case SPCNaturezaCartao:
		return pendency.TypeCreditCard
	case SPCNaturezaServicos:
		return pendency.TypeService
	case SPCNaturezaTributo:
		return pendency.TypeTax
	default:
		return pendency.TypeOther
	}
}
