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

// PGFNAdapter implements pendency.Provider for the federal debt roll
// (Divida Ativa da Uniao). Every inscription is a tax debt.
type PGFNAdapter struct {
	client *client
}

// NewPGFNAdapter creates a new PGFN adapter
func NewPGFNAdapter(cfg *ClientConfig, opts ...Option) (*PGFNAdapter, error) {
	c, err := newClient(pendency.ProviderPGFN, cfg, opts)
	if err != nil {
		return nil, err
	}
	return &PGFNAdapter{client: c}, nil
}

// Code implements pendency.Provider
func (a *PGFNAdapter) Code() pendency.ProviderCode {
	return pendency.ProviderPGFN
}

// Fetch implements pendency.Provider
func (a *PGFNAdapter) Fetch(ctx context.Context, taxID pendency.TaxID, credential string) ([]pendency.DebtRecord, error) {
	endpoint := a.client.url("/divida-ativa?ni=" + url.QueryEscape(taxID.Digits()))

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

	var body PGFNInscricoes
	if err := xml.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", pendency.ErrProviderInvalidResponse, err)
	}

	fetchedAt := a.client.now()
	records := make([]pendency.DebtRecord, 0, len(body.Inscricoes))
	for i := range body.Inscricoes {
		r, err := convertPGFNInscricao(&body.Inscricoes[i])
		if err != nil || !r.Normalize(fetchedAt) {
			logger.WithLogger(ctx, a.client.logger).Debug("Skipping malformed inscricao",
				zap.String("numero", body.Inscricoes[i].Numero), zap.Error(err))
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// convertPGFNInscricao converts an inscription to a DebtRecord.
// The due date falls back to the inscription date when absent.
func convertPGFNInscricao(in *PGFNInscricao) (pendency.DebtRecord, error) {
	original, err := parseBRLAmount(in.ValorPrincipal)
	if err != nil {
		return pendency.DebtRecord{}, fmt.Errorf("valorPrincipal: %w", err)
	}
	current := original
	if in.ValorConsolidado != "" {
		if current, err = parseBRLAmount(in.ValorConsolidado); err != nil {
			return pendency.DebtRecord{}, fmt.Errorf("valorConsolidado: %w", err)
		}
	}
	dueRaw := in.DataVencimento
	if dueRaw == "" {
		dueRaw = in.DataInscricao
	}
	due, err := parseTime(dueRaw, layoutISODate, layoutBRDate)
	if err != nil {
		return pendency.DebtRecord{}, fmt.Errorf("dataVencimento: %w", err)
	}
	updated, _ := parseTime(in.DataAtualizacao, layoutISODate, layoutBRDate)

	desc := "Inscricao " + in.Numero
	if in.Receita != "" {
		desc = in.Receita + " - " + desc
	}

	r := pendency.DebtRecord{
		ID:             "pgfn-" + in.Numero,
		Creditor:       PGFNCreditor,
		Description:    desc,
		OriginalAmount: original,
		CurrentAmount:  current,
		DueDate:        due,
		LastUpdate:     updated,
		Status:         mapPGFNSituacao(in.Situacao),
		Type:           pendency.TypeTax,
		Source:         pendency.ProviderPGFN.DisplayName(),
		Contact:        &pendency.Contact{Website: PGFNWebsite},
	}
	if p := in.Parcelamento; p != nil && p.Parcelas > 0 {
		installment, _ := parseBRLAmount(p.ValorParcela)
		total, _ := parseBRLAmount(p.ValorTotal)
		discount, _ := parseBRLAmount(p.PercentualDesconto)
		r.PaymentOptions = &pendency.PaymentOptions{
			Installments:      p.Parcelas,
			InstallmentAmount: installment,
			TotalAmount:       total,
			DiscountPercent:   discount,
		}
	}
	return r, nil
}

// mapPGFNSituacao maps inscription situations to pendency status
func mapPGFNSituacao(s string) pendency.Status {
	switch s {
	case PGFNSituacaoAtiva:
		return pendency.StatusLate
	case PGFNSituacaoAjuizada:
		return pendency.StatusLegal
	case PGFNSituacaoParcelada:
		return pendency.StatusRenegotiated
	case PGFNSituacaoSuspensa:
		return pendency.StatusRegular
	default:
		return classifyStatus(s)
	}
}
