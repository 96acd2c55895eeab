package bureau

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/pendencias/backend/internal/domain/pendency"
	"github.com/pendencias/backend/internal/infrastructure/logger"
)

// QuodAdapter implements pendency.Provider for Quod
type QuodAdapter struct {
	client *client
}

// NewQuodAdapter creates a new Quod adapter
func NewQuodAdapter(cfg *ClientConfig, opts ...Option) (*QuodAdapter, error) {
	c, err := newClient(pendency.ProviderQuod, cfg, opts)
	if err != nil {
		return nil, err
	}
	return &QuodAdapter{client: c}, nil
}

// Code implements pendency.Provider
func (a *QuodAdapter) Code() pendency.ProviderCode {
	return pendency.ProviderQuod
}

// Fetch implements pendency.Provider
func (a *QuodAdapter) Fetch(ctx context.Context, taxID pendency.TaxID, credential string) ([]pendency.DebtRecord, error) {
	endpoint := a.client.url("/v1/negativacoes?document=" + url.QueryEscape(taxID.Digits()))

	resp, err := a.client.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+credential)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	var body QuodResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", pendency.ErrProviderInvalidResponse, err)
	}

	fetchedAt := a.client.now()
	records := make([]pendency.DebtRecord, 0, len(body.Data))
	for i := range body.Data {
		r, err := convertQuodNegativacao(&body.Data[i])
		if err != nil || !r.Normalize(fetchedAt) {
			logger.WithLogger(ctx, a.client.logger).Debug("Skipping malformed negativacao",
				zap.String("contract_id", body.Data[i].ContractID), zap.Error(err))
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// convertQuodNegativacao converts a Quod record to a DebtRecord
func convertQuodNegativacao(n *QuodNegativacao) (pendency.DebtRecord, error) {
	due, err := parseTime(n.DueDate, layoutISODate)
	if err != nil {
		return pendency.DebtRecord{}, fmt.Errorf("dueDate: %w", err)
	}
	updated, _ := parseTime(n.LastUpdated, layoutISODate)

	original := centsToDecimal(n.OriginalAmountCents)
	current := original
	if n.CurrentAmountCents != nil {
		current = centsToDecimal(*n.CurrentAmountCents)
	}

	r := pendency.DebtRecord{
		ID:             "quod-" + n.ContractID,
		Creditor:       n.CreditorName,
		Description:    n.Description,
		OriginalAmount: original,
		CurrentAmount:  current,
		DueDate:        due,
		LastUpdate:     updated,
		Status:         mapQuodStatus(n.Status),
		Type:           mapQuodKind(n.Kind),
		Source:         pendency.ProviderQuod.DisplayName(),
	}
	if c := n.CreditorContact; c != nil {
		r.Contact = contactOrNil(c.Phone, c.Email, c.Website)
	}
	return r, nil
}

// mapQuodStatus maps Quod status codes to pendency status
func mapQuodStatus(s string) pendency.Status {
	switch s {
	case QuodStatusOverdue:
		return pendency.StatusLate
	case QuodStatusRenegotiated:
		return pendency.StatusRenegotiated
	case QuodStatusLegalAction:
		return pendency.StatusLegal
	default:
		return pendency.StatusRegular
	}
}

// mapQuodKind maps Quod kind codes to pendency type
func mapQuodKind(k string) pendency.Type {
	switch k {
	case QuodKindLoan:
		return pendency.TypeLoan
	case QuodKindCreditCard:
		return pendency.TypeCreditCard
	case QuodKindTax:
		return pendency.TypeTax
	case QuodKindUtility:
		return pendency.TypeService
	default:
		return pendency.TypeOther
	}
}
