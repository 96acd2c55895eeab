package bureau

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/pendencias/backend/internal/domain/pendency"
	"github.com/pendencias/backend/internal/infrastructure/logger"
)

// BoaVistaAdapter implements pendency.Provider for Boa Vista SCPC
type BoaVistaAdapter struct {
	client *client
}

// NewBoaVistaAdapter creates a new Boa Vista adapter
func NewBoaVistaAdapter(cfg *ClientConfig, opts ...Option) (*BoaVistaAdapter, error) {
	c, err := newClient(pendency.ProviderBoaVista, cfg, opts)
	if err != nil {
		return nil, err
	}
	return &BoaVistaAdapter{client: c}, nil
}

// Code implements pendency.Provider
func (a *BoaVistaAdapter) Code() pendency.ProviderCode {
	return pendency.ProviderBoaVista
}

// Fetch implements pendency.Provider
func (a *BoaVistaAdapter) Fetch(ctx context.Context, taxID pendency.TaxID, credential string) ([]pendency.DebtRecord, error) {
	payload, err := json.Marshal(BoaVistaSearchRequest{CPFCNPJ: taxID.Digits()})
	if err != nil {
		return nil, fmt.Errorf("boa vista: failed to encode request: %w", err)
	}
	endpoint := a.client.url("/api/v2/debts/search")

	resp, err := a.client.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Api-Key", credential)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	var body BoaVistaSearchResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", pendency.ErrProviderInvalidResponse, err)
	}

	fetchedAt := a.client.now()
	records := make([]pendency.DebtRecord, 0, len(body.Result.Items))
	for i := range body.Result.Items {
		r, err := convertBoaVistaDebt(&body.Result.Items[i])
		if err != nil || !r.Normalize(fetchedAt) {
			logger.WithLogger(ctx, a.client.logger).Debug("Skipping malformed debt",
				zap.String("debt_id", body.Result.Items[i].DebtID), zap.Error(err))
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// convertBoaVistaDebt converts a Boa Vista debt to a DebtRecord.
// State and product are free text and go through keyword classification.
func convertBoaVistaDebt(d *BoaVistaDebt) (pendency.DebtRecord, error) {
	due, err := parseTime(d.DueDate, layoutISODate)
	if err != nil {
		return pendency.DebtRecord{}, fmt.Errorf("dueDate: %w", err)
	}
	updated, _ := parseTime(d.LastUpdate, layoutISODate)

	current := d.Amount.Current
	if current.IsZero() {
		current = d.Amount.Original
	}

	r := pendency.DebtRecord{
		ID:             "boavista-" + d.DebtID,
		Creditor:       d.Company.Name,
		Description:    d.Product,
		OriginalAmount: d.Amount.Original,
		CurrentAmount:  current,
		DueDate:        due,
		LastUpdate:     updated,
		Status:         classifyStatus(d.State),
		Type:           classifyType(d.Product),
		Source:         pendency.ProviderBoaVista.DisplayName(),
		Contact:        contactOrNil(d.Company.Contact.Phone, d.Company.Contact.Email, d.Company.Contact.URL),
	}
	if ag := d.Agreement; ag != nil && ag.Installments > 0 {
		r.PaymentOptions = &pendency.PaymentOptions{
			Installments:      ag.Installments,
			InstallmentAmount: ag.InstallmentAmount,
			TotalAmount:       ag.Total,
			DiscountPercent:   ag.Discount,
		}
	}
	return r, nil
}
