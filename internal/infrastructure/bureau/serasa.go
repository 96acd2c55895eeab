package bureau

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/pendencias/backend/internal/domain/pendency"
	"github.com/pendencias/backend/internal/infrastructure/logger"
)

// serasaMaxPages bounds pagination so a misbehaving API cannot loop forever
const serasaMaxPages = 20

// SerasaAdapter implements pendency.Provider for Serasa Experian
type SerasaAdapter struct {
	client *client
}

// NewSerasaAdapter creates a new Serasa adapter
func NewSerasaAdapter(cfg *ClientConfig, opts ...Option) (*SerasaAdapter, error) {
	c, err := newClient(pendency.ProviderSerasa, cfg, opts)
	if err != nil {
		return nil, err
	}
	return &SerasaAdapter{client: c}, nil
}

// Code implements pendency.Provider
func (a *SerasaAdapter) Code() pendency.ProviderCode {
	return pendency.ProviderSerasa
}

// Fetch implements pendency.Provider. Serasa paginates; every page is read.
func (a *SerasaAdapter) Fetch(ctx context.Context, taxID pendency.TaxID, credential string) ([]pendency.DebtRecord, error) {
	var records []pendency.DebtRecord
	for page := 1; page <= serasaMaxPages; page++ {
		body, err := a.fetchPage(ctx, taxID, credential, page)
		if err != nil {
			return nil, err
		}
		if body == nil {
			break
		}
		records = append(records, a.convert(ctx, body.Pendencies)...)
		if body.Pagination == nil || body.Pagination.Page >= body.Pagination.TotalPages {
			break
		}
	}
	return records, nil
}

func (a *SerasaAdapter) fetchPage(ctx context.Context, taxID pendency.TaxID, credential string, page int) (*SerasaResponse, error) {
	endpoint := a.client.url("/v1/consumers/" + url.PathEscape(taxID.Digits()) + "/pendencies")
	resp, err := a.client.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?page="+strconv.Itoa(page), nil)
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

	var body SerasaResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", pendency.ErrProviderInvalidResponse, err)
	}
	return &body, nil
}

func (a *SerasaAdapter) convert(ctx context.Context, items []SerasaPendency) []pendency.DebtRecord {
	fetchedAt := a.client.now()
	records := make([]pendency.DebtRecord, 0, len(items))
	for i := range items {
		r, err := convertSerasaPendency(&items[i])
		if err != nil || !r.Normalize(fetchedAt) {
			logger.WithLogger(ctx, a.client.logger).Debug("Skipping malformed pendency",
				zap.String("id", items[i].ID), zap.Error(err))
			continue
		}
		records = append(records, r)
	}
	return records
}

// convertSerasaPendency converts a Serasa pendency to a DebtRecord
func convertSerasaPendency(p *SerasaPendency) (pendency.DebtRecord, error) {
	original, err := parseDecimal(p.OriginalValue)
	if err != nil {
		return pendency.DebtRecord{}, fmt.Errorf("originalValue: %w", err)
	}
	current, err := parseDecimal(p.UpdatedValue)
	if err != nil {
		return pendency.DebtRecord{}, fmt.Errorf("updatedValue: %w", err)
	}
	if p.UpdatedValue == "" {
		current = original
	}
	due, err := parseTime(p.DueDate, layoutISODate)
	if err != nil {
		return pendency.DebtRecord{}, fmt.Errorf("dueDate: %w", err)
	}
	updated, _ := parseTime(p.UpdatedAt, layoutISODate)

	r := pendency.DebtRecord{
		ID:             "serasa-" + p.ID,
		Creditor:       p.Creditor.Name,
		Description:    p.Description,
		OriginalAmount: original,
		CurrentAmount:  current,
		DueDate:        due,
		LastUpdate:     updated,
		Status:         mapSerasaSituation(p.Situation),
		Type:           mapSerasaCategory(p.Category),
		Source:         pendency.ProviderSerasa.DisplayName(),
		Contact:        contactOrNil(p.Creditor.Phone, p.Creditor.Email, p.Creditor.Site),
	}
	if p.Offer != nil && p.Offer.Installments > 0 {
		installment, _ := parseDecimal(p.Offer.InstallmentValue)
		total, _ := parseDecimal(p.Offer.TotalValue)
		discount, _ := parseDecimal(p.Offer.DiscountPercent)
		r.PaymentOptions = &pendency.PaymentOptions{
			Installments:      p.Offer.Installments,
			InstallmentAmount: installment,
			TotalAmount:       total,
			DiscountPercent:   discount,
		}
	}
	return r, nil
}

// mapSerasaSituation maps Serasa situation codes to pendency status
func mapSerasaSituation(s string) pendency.Status {
	switch s {
	case SerasaSituationLate, SerasaSituationNegative:
		return pendency.StatusLate
	case SerasaSituationRenegotiated:
		return pendency.StatusRenegotiated
	case SerasaSituationLegal:
		return pendency.StatusLegal
	default:
		return pendency.StatusRegular
	}
}

// mapSerasaCategory maps Serasa category codes to pendency type
func mapSerasaCategory(c string) pendency.Type {
	switch c {
	case SerasaCategoryLoan:
		return pendency.TypeLoan
	case SerasaCategoryCreditCard:
		return pendency.TypeCreditCard
	case SerasaCategoryTax:
		return pendency.TypeTax
	case SerasaCategoryService:
		return pendency.TypeService
	default:
		return pendency.TypeOther
	}
}
