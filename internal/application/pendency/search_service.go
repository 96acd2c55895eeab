package pendency

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/google/uuid"
	"github.com/pendencias/backend/internal/domain/pendency"
	"github.com/pendencias/backend/internal/domain/shared"
	"github.com/pendencias/backend/internal/infrastructure/logger"
	"github.com/pendencias/backend/internal/infrastructure/telemetry"
)

// ErrAuditDisabled is returned by audit queries when no repository is wired
var ErrAuditDisabled = shared.NewDomainError("AUDIT_DISABLED", "Search audit is not enabled")

// Option configures a SearchService
type Option func(*SearchService)

// WithHistory enables search history
func WithHistory(store pendency.HistoryStore) Option {
	return func(s *SearchService) { s.history = store }
}

// WithAuditRepository enables the search audit trail
func WithAuditRepository(repo pendency.AuditRepository) Option {
	return func(s *SearchService) { s.audits = repo }
}

// WithMetrics records search metrics
func WithMetrics(m *telemetry.SearchMetrics) Option {
	return func(s *SearchService) { s.metrics = m }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *SearchService) { s.now = now }
}

// SearchService queries every registered provider for a tax id and
// reconciles their answers into one ordered list
type SearchService struct {
	providers   []pendency.Provider
	credentials pendency.Credentials
	history     pendency.HistoryStore
	audits      pendency.AuditRepository
	metrics     *telemetry.SearchMetrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewSearchService creates a search service. providers are queried and
// merged in the given order; credentials are the configured API keys.
func NewSearchService(
	providers []pendency.Provider,
	credentials pendency.Credentials,
	logger *zap.Logger,
	opts ...Option,
) *SearchService {
	if credentials == nil {
		credentials = pendency.Credentials{}
	}
	s := &SearchService{
		providers:   providers,
		credentials: credentials,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search validates the identifier, fans out to every provider and returns
// the deduplicated records ordered by priority. Provider failures are
// reported in the result outcomes, never as an error: the only error is
// pendency.ErrInvalidTaxID.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*pendency.SearchResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "SearchService", "Search")
	defer span.End()

	start := s.now()
	log := logger.WithLogger(ctx, s.logger)

	taxID, err := pendency.ParseTaxID(req.TaxID)
	if err != nil {
		s.metrics.RecordInvalidTaxID(ctx, s.now().Sub(start))
		telemetry.RecordError(span, err)
		log.Debug("Rejected invalid tax id", zap.Int("length", len(req.TaxID)))
		return nil, pendency.ErrInvalidTaxID
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTaxIDKind, string(taxID.Kind()),
		telemetry.SpanAttrTaxIDMasked, taxID.Masked(),
	)

	creds := s.credentials.Merge(req.Credentials)
	batches := make([][]pendency.DebtRecord, len(s.providers))
	outcomes := make([]pendency.ProviderOutcome, len(s.providers))

	// each goroutine owns its slot and returns nil, so no provider cancels another
	var g errgroup.Group
	for i, p := range s.providers {
		key, ok := creds.Lookup(p.Code())
		if !ok {
			outcomes[i] = pendency.ProviderOutcome{Provider: p.Code(), Status: pendency.OutcomeSkipped}
			telemetry.AddEvent(span, "provider.skipped", telemetry.SpanAttrProvider, p.Code().String())
			continue
		}
		g.Go(func() error {
			batches[i], outcomes[i] = s.fetch(ctx, p, taxID, key)
			return nil
		})
	}
	_ = g.Wait()

	fetched := 0
	for _, b := range batches {
		fetched += len(b)
	}
	records := pendency.Reconcile(batches...)

	result := &pendency.SearchResult{
		TaxID:      taxID,
		Records:    records,
		Outcomes:   outcomes,
		SearchedAt: start,
		Duration:   s.now().Sub(start),
	}

	s.metrics.RecordSearch(ctx, result, fetched-len(records))
	telemetry.SetAttributes(span,
		telemetry.SpanAttrRecordCount, len(records),
		telemetry.SpanAttrProvidersUsed, result.Queried(),
	)
	telemetry.SetOK(span)

	fields := []zap.Field{
		zap.String("tax_id", taxID.Masked()),
		zap.Int("records", len(records)),
		zap.Int("duplicates", fetched-len(records)),
		zap.Int("queried", result.Queried()),
		zap.Int("skipped", result.Count(pendency.OutcomeSkipped)),
		zap.Duration("duration", result.Duration),
	}
	switch {
	case result.AllFailed():
		log.Warn("Every queried provider failed", fields...)
	case result.Degraded():
		log.Warn("Search completed with failed providers",
			append(fields, zap.Any("failed", result.FailedProviders()))...)
	default:
		log.Info("Search completed", fields...)
	}

	s.recordHistory(ctx, req.Owner, taxID)
	s.recordAudit(ctx, result, req)

	return result, nil
}

// fetch calls one provider. Errors and panics become a failed outcome.
func (s *SearchService) fetch(
	ctx context.Context,
	p pendency.Provider,
	taxID pendency.TaxID,
	key string,
) (records []pendency.DebtRecord, outcome pendency.ProviderOutcome) {
	code := p.Code()
	ctx, span := telemetry.StartSpan(ctx, "provider."+strings.ToLower(code.String()),
		telemetry.WithAttribute(telemetry.SpanAttrProvider, code.String()),
		telemetry.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	start := s.now()
	outcome = pendency.ProviderOutcome{Provider: code}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: provider panicked: %v", pendency.ErrProviderRequestFailed, r)
			records = nil
			outcome.Status = pendency.OutcomeFailed
			outcome.Records = 0
			outcome.Error = err.Error()
			outcome.Duration = s.now().Sub(start)
			telemetry.RecordError(span, err)
			logger.WithLogger(ctx, s.logger).Error("Provider panicked",
				zap.String("provider", code.String()),
				zap.Any("panic", r),
			)
		}
	}()

	fetched, err := p.Fetch(ctx, taxID, key)
	outcome.Duration = s.now().Sub(start)
	if err != nil {
		outcome.Status = pendency.OutcomeFailed
		outcome.Error = err.Error()
		telemetry.RecordError(span, err)
		logger.WithLogger(ctx, s.logger).Warn("Provider request failed",
			zap.String("provider", code.String()),
			zap.String("tax_id", taxID.Masked()),
			zap.Duration("duration", outcome.Duration),
			zap.Error(err),
		)
		return nil, outcome
	}

	records = make([]pendency.DebtRecord, 0, len(fetched))
	for _, r := range fetched {
		if r.Source == "" {
			r.Source = code.DisplayName()
		}
		if r.Normalize(start) {
			records = append(records, r)
		}
	}

	outcome.Records = len(records)
	outcome.Status = pendency.OutcomeOK
	if len(records) == 0 {
		outcome.Status = pendency.OutcomeEmpty
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrRecordCount, len(records),
		telemetry.SpanAttrOutcome, string(outcome.Status),
	)
	return records, outcome
}

func (s *SearchService) recordHistory(ctx context.Context, owner string, taxID pendency.TaxID) {
	if s.history == nil || owner == "" {
		return
	}
	if err := s.history.Add(ctx, owner, taxID.Formatted()); err != nil {
		logger.WithLogger(ctx, s.logger).Warn("Failed to record search history", zap.Error(err))
	}
}

func (s *SearchService) recordAudit(ctx context.Context, result *pendency.SearchResult, req SearchRequest) {
	if s.audits == nil {
		return
	}
	audit := pendency.NewSearchAudit(result, req.RequestID, req.ClientID)
	if err := s.audits.Save(ctx, audit); err != nil {
		logger.WithLogger(ctx, s.logger).Error("Failed to save search audit",
			zap.String("audit_id", audit.ID.String()),
			zap.Error(err),
		)
	}
}

// ValidateTaxID checks an identifier without any provider call
func (s *SearchService) ValidateTaxID(raw string) ValidationResult {
	taxID, err := pendency.ParseTaxID(raw)
	if err != nil {
		return ValidationResult{Valid: false}
	}
	return ValidationResult{
		Valid:      true,
		Kind:       taxID.Kind(),
		Normalized: taxID.Digits(),
		Formatted:  taxID.Formatted(),
	}
}

// History returns the recent searches of owner, newest first
func (s *SearchService) History(ctx context.Context, owner string) ([]string, error) {
	if s.history == nil {
		return []string{}, nil
	}
	entries, err := s.history.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []string{}
	}
	return entries, nil
}

// ClearHistory removes every history entry of owner
func (s *SearchService) ClearHistory(ctx context.Context, owner string) error {
	if s.history == nil {
		return nil
	}
	return s.history.Clear(ctx, owner)
}

// ListAudits returns a page of search audits and the total count
func (s *SearchService) ListAudits(ctx context.Context, filter pendency.AuditFilter) ([]pendency.SearchAudit, int64, error) {
	if s.audits == nil {
		return nil, 0, ErrAuditDisabled
	}
	return s.audits.FindAll(ctx, filter)
}

// GetAudit returns one search audit
func (s *SearchService) GetAudit(ctx context.Context, id uuid.UUID) (*pendency.SearchAudit, error) {
	if s.audits == nil {
		return nil, ErrAuditDisabled
	}
	return s.audits.FindByID(ctx, id)
}

// AuditEnabled reports whether searches are audited
func (s *SearchService) AuditEnabled() bool {
	return s.audits != nil
}

// Providers lists the registered providers in query order
func (s *SearchService) Providers() []ProviderInfo {
	infos := make([]ProviderInfo, 0, len(s.providers))
	for _, p := range s.providers {
		_, configured := s.credentials.Lookup(p.Code())
		infos = append(infos, ProviderInfo{
			Code:       p.Code(),
			Name:       p.Code().DisplayName(),
			Configured: configured,
		})
	}
	return infos
}
