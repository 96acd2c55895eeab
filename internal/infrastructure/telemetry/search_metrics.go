package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pendencias/backend/internal/domain/pendency"
)

// ErrMeterNil is returned when a metrics set is built without a meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Search result labels
const (
	SearchResultOK       = "ok"
	SearchResultDegraded = "degraded"
	SearchResultFailed   = "failed"
	SearchResultInvalid  = "invalid"
)

// SearchMetrics records pendency search activity.
type SearchMetrics struct {
	searchTotal      *Counter
	searchDuration   *Histogram
	providerTotal    *Counter
	providerDuration *Histogram
	recordsTotal     *Counter
	duplicatesTotal  *Counter
}

// NewSearchMetrics creates the search instruments on meter.
func NewSearchMetrics(meter metric.Meter) (*SearchMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &SearchMetrics{}
	var err error

	if m.searchTotal, err = NewCounter(meter,
		"pendency_search_total",
		"Total number of pendency searches by result",
		"{search}",
	); err != nil {
		return nil, err
	}

	if m.searchDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "pendency_search_duration_seconds",
		Description: "End-to-end search latency, waiting on every provider",
		Unit:        "s",
		Boundaries:  ProviderDurationBuckets,
	}); err != nil {
		return nil, err
	}

	if m.providerTotal, err = NewCounter(meter,
		"pendency_provider_requests_total",
		"Provider calls by provider and outcome",
		"{request}",
	); err != nil {
		return nil, err
	}

	if m.providerDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "pendency_provider_duration_seconds",
		Description: "Provider call latency, retries included",
		Unit:        "s",
		Boundaries:  ProviderDurationBuckets,
	}); err != nil {
		return nil, err
	}

	if m.recordsTotal, err = NewCounter(meter,
		"pendency_records_returned_total",
		"Debt records returned after deduplication",
		"{record}",
	); err != nil {
		return nil, err
	}

	if m.duplicatesTotal, err = NewCounter(meter,
		"pendency_records_deduplicated_total",
		"Debt records dropped as duplicates across providers",
		"{record}",
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordSearch records a completed search. duplicates is the number of
// records dropped while merging provider batches.
func (m *SearchMetrics) RecordSearch(ctx context.Context, result *pendency.SearchResult, duplicates int) {
	if m == nil || result == nil {
		return
	}
	kind := AttrTaxIDKind.String(string(result.TaxID.Kind()))

	label := SearchResultOK
	switch {
	case result.AllFailed():
		label = SearchResultFailed
	case result.Degraded():
		label = SearchResultDegraded
	}
	m.searchTotal.Inc(ctx, AttrResult.String(label), kind)
	m.searchDuration.RecordDuration(ctx, result.Duration, AttrResult.String(label))
	m.recordsTotal.Add(ctx, int64(len(result.Records)), kind)
	if duplicates > 0 {
		m.duplicatesTotal.Add(ctx, int64(duplicates))
	}

	for _, o := range result.Outcomes {
		attrs := []attribute.KeyValue{
			AttrProvider.String(o.Provider.String()),
			AttrOutcome.String(string(o.Status)),
		}
		m.providerTotal.Inc(ctx, attrs...)
		if o.Status != pendency.OutcomeSkipped {
			m.providerDuration.RecordDuration(ctx, o.Duration, attrs...)
		}
	}
}

// RecordInvalidTaxID counts a search rejected before any provider call.
func (m *SearchMetrics) RecordInvalidTaxID(ctx context.Context, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.searchTotal.Inc(ctx, AttrResult.String(SearchResultInvalid))
	m.searchDuration.RecordDuration(ctx, elapsed, AttrResult.String(SearchResultInvalid))
}
