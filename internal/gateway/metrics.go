// Package gateway maps ChittyCan gateway events onto the metric families the
// exporter exposes.
package gateway

import (
	"github.com/chittycan/gateway-exporter/internal/metrics"
)

// Metric family names.
const (
	RequestsTotal      = "chitty_requests_total"
	CacheHitsTotal     = "chitty_cache_hits_total"
	CacheRequestsTotal = "chitty_cache_requests_total"
	CacheHitRate       = "chitty_cache_hit_rate"
	CostCentsTotal     = "chitty_cost_cents_total"
	RequestDuration    = "chitty_request_duration_seconds"
	FallbackEvents     = "chitty_fallback_events_total"
	BudgetOverruns     = "chitty_budget_overruns_total"
)

// DurationBuckets are the request latency bucket boundaries in seconds.
var DurationBuckets = []float64{0.01, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0}

// Instruments records gateway events into a metric registry.
type Instruments struct {
	registry *metrics.Registry
}

// New registers the gateway metric families on the registry and returns the
// recording facade.
func New(registry *metrics.Registry) *Instruments {
	registry.RegisterCounter(RequestsTotal,
		"Total number of requests")
	registry.RegisterCounter(CacheHitsTotal,
		"Total number of cache hits")
	registry.RegisterCounter(CacheRequestsTotal,
		"Total number of cacheable requests")
	registry.RegisterDerived(CacheHitRate,
		"Cache hit rate ratio (hits/requests)",
		hitRate, metrics.WithDecimals(4))
	registry.RegisterCounter(CostCentsTotal,
		"Total cost in USD cents", metrics.WithDecimals(2))
	registry.RegisterHistogram(RequestDuration,
		"Request duration in seconds", DurationBuckets)
	registry.RegisterCounter(FallbackEvents,
		"Total number of provider fallback events")
	registry.RegisterCounter(BudgetOverruns,
		"Total number of budget overrun incidents")

	return &Instruments{registry: registry}
}

// Registry returns the underlying registry.
func (i *Instruments) Registry() *metrics.Registry { return i.registry }

// RecordRequest records one completed gateway request. Duration is in
// seconds, cost in USD cents; cached requests carry no cost.
func (i *Instruments) RecordRequest(model, tenant string, duration float64, cached bool, costCents float64) error {
	byModelTenant := metrics.Labels{"model": model, "tenant": tenant}
	byModel := metrics.Labels{"model": model}

	if err := i.registry.RecordCounter(RequestsTotal, byModelTenant, 1); err != nil {
		return err
	}
	if err := i.registry.RecordCounter(CacheRequestsTotal, byModel, 1); err != nil {
		return err
	}
	if cached {
		if err := i.registry.RecordCounter(CacheHitsTotal, byModel, 1); err != nil {
			return err
		}
	}
	if err := i.registry.RecordCounter(CostCentsTotal, byModelTenant, costCents); err != nil {
		return err
	}
	return i.registry.RecordObservation(RequestDuration, byModel, duration)
}

// RecordFallback records one provider fallback event.
func (i *Instruments) RecordFallback(fromModel, toModel string) error {
	return i.registry.RecordCounter(FallbackEvents,
		metrics.Labels{"from_model": fromModel, "to_model": toModel}, 1)
}

// RecordBudgetOverrun records one tenant budget overrun incident.
func (i *Instruments) RecordBudgetOverrun(tenant string) error {
	return i.registry.RecordCounter(BudgetOverruns,
		metrics.Labels{"tenant": tenant}, 1)
}

// hitRate computes the per-model cache hit ratio from the snapshot. Models
// with no cacheable requests yield a zero ratio rather than NaN.
func hitRate(snap *metrics.Snapshot) []metrics.Sample {
	requests, ok := snap.Family(CacheRequestsTotal)
	if !ok {
		return nil
	}

	samples := make([]metrics.Sample, 0, len(requests.Series))
	for _, s := range requests.Series {
		model, _ := s.Labels.Get("model")
		rate := 0.0
		if s.Value > 0 {
			hits, _ := snap.Value(CacheHitsTotal, metrics.Labels{"model": model})
			rate = hits / s.Value
		}
		samples = append(samples, metrics.Sample{Labels: s.Labels, Value: rate})
	}
	return samples
}
