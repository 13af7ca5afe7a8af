// Package exporter pushes registry contents to an OTLP collector, mirroring
// what the scrape endpoint exposes.
package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/chittycan/gateway-exporter/internal/config"
	"github.com/chittycan/gateway-exporter/internal/metrics"
)

// OTELExporter observes registry snapshots through OTEL instruments and
// pushes them on the configured interval.
type OTELExporter struct {
	config        *config.OTELExportConfig
	registry      *metrics.Registry
	meterProvider *sdkmetric.MeterProvider
	instruments   []instrument
}

// instrument binds one metric family to its OTEL observable. Histogram
// families export their running sum and count as observable counters, since
// OTEL has no observable histogram instrument.
type instrument struct {
	family  string
	counter otelmetric.Float64ObservableCounter
	gauge   otelmetric.Float64ObservableGauge
	sum     otelmetric.Float64ObservableCounter
	count   otelmetric.Float64ObservableCounter
}

// NewOTELExporter creates an OTLP push exporter over the registry. Every
// family registered at creation time gets an instrument.
func NewOTELExporter(cfg *config.OTELExportConfig, registry *metrics.Registry) (*OTELExporter, error) {
	attrs := make([]attribute.KeyValue, 0, len(cfg.Resource))
	for k, v := range cfg.Resource {
		attrs = append(attrs, attribute.String(k, v))
	}
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(attrs...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	meterProvider, err := createMeterProvider(cfg, res)
	if err != nil {
		return nil, err
	}
	meter := meterProvider.Meter("chitty-exporter")

	e := &OTELExporter{
		config:        cfg,
		registry:      registry,
		meterProvider: meterProvider,
	}

	var observables []otelmetric.Observable
	for _, fs := range registry.Snapshot().Families {
		inst := instrument{family: fs.Name}

		switch fs.Kind {
		case metrics.KindCounter:
			inst.counter, err = meter.Float64ObservableCounter(
				fs.Name,
				otelmetric.WithDescription(fs.Help),
			)
			if err == nil {
				observables = append(observables, inst.counter)
			}

		case metrics.KindGauge, metrics.KindDerived:
			inst.gauge, err = meter.Float64ObservableGauge(
				fs.Name,
				otelmetric.WithDescription(fs.Help),
			)
			if err == nil {
				observables = append(observables, inst.gauge)
			}

		case metrics.KindHistogram:
			inst.sum, err = meter.Float64ObservableCounter(
				fs.Name+"_sum",
				otelmetric.WithDescription(fs.Help),
			)
			if err != nil {
				break
			}
			inst.count, err = meter.Float64ObservableCounter(
				fs.Name+"_count",
				otelmetric.WithDescription(fs.Help),
			)
			if err == nil {
				observables = append(observables, inst.sum, inst.count)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create instrument %q: %w", fs.Name, err)
		}

		e.instruments = append(e.instruments, inst)
		slog.Info("registered otel metric", "name", fs.Name, "type", fs.Kind)
	}

	if _, err := meter.RegisterCallback(e.observe, observables...); err != nil {
		return nil, fmt.Errorf("failed to register callback: %w", err)
	}

	return e, nil
}

// observe reads one registry snapshot and reports every series.
func (e *OTELExporter) observe(ctx context.Context, observer otelmetric.Observer) error {
	snap := e.registry.Snapshot()

	for _, inst := range e.instruments {
		fs, ok := snap.Family(inst.family)
		if !ok {
			continue
		}

		switch fs.Kind {
		case metrics.KindCounter:
			for i := range fs.Series {
				observer.ObserveFloat64(inst.counter, fs.Series[i].Value,
					otelmetric.WithAttributes(labelAttributes(fs.Series[i].Labels)...))
			}

		case metrics.KindGauge:
			for i := range fs.Series {
				observer.ObserveFloat64(inst.gauge, fs.Series[i].Value,
					otelmetric.WithAttributes(labelAttributes(fs.Series[i].Labels)...))
			}

		case metrics.KindDerived:
			for _, sample := range fs.Derived(snap) {
				observer.ObserveFloat64(inst.gauge, sample.Value,
					otelmetric.WithAttributes(labelAttributes(sample.Labels)...))
			}

		case metrics.KindHistogram:
			for i := range fs.Series {
				attrs := otelmetric.WithAttributes(labelAttributes(fs.Series[i].Labels)...)
				observer.ObserveFloat64(inst.sum, fs.Series[i].Sum, attrs)
				observer.ObserveFloat64(inst.count, float64(fs.Series[i].Count), attrs)
			}
		}
	}
	return nil
}

// labelAttributes converts a label set into OTEL attributes.
func labelAttributes(ls metrics.LabelSet) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, ls.Len())
	for _, name := range ls.Names() {
		value, _ := ls.Get(name)
		attrs = append(attrs, attribute.String(name, value))
	}
	return attrs
}

// Start begins periodic export and blocks until ctx is cancelled. The
// periodic reader handles the push schedule.
func (e *OTELExporter) Start(ctx context.Context) error {
	slog.Info("starting otel exporter",
		"endpoint", e.config.Endpoint,
		"protocol", e.config.Protocol,
		"push_interval", e.config.Interval,
	)

	<-ctx.Done()
	return e.Stop()
}

// Stop flushes and shuts down the meter provider.
func (e *OTELExporter) Stop() error {
	slog.Info("shutting down otel exporter")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return e.meterProvider.Shutdown(ctx)
}
