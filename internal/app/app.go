package app

import (
	"fmt"

	"github.com/chittycan/gateway-exporter/internal/config"
	"github.com/chittycan/gateway-exporter/internal/exporter"
	"github.com/chittycan/gateway-exporter/internal/gateway"
	"github.com/chittycan/gateway-exporter/internal/generator"
	"github.com/chittycan/gateway-exporter/internal/metrics"
	"github.com/chittycan/gateway-exporter/internal/monitor"
	"github.com/chittycan/gateway-exporter/internal/server"
)

// App holds initialized exporter components.
type App struct {
	Config      *config.Config
	Registry    *metrics.Registry
	Instruments *gateway.Instruments
	Server      *server.Server
	Generator   *generator.Generator
	Monitor     *monitor.Monitor
	OTELExporter *exporter.OTELExporter
}

// New initializes the application from configuration. The OTLP exporter is
// created last so every family, including server self-metrics, is bridged.
func New(cfg *config.Config) (*App, error) {
	registry := metrics.New()
	instruments := gateway.New(registry)

	srv := server.New(cfg.Listen.Port, cfg.Listen.MetricsPath, cfg.Listen.HealthPath, registry)

	a := &App{
		Config:      cfg,
		Registry:    registry,
		Instruments: instruments,
		Server:      srv,
	}

	if cfg.Simulation.Enabled {
		a.Generator = generator.New(instruments, cfg.Simulation)
	}

	if cfg.Monitor.Enabled {
		a.Monitor = monitor.New(cfg.Monitor.Interval, registry)
	}

	if cfg.Export.OTEL != nil && cfg.Export.OTEL.Enabled {
		otelExporter, err := exporter.NewOTELExporter(cfg.Export.OTEL, registry)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTEL exporter: %w", err)
		}
		a.OTELExporter = otelExporter
	}

	return a, nil
}
