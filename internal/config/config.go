package config

import (
	"time"
)

const (
	DefaultPort        = 9090
	DefaultMetricsPath = "/metrics"
	DefaultHealthPath  = "/health"

	DefaultOTELPushInterval   = 10 * time.Second
	DefaultSimulationInterval = 100 * time.Millisecond
	DefaultMonitorInterval    = 10 * time.Second
	DefaultCacheHitRate       = 0.7
	DefaultServiceName        = "chitty-exporter"
)

// DefaultModels and DefaultTenants seed the simulated traffic when the
// configuration names none.
var (
	DefaultModels  = []string{"gpt-4", "claude-sonnet", "groq/llama-3-70b"}
	DefaultTenants = []string{"tenant-a", "tenant-b", "tenant-c"}
)

// Config holds the complete exporter configuration.
type Config struct {
	Listen     ListenConfig     `yaml:"listen"`
	Export     ExportConfig     `yaml:"export"`
	Simulation SimulationConfig `yaml:"simulation"`
	Monitor    MonitorConfig    `yaml:"monitor"`
}

// ListenConfig defines the HTTP surface.
type ListenConfig struct {
	Port        int    `yaml:"port"`
	MetricsPath string `yaml:"metrics_path"`
	HealthPath  string `yaml:"health_path"`
}

// ExportConfig defines push-based export targets. The Prometheus scrape
// endpoint is always on; OTLP push is optional.
type ExportConfig struct {
	OTEL *OTELExportConfig `yaml:"otel,omitempty"`
}

// OTELExportConfig defines OTLP push settings.
type OTELExportConfig struct {
	Enabled  bool              `yaml:"enabled"`
	Endpoint string            `yaml:"endpoint"`
	Protocol string            `yaml:"protocol"` // "http" or "grpc"
	Interval time.Duration     `yaml:"interval"`
	Resource map[string]string `yaml:"resource,omitempty"`
	Headers  map[string]string `yaml:"headers,omitempty"`
}

// SimulationConfig drives the synthetic traffic generator.
type SimulationConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Interval     time.Duration `yaml:"interval"`
	Models       []string      `yaml:"models,omitempty"`
	Tenants      []string      `yaml:"tenants,omitempty"`
	CacheHitRate float64       `yaml:"cache_hit_rate"`
}

// MonitorConfig drives the process self-metrics collector.
type MonitorConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills zero-valued fields.
func (c *Config) applyDefaults() {
	if c.Listen.Port == 0 {
		c.Listen.Port = DefaultPort
	}
	if c.Listen.MetricsPath == "" {
		c.Listen.MetricsPath = DefaultMetricsPath
	}
	if c.Listen.HealthPath == "" {
		c.Listen.HealthPath = DefaultHealthPath
	}

	if c.Export.OTEL != nil {
		if c.Export.OTEL.Protocol == "" {
			c.Export.OTEL.Protocol = "http"
		}
		if c.Export.OTEL.Interval == 0 {
			c.Export.OTEL.Interval = DefaultOTELPushInterval
		}
		if c.Export.OTEL.Resource == nil {
			c.Export.OTEL.Resource = map[string]string{"service.name": DefaultServiceName}
		}
	}

	if c.Simulation.Interval == 0 {
		c.Simulation.Interval = DefaultSimulationInterval
	}
	if len(c.Simulation.Models) == 0 {
		c.Simulation.Models = DefaultModels
	}
	if len(c.Simulation.Tenants) == 0 {
		c.Simulation.Tenants = DefaultTenants
	}
	if c.Simulation.CacheHitRate == 0 {
		c.Simulation.CacheHitRate = DefaultCacheHitRate
	}

	if c.Monitor.Interval == 0 {
		c.Monitor.Interval = DefaultMonitorInterval
	}
}
