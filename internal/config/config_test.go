package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultPort, cfg.Listen.Port)
	assert.Equal(t, DefaultMetricsPath, cfg.Listen.MetricsPath)
	assert.Equal(t, DefaultHealthPath, cfg.Listen.HealthPath)
	assert.Nil(t, cfg.Export.OTEL)
	assert.False(t, cfg.Simulation.Enabled)
	assert.Equal(t, DefaultSimulationInterval, cfg.Simulation.Interval)
	assert.Equal(t, DefaultModels, cfg.Simulation.Models)
	assert.Equal(t, DefaultTenants, cfg.Simulation.Tenants)
	assert.Equal(t, DefaultCacheHitRate, cfg.Simulation.CacheHitRate)
	assert.Equal(t, DefaultMonitorInterval, cfg.Monitor.Interval)

	assert.NoError(t, cfg.Validate())
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
listen:
  port: 8080
  metrics_path: /prom
export:
  otel:
    enabled: true
    endpoint: collector:4317
    protocol: grpc
    interval: 5s
    headers:
      authorization: Bearer token
simulation:
  enabled: true
  interval: 250ms
  models: [gpt-4]
  tenants: [tenant-a, tenant-b]
  cache_hit_rate: 0.5
monitor:
  enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Listen.Port)
	assert.Equal(t, "/prom", cfg.Listen.MetricsPath)
	assert.Equal(t, "/health", cfg.Listen.HealthPath)

	require.NotNil(t, cfg.Export.OTEL)
	assert.True(t, cfg.Export.OTEL.Enabled)
	assert.Equal(t, "collector:4317", cfg.Export.OTEL.Endpoint)
	assert.Equal(t, "grpc", cfg.Export.OTEL.Protocol)
	assert.Equal(t, 5*time.Second, cfg.Export.OTEL.Interval)
	assert.Equal(t, "Bearer token", cfg.Export.OTEL.Headers["authorization"])
	assert.Equal(t, DefaultServiceName, cfg.Export.OTEL.Resource["service.name"])

	assert.True(t, cfg.Simulation.Enabled)
	assert.Equal(t, 250*time.Millisecond, cfg.Simulation.Interval)
	assert.Equal(t, []string{"gpt-4"}, cfg.Simulation.Models)
	assert.Equal(t, 0.5, cfg.Simulation.CacheHitRate)

	assert.True(t, cfg.Monitor.Enabled)
	assert.Equal(t, DefaultMonitorInterval, cfg.Monitor.Interval)
}

func TestLoadDefaultsOTELProtocol(t *testing.T) {
	path := writeConfig(t, `
export:
  otel:
    enabled: true
    endpoint: collector:4318
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http", cfg.Export.OTEL.Protocol)
	assert.Equal(t, DefaultOTELPushInterval, cfg.Export.OTEL.Interval)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "listen: [not a mapping")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Listen.Port = 70000 }},
		{"metrics path without slash", func(c *Config) { c.Listen.MetricsPath = "metrics" }},
		{"health path without slash", func(c *Config) { c.Listen.HealthPath = "health" }},
		{"identical paths", func(c *Config) { c.Listen.HealthPath = c.Listen.MetricsPath }},
		{"otel without endpoint", func(c *Config) {
			c.Export.OTEL = &OTELExportConfig{Enabled: true, Protocol: "http", Interval: time.Second}
		}},
		{"otel bad protocol", func(c *Config) {
			c.Export.OTEL = &OTELExportConfig{Enabled: true, Endpoint: "x:4317", Protocol: "udp", Interval: time.Second}
		}},
		{"simulation hit rate out of range", func(c *Config) {
			c.Simulation.Enabled = true
			c.Simulation.CacheHitRate = 1.5
		}},
		{"monitor interval", func(c *Config) {
			c.Monitor.Enabled = true
			c.Monitor.Interval = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
