package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	if c.Listen.Port < 1 || c.Listen.Port > 65535 {
		return fmt.Errorf("listen port %d out of range", c.Listen.Port)
	}
	if !strings.HasPrefix(c.Listen.MetricsPath, "/") {
		return fmt.Errorf("metrics path %q must start with /", c.Listen.MetricsPath)
	}
	if !strings.HasPrefix(c.Listen.HealthPath, "/") {
		return fmt.Errorf("health path %q must start with /", c.Listen.HealthPath)
	}
	if c.Listen.MetricsPath == c.Listen.HealthPath {
		return fmt.Errorf("metrics and health paths must differ")
	}

	if otel := c.Export.OTEL; otel != nil && otel.Enabled {
		if otel.Endpoint == "" {
			return fmt.Errorf("otel export enabled but endpoint is empty")
		}
		if otel.Protocol != "http" && otel.Protocol != "grpc" {
			return fmt.Errorf("otel protocol %q must be http or grpc", otel.Protocol)
		}
		if otel.Interval <= 0 {
			return fmt.Errorf("otel push interval must be positive")
		}
	}

	if c.Simulation.Enabled {
		if c.Simulation.Interval <= 0 {
			return fmt.Errorf("simulation interval must be positive")
		}
		if c.Simulation.CacheHitRate < 0 || c.Simulation.CacheHitRate > 1 {
			return fmt.Errorf("cache hit rate %v must be within [0, 1]", c.Simulation.CacheHitRate)
		}
	}

	if c.Monitor.Enabled && c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor interval must be positive")
	}

	return nil
}
