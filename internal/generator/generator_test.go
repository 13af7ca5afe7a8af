package generator

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/neox5/simv/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chittycan/gateway-exporter/internal/config"
	"github.com/chittycan/gateway-exporter/internal/gateway"
	"github.com/chittycan/gateway-exporter/internal/metrics"
)

// simv sources require the global seed registry to be initialized once
// before any source is created.
func TestMain(m *testing.M) {
	seed.Init(1)
	os.Exit(m.Run())
}

func simulationConfig() config.SimulationConfig {
	return config.SimulationConfig{
		Enabled:      true,
		Interval:     time.Millisecond,
		Models:       []string{"gpt-4", "claude-sonnet"},
		Tenants:      []string{"tenant-a", "tenant-b"},
		CacheHitRate: 0.7,
	}
}

// requestTotal sums chitty_requests_total across all series.
func requestTotal(registry *metrics.Registry) float64 {
	family, ok := registry.Snapshot().Family(gateway.RequestsTotal)
	if !ok {
		return 0
	}
	total := 0.0
	for _, s := range family.Series {
		total += s.Value
	}
	return total
}

func TestSeed(t *testing.T) {
	registry := metrics.New()
	instruments := gateway.New(registry)
	cfg := simulationConfig()

	require.NoError(t, Seed(instruments, cfg, 1000))

	snap := registry.Snapshot()

	assert.Equal(t, 1000.0, requestTotal(registry))

	// Every observed duration falls inside the simulated range.
	duration, ok := snap.Family(gateway.RequestDuration)
	require.True(t, ok)
	var count uint64
	for _, s := range duration.Series {
		count += s.Count
		assert.LessOrEqual(t, s.Sum, float64(s.Count)*2.0)
		assert.GreaterOrEqual(t, s.Sum, float64(s.Count)*0.05)
	}
	assert.Equal(t, uint64(1000), count)

	// With a 0.7 hit rate over 1000 requests the hit counter lands well
	// inside [500, 900].
	var hits float64
	if family, ok := snap.Family(gateway.CacheHitsTotal); ok {
		for _, s := range family.Series {
			hits += s.Value
		}
	}
	assert.Greater(t, hits, 500.0)
	assert.Less(t, hits, 900.0)
}

func TestSeedUsesConfiguredLabels(t *testing.T) {
	registry := metrics.New()
	instruments := gateway.New(registry)
	cfg := simulationConfig()

	require.NoError(t, Seed(instruments, cfg, 50))

	family, ok := registry.Snapshot().Family(gateway.RequestsTotal)
	require.True(t, ok)

	models := map[string]bool{"gpt-4": true, "claude-sonnet": true}
	tenants := map[string]bool{"tenant-a": true, "tenant-b": true}
	for _, s := range family.Series {
		model, _ := s.Labels.Get("model")
		tenant, _ := s.Labels.Get("tenant")
		assert.True(t, models[model], "unexpected model %q", model)
		assert.True(t, tenants[tenant], "unexpected tenant %q", tenant)
	}
}

func TestGeneratorRunRecordsRequests(t *testing.T) {
	registry := metrics.New()
	instruments := gateway.New(registry)
	cfg := simulationConfig()

	g := New(instruments, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	g.Run(ctx)

	require.Eventually(t, func() bool {
		return requestTotal(registry) >= 5
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	g.Wait()
}

func TestClampIndex(t *testing.T) {
	assert.Equal(t, 0, clampIndex(-1, 3))
	assert.Equal(t, 1, clampIndex(1, 3))
	assert.Equal(t, 2, clampIndex(5, 3))
}
