// Package generator produces synthetic gateway traffic: a continuous
// simulation driven by simv value sources, and a one-shot seed mode for
// populating the registry with sample data.
package generator

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/neox5/simv/clock"
	"github.com/neox5/simv/source"
	"github.com/neox5/simv/value"

	"github.com/chittycan/gateway-exporter/internal/config"
	"github.com/chittycan/gateway-exporter/internal/gateway"
)

// Simulated request parameter ranges, mirroring the sample-data generator:
// durations between 50ms and 2s, cache misses costing 0.001 to 0.05 cents.
const (
	minDurationMs = 50
	maxDurationMs = 2000
	minCostMilli  = 1
	maxCostMilli  = 50
)

// Generator records one synthetic request per tick, with per-tick randomness
// drawn from simv sources.
type Generator struct {
	instruments *gateway.Instruments
	cfg         config.SimulationConfig

	clock      clock.Clock
	modelIdx   *value.Value[int]
	tenantIdx  *value.Value[int]
	durationMs *value.Value[int]
	costMilli  *value.Value[int]
	hitRoll    *value.Value[int]

	wg sync.WaitGroup
}

// New creates a generator from the simulation configuration.
func New(instruments *gateway.Instruments, cfg config.SimulationConfig) *Generator {
	clk := clock.NewPeriodicClock(cfg.Interval)

	return &Generator{
		instruments: instruments,
		cfg:         cfg,
		clock:       clk,
		modelIdx:    value.New(source.NewRandomIntSource(clk, 0, len(cfg.Models)-1)),
		tenantIdx:   value.New(source.NewRandomIntSource(clk, 0, len(cfg.Tenants)-1)),
		durationMs:  value.New(source.NewRandomIntSource(clk, minDurationMs, maxDurationMs)),
		costMilli:   value.New(source.NewRandomIntSource(clk, minCostMilli, maxCostMilli)),
		hitRoll:     value.New(source.NewRandomIntSource(clk, 0, 99)),
	}
}

// Run starts the simulation loop in a background goroutine and records one
// request per interval until ctx is cancelled.
func (g *Generator) Run(ctx context.Context) {
	g.clock.Start()

	g.wg.Go(func() {
		defer g.clock.Stop()

		slog.Info("starting traffic simulation",
			"interval", g.cfg.Interval,
			"models", len(g.cfg.Models),
			"tenants", len(g.cfg.Tenants),
			"cache_hit_rate", g.cfg.CacheHitRate)

		ticker := time.NewTicker(g.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("traffic simulation stopped")
				return
			case <-ticker.C:
				g.tick()
			}
		}
	})
}

// Wait blocks until the simulation goroutine exits.
func (g *Generator) Wait() {
	g.wg.Wait()
}

// tick records one synthetic request from the current source values.
func (g *Generator) tick() {
	model := g.cfg.Models[clampIndex(g.modelIdx.Value(), len(g.cfg.Models))]
	tenant := g.cfg.Tenants[clampIndex(g.tenantIdx.Value(), len(g.cfg.Tenants))]
	duration := float64(g.durationMs.Value()) / 1000

	cached := float64(g.hitRoll.Value()) < g.cfg.CacheHitRate*100
	cost := 0.0
	if !cached {
		cost = float64(g.costMilli.Value()) / 1000
	}

	if err := g.instruments.RecordRequest(model, tenant, duration, cached, cost); err != nil {
		slog.Warn("failed to record simulated request", "error", err)
	}
}

// clampIndex guards against source values outside the slice range.
func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Seed records n synthetic requests immediately. Used by the --sample-data
// flag to expose a populated scrape without live traffic.
func Seed(instruments *gateway.Instruments, cfg config.SimulationConfig, n int) error {
	slog.Info("generating sample metrics", "requests", n)

	for range n {
		model := cfg.Models[rand.IntN(len(cfg.Models))]
		tenant := cfg.Tenants[rand.IntN(len(cfg.Tenants))]
		duration := 0.05 + rand.Float64()*1.95
		cached := rand.Float64() < cfg.CacheHitRate

		cost := 0.0
		if !cached {
			cost = 0.001 + rand.Float64()*0.049
		}

		if err := instruments.RecordRequest(model, tenant, duration, cached, cost); err != nil {
			return err
		}
	}
	return nil
}
