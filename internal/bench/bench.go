// Package bench measures latency and cost of an OpenAI-compatible endpoint
// by replaying one deterministic prompt, and compares a cached proxy against
// direct API access.
package bench

import (
	"context"
	"log/slog"
	"time"

	"github.com/chittycan/gateway-exporter/internal/gateway"
	"github.com/chittycan/gateway-exporter/internal/openai"
)

// Rough GPT-4 blended price in dollars per 1K tokens, assuming an average
// input/output split ($0.03 in, $0.06 out).
const dollarsPerKiloToken = 0.045

// Config defines one benchmark run.
type Config struct {
	BaseURL  string
	APIKey   string
	Model    string
	Prompt   string
	Requests int
}

// Result holds the measurements of one run.
type Result struct {
	Latencies     []float64 // seconds, one per completed request
	TotalTokens   int
	EstimatedCost float64 // dollars
	Errors        int
	Elapsed       time.Duration
}

// Completed returns the number of requests that finished successfully.
func (r *Result) Completed() int { return len(r.Latencies) }

// CostPerRequest returns the estimated average cost of one request.
func (r *Result) CostPerRequest() float64 {
	if len(r.Latencies) == 0 {
		return 0
	}
	return r.EstimatedCost / float64(len(r.Latencies))
}

// Run issues cfg.Requests identical chat completions, sequentially, against
// cfg.BaseURL. Temperature is pinned to zero so responses are cacheable.
// When instruments is non-nil every completed request is recorded into the
// registry.
func Run(ctx context.Context, cfg Config, instruments *gateway.Instruments) (*Result, error) {
	client := openai.NewClient(cfg.BaseURL, cfg.APIKey)
	result := &Result{}

	slog.Info("running benchmark", "endpoint", cfg.BaseURL, "requests", cfg.Requests)
	start := time.Now()

	for i := 0; i < cfg.Requests; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		reqStart := time.Now()
		resp, err := client.ChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       cfg.Model,
			Messages:    []openai.Message{{Role: "user", Content: cfg.Prompt}},
			Temperature: 0,
		})
		if err != nil {
			slog.Warn("request failed", "request", i+1, "error", err)
			result.Errors++
			continue
		}

		latency := time.Since(reqStart).Seconds()
		result.Latencies = append(result.Latencies, latency)
		if resp.Usage != nil {
			result.TotalTokens += resp.Usage.TotalTokens
		}

		if instruments != nil {
			cost := 0.0
			if resp.Usage != nil {
				// Gateway cost metric is in cents.
				cost = float64(resp.Usage.TotalTokens) / 1000 * dollarsPerKiloToken * 100
			}
			_ = instruments.RecordRequest(cfg.Model, "bench", latency, false, cost)
		}

		if (i+1)%100 == 0 {
			slog.Info("progress", "completed", i+1, "total", cfg.Requests)
		}
	}

	result.Elapsed = time.Since(start)
	result.EstimatedCost = float64(result.TotalTokens) / 1000 * dollarsPerKiloToken

	slog.Info("benchmark complete",
		"completed", result.Completed(),
		"errors", result.Errors,
		"elapsed", result.Elapsed.Round(time.Millisecond))

	return result, nil
}
