package metrics

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCounter(t *testing.T) {
	r := New()
	r.RegisterCounter("requests_total", "Total number of requests")
	require.NoError(t, r.RecordCounter("requests_total", Labels{"model": "gpt-4", "tenant": "t1"}, 100))

	out := string(Render(r.Snapshot()))

	assert.Contains(t, out, "# HELP requests_total Total number of requests\n")
	assert.Contains(t, out, "# TYPE requests_total counter\n")
	assert.Contains(t, out, `requests_total{model="gpt-4",tenant="t1"} 100`+"\n")
}

func TestRenderHistogram(t *testing.T) {
	r := New()
	r.RegisterHistogram("latency_seconds", "Request latency", []float64{0.01, 0.1, 0.5})
	require.NoError(t, r.RecordObservation("latency_seconds", Labels{"model": "gpt-4"}, 0.03))

	out := string(Render(r.Snapshot()))

	assert.Contains(t, out, "# TYPE latency_seconds histogram\n")
	assert.Contains(t, out, `latency_seconds_bucket{model="gpt-4",le="0.01"} 0`+"\n")
	assert.Contains(t, out, `latency_seconds_bucket{model="gpt-4",le="0.1"} 1`+"\n")
	assert.Contains(t, out, `latency_seconds_bucket{model="gpt-4",le="0.5"} 1`+"\n")
	assert.Contains(t, out, `latency_seconds_bucket{model="gpt-4",le="+Inf"} 1`+"\n")
	assert.Contains(t, out, `latency_seconds_sum{model="gpt-4"} 0.03`+"\n")
	assert.Contains(t, out, `latency_seconds_count{model="gpt-4"} 1`+"\n")
}

func TestRenderDeterministic(t *testing.T) {
	r := New()
	r.RegisterHistogram("latency_seconds", "Latency", []float64{0.1, 1})
	for _, model := range []string{"gpt-4", "claude-sonnet", "groq/llama-3-70b"} {
		require.NoError(t, r.RecordCounter("requests_total", Labels{"model": model, "tenant": "t1"}, 3))
		require.NoError(t, r.RecordObservation("latency_seconds", Labels{"model": model}, 0.25))
	}

	first := Render(r.Snapshot())
	second := Render(r.Snapshot())

	assert.True(t, bytes.Equal(first, second))
}

func TestRenderDerived(t *testing.T) {
	r := New()
	r.RegisterDerived("hit_rate", "Cache hit ratio", func(s *Snapshot) []Sample {
		requests, ok := s.Family("cache_requests_total")
		if !ok {
			return nil
		}
		samples := make([]Sample, 0, len(requests.Series))
		for _, series := range requests.Series {
			rate := 0.0
			if series.Value > 0 {
				model, _ := series.Labels.Get("model")
				hits, _ := s.Value("cache_hits_total", Labels{"model": model})
				rate = hits / series.Value
			}
			samples = append(samples, Sample{Labels: series.Labels, Value: rate})
		}
		return samples
	}, WithDecimals(4))

	t.Run("no inputs omits the family", func(t *testing.T) {
		out := string(Render(r.Snapshot()))
		assert.NotContains(t, out, "hit_rate")
	})

	t.Run("zero denominator renders literal zero", func(t *testing.T) {
		require.NoError(t, r.RecordCounter("cache_requests_total", Labels{"model": "gpt-4"}, 0))

		out := string(Render(r.Snapshot()))
		assert.Contains(t, out, "# TYPE hit_rate gauge\n")
		assert.Contains(t, out, `hit_rate{model="gpt-4"} 0`+"\n")
		assert.NotContains(t, out, "NaN")
	})

	t.Run("ratio renders with fixed decimals", func(t *testing.T) {
		require.NoError(t, r.RecordCounter("cache_requests_total", Labels{"model": "gpt-4"}, 4))
		require.NoError(t, r.RecordCounter("cache_hits_total", Labels{"model": "gpt-4"}, 3))

		out := string(Render(r.Snapshot()))
		assert.Contains(t, out, `hit_rate{model="gpt-4"} 0.7500`+"\n")
	})
}

func TestRenderFixedDecimals(t *testing.T) {
	r := New()
	r.RegisterCounter("cost_cents_total", "Cost in cents", WithDecimals(2))
	require.NoError(t, r.RecordCounter("cost_cents_total", Labels{"tenant": "t1"}, 1.5))

	out := string(Render(r.Snapshot()))
	assert.Contains(t, out, `cost_cents_total{tenant="t1"} 1.50`+"\n")
}

func TestRenderSkipsEmptyFamilies(t *testing.T) {
	r := New()
	r.RegisterCounter("requests_total", "Total requests")
	r.RegisterHistogram("latency_seconds", "Latency", []float64{1})

	assert.Empty(t, Render(r.Snapshot()))
}

func TestRenderEscaping(t *testing.T) {
	value := "back\\slash \"quoted\"\nnext"

	r := New()
	require.NoError(t, r.RecordCounter("requests_total", Labels{"model": value}, 1))

	out := Render(r.Snapshot())
	assert.Contains(t, string(out), `model="back\\slash \"quoted\"\nnext"`)

	// The official text parser must recover the original value.
	parser := expfmt.NewTextParser(model.LegacyValidation)
	families, err := parser.TextToMetricFamilies(bytes.NewReader(out))
	require.NoError(t, err)

	family, ok := families["requests_total"]
	require.True(t, ok)
	require.Len(t, family.GetMetric(), 1)

	labels := family.GetMetric()[0].GetLabel()
	require.Len(t, labels, 1)
	assert.Equal(t, "model", labels[0].GetName())
	assert.Equal(t, value, labels[0].GetValue())
}

func TestRenderParsesAsHistogram(t *testing.T) {
	r := New()
	r.RegisterHistogram("latency_seconds", "Latency", []float64{0.1, 1})
	require.NoError(t, r.RecordObservation("latency_seconds", Labels{"model": "gpt-4"}, 0.5))
	require.NoError(t, r.RecordObservation("latency_seconds", Labels{"model": "gpt-4"}, 0.05))

	parser := expfmt.NewTextParser(model.LegacyValidation)
	families, err := parser.TextToMetricFamilies(bytes.NewReader(Render(r.Snapshot())))
	require.NoError(t, err)

	family, ok := families["latency_seconds"]
	require.True(t, ok)
	require.Len(t, family.GetMetric(), 1)

	hist := family.GetMetric()[0].GetHistogram()
	require.NotNil(t, hist)
	assert.Equal(t, uint64(2), hist.GetSampleCount())
	assert.InDelta(t, 0.55, hist.GetSampleSum(), 1e-9)
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		value    float64
		expected string
	}{
		{0, "0"},
		{1, "1"},
		{100, "100"},
		{0.5, "0.5"},
		{0.03, "0.03"},
		{1234567, "1234567"},
		{math.Inf(1), "+Inf"},
		{math.Inf(-1), "-Inf"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatFloat(tt.value), "formatFloat(%v)", tt.value)
	}
}

func TestFormatBound(t *testing.T) {
	tests := []struct {
		bound    float64
		expected string
	}{
		{0.01, "0.01"},
		{0.1, "0.1"},
		{1, "1"},
		{2.5, "2.5"},
		{10, "10"},
		{math.Inf(1), "+Inf"},
	}

	for _, tt := range tests {
		got := formatBound(tt.bound)
		assert.Equal(t, tt.expected, got)
		assert.False(t, strings.ContainsAny(got, "eE"), "bound %v must not use scientific notation", tt.bound)
	}
}
