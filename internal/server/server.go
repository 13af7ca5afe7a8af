// Package server exposes the registry over HTTP: the scrape path, a liveness
// path, and nothing else.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/chittycan/gateway-exporter/internal/metrics"
)

// Internal scrape instrumentation, recorded into the served registry itself.
const (
	scrapesTotalName   = "chitty_exporter_scrapes_total"
	scrapeDurationName = "chitty_exporter_scrape_duration_seconds"
)

var scrapeDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}

// Server serves the metrics scrape endpoint and the health endpoint.
type Server struct {
	addr        string
	metricsPath string
	healthPath  string
	registry    *metrics.Registry
	server      *http.Server
}

// New creates a server for the given registry. Scrape self-metrics are
// registered on the same registry.
func New(port int, metricsPath, healthPath string, registry *metrics.Registry) *Server {
	registry.RegisterCounter(scrapesTotalName,
		"Total number of scrape requests")
	registry.RegisterHistogram(scrapeDurationName,
		"Duration of scrape requests in seconds", scrapeDurationBuckets)

	addr := fmt.Sprintf(":%d", port)
	s := &Server{
		addr:        addr,
		metricsPath: metricsPath,
		healthPath:  healthPath,
		registry:    registry,
	}
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	return s
}

// Handler returns the HTTP handler: GET <metricsPath> renders the registry,
// GET <healthPath> answers the liveness probe, any other path is a 404 with
// an empty body.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case s.metricsPath:
			s.handleScrape(w, r)
		case s.healthPath:
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

// handleScrape renders a point-in-time snapshot of the registry.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	slog.Debug("scrape", "remote", r.RemoteAddr)

	body := metrics.Render(s.registry.Snapshot())

	w.Header().Set("Content-Type", metrics.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)

	// Instrument after the response so the scrape a client sees never
	// includes its own request.
	_ = s.registry.RecordCounter(scrapesTotalName, nil, 1)
	_ = s.registry.RecordObservation(scrapeDurationName, nil, time.Since(start).Seconds())
}

// Start begins serving HTTP requests and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		slog.Info("starting server", "addr", s.addr, "metrics", s.metricsPath, "health", s.healthPath)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return s.shutdown()
	}
}

// shutdown gracefully stops the server.
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down server")
	return s.server.Shutdown(ctx)
}
