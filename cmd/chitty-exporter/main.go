package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/chittycan/gateway-exporter/internal/app"
	"github.com/chittycan/gateway-exporter/internal/config"
	"github.com/chittycan/gateway-exporter/internal/generator"
	"github.com/chittycan/gateway-exporter/internal/version"
)

const sampleRequests = 1000

func main() {
	cmd := &cli.Command{
		Name:    "chitty-exporter",
		Usage:   "Prometheus metrics exporter for the ChittyCan gateway",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to configuration file",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "listen port (overrides configuration)",
			},
			&cli.BoolFlag{
				Name:  "sample-data",
				Usage: "seed the registry with generated sample metrics",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Action: serve,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	logLevel := slog.LevelInfo
	if cmd.Bool("debug") {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting chitty-exporter", "version", version.String())

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if port := cmd.Int("port"); port != 0 {
		cfg.Listen.Port = int(port)
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	if cmd.Bool("sample-data") {
		if err := generator.Seed(application.Instruments, cfg.Simulation, sampleRequests); err != nil {
			return fmt.Errorf("failed to seed sample data: %w", err)
		}
	}

	// Setup graceful shutdown
	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if application.Generator != nil {
		application.Generator.Run(shutdownCtx)
		defer application.Generator.Wait()
	}

	if application.Monitor != nil {
		application.Monitor.Run(shutdownCtx)
		defer application.Monitor.Wait()
	}

	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	wg.Go(func() {
		if err := application.Server.Start(shutdownCtx); err != nil {
			errChan <- fmt.Errorf("server: %w", err)
		}
	})

	if application.OTELExporter != nil {
		wg.Go(func() {
			if err := application.OTELExporter.Start(shutdownCtx); err != nil {
				errChan <- fmt.Errorf("otel exporter: %w", err)
			}
		})
	}

	slog.Info("scrape endpoint ready",
		"addr", fmt.Sprintf("http://localhost:%d%s", cfg.Listen.Port, cfg.Listen.MetricsPath))

	select {
	case err := <-errChan:
		slog.Error("component error", "error", err)
		stop()
	case <-shutdownCtx.Done():
	}

	wg.Wait()

	slog.Info("shutdown complete")
	return nil
}
