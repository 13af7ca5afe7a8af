package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/chittycan/gateway-exporter/internal/bench"
	"github.com/chittycan/gateway-exporter/internal/openai"
	"github.com/chittycan/gateway-exporter/internal/parity"
	"github.com/chittycan/gateway-exporter/internal/version"
)

const defaultPrompt = "What is the API endpoint for user authentication?"

func main() {
	cmd := &cli.Command{
		Name:    "chitty-bench",
		Usage:   "Benchmark and parity checks for OpenAI-compatible gateways",
		Version: version.String(),
		Commands: []*cli.Command{
			cacheCommand(),
			parityCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Measure cost savings and latency improvements from edge caching",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "proxy-url",
				Value: "https://connect.chitty.cc/v1",
				Usage: "proxied (cached) API base URL",
			},
			&cli.StringFlag{
				Name:    "proxy-token",
				Sources: cli.EnvVars("CHITTYCAN_TOKEN"),
				Usage:   "bearer token for the proxy",
			},
			&cli.StringFlag{
				Name:  "direct-url",
				Value: "https://api.openai.com/v1",
				Usage: "direct API base URL",
			},
			&cli.StringFlag{
				Name:    "direct-token",
				Sources: cli.EnvVars("OPENAI_API_KEY"),
				Usage:   "bearer token for the direct API (skipped when empty)",
			},
			&cli.StringFlag{
				Name:  "model",
				Value: "gpt-4",
				Usage: "model to benchmark",
			},
			&cli.StringFlag{
				Name:  "prompt",
				Value: defaultPrompt,
				Usage: "prompt replayed on every request",
			},
			&cli.IntFlag{
				Name:  "requests",
				Value: 1000,
				Usage: "number of requests against the proxy",
			},
			&cli.IntFlag{
				Name:  "direct-requests",
				Value: 10,
				Usage: "number of requests against the direct API",
			},
		},
		Action: runCache,
	}
}

func runCache(ctx context.Context, cmd *cli.Command) error {
	if cmd.String("proxy-token") == "" {
		return fmt.Errorf("set CHITTYCAN_TOKEN or --proxy-token")
	}

	var direct *bench.Result
	if cmd.String("direct-token") != "" {
		var err error
		direct, err = bench.Run(ctx, bench.Config{
			BaseURL:  cmd.String("direct-url"),
			APIKey:   cmd.String("direct-token"),
			Model:    cmd.String("model"),
			Prompt:   cmd.String("prompt"),
			Requests: int(cmd.Int("direct-requests")),
		}, nil)
		if err != nil {
			return err
		}
		bench.WriteResult(os.Stdout, "Direct API", direct)
	} else {
		slog.Info("skipping direct benchmark, no direct token configured")
	}

	proxied, err := bench.Run(ctx, bench.Config{
		BaseURL:  cmd.String("proxy-url"),
		APIKey:   cmd.String("proxy-token"),
		Model:    cmd.String("model"),
		Prompt:   cmd.String("prompt"),
		Requests: int(cmd.Int("requests")),
	}, nil)
	if err != nil {
		return err
	}
	bench.WriteResult(os.Stdout, "ChittyCan (with cache)", proxied)

	if direct != nil {
		bench.WriteComparison(os.Stdout, direct, proxied)
	}
	return nil
}

func parityCommand() *cli.Command {
	return &cli.Command{
		Name:  "parity",
		Usage: "Validate drop-in OpenAI compatibility of an endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "base-url",
				Value:   "https://connect.chitty.cc/v1",
				Sources: cli.EnvVars("OPENAI_API_BASE"),
				Usage:   "API base URL under test",
			},
			&cli.StringFlag{
				Name:    "token",
				Sources: cli.EnvVars("CHITTYCAN_TOKEN", "OPENAI_API_KEY"),
				Usage:   "bearer token",
			},
		},
		Action: runParity,
	}
}

func runParity(ctx context.Context, cmd *cli.Command) error {
	if cmd.String("token") == "" {
		return fmt.Errorf("set CHITTYCAN_TOKEN, OPENAI_API_KEY or --token")
	}

	baseURL := cmd.String("base-url")
	fmt.Printf("Testing OpenAI compatibility at: %s\n", baseURL)

	client := openai.NewClient(baseURL, cmd.String("token"))
	results := parity.Run(ctx, client)

	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("FAIL  %s: %v\n", r.Name, r.Err)
		} else {
			fmt.Printf("OK    %s\n", r.Name)
		}
	}

	if !parity.Passed(results) {
		return fmt.Errorf("parity checks failed")
	}
	fmt.Println("\nAll checks passed: endpoint is OpenAI-compatible")
	return nil
}
