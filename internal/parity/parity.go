// Package parity validates that an endpoint is a drop-in replacement for the
// OpenAI API by asserting on response shapes for chat, completions,
// embeddings, streaming and error handling.
package parity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chittycan/gateway-exporter/internal/openai"
)

// Check is one compatibility assertion suite.
type Check struct {
	Name string
	Run  func(ctx context.Context, client *openai.Client) error
}

// Result is the outcome of one check. Err is nil on pass.
type Result struct {
	Name string
	Err  error
}

// Checks returns the suite in its fixed run order.
func Checks() []Check {
	return []Check{
		{Name: "chat completions", Run: checkChat},
		{Name: "text completions", Run: checkCompletion},
		{Name: "embeddings", Run: checkEmbeddings},
		{Name: "streaming", Run: checkStreaming},
		{Name: "error handling", Run: checkErrorHandling},
	}
}

// Run executes every check against the client and collects the results.
func Run(ctx context.Context, client *openai.Client) []Result {
	checks := Checks()
	results := make([]Result, 0, len(checks))
	for _, check := range checks {
		results = append(results, Result{Name: check.Name, Err: check.Run(ctx, client)})
	}
	return results
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if r.Err != nil {
			return false
		}
	}
	return true
}

func checkChat(ctx context.Context, client *openai.Client) error {
	resp, err := client.ChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       "gpt-4",
		Messages:    []openai.Message{{Role: "user", Content: "Say hi in 3 words"}},
		MaxTokens:   16,
		Temperature: 0,
	})
	if err != nil {
		return err
	}

	if resp.ID == "" {
		return errors.New("chat missing id")
	}
	if resp.Object == "" {
		return errors.New("chat missing object")
	}
	if len(resp.Choices) == 0 {
		return errors.New("chat missing choices")
	}
	if resp.Usage == nil {
		return errors.New("chat missing usage")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return errors.New("chat content empty")
	}
	lower := strings.ToLower(content)
	if !strings.Contains(lower, "hi") && !strings.Contains(lower, "hello") {
		return fmt.Errorf("chat content sanity check failed: %q", content)
	}

	if resp.Usage.TotalTokens <= 0 {
		return errors.New("chat usage tokens missing")
	}
	return nil
}

func checkCompletion(ctx context.Context, client *openai.Client) error {
	resp, err := client.Completion(ctx, openai.CompletionRequest{
		Model:       "text-davinci-003",
		Prompt:      "2+2 =",
		MaxTokens:   5,
		Temperature: 0,
	})
	if err != nil {
		return err
	}

	if len(resp.Choices) == 0 {
		return errors.New("completion missing choices")
	}
	if resp.Usage == nil {
		return errors.New("completion missing usage")
	}
	if resp.Choices[0].Text == "" {
		return errors.New("completion text empty")
	}
	return nil
}

func checkEmbeddings(ctx context.Context, client *openai.Client) error {
	resp, err := client.Embeddings(ctx, openai.EmbeddingsRequest{
		Model: "text-embedding-3-small",
		Input: "hello world",
	})
	if err != nil {
		return err
	}

	if len(resp.Data) == 0 {
		return errors.New("embedding missing data")
	}
	if resp.Object == "" {
		return errors.New("embedding missing object")
	}
	if len(resp.Data[0].Embedding) <= 100 {
		return errors.New("embedding vector too short")
	}
	return nil
}

func checkStreaming(ctx context.Context, client *openai.Client) error {
	stream, err := client.ChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    "gpt-4",
		Messages: []openai.Message{{Role: "user", Content: "Count to 3"}},
	})
	if err != nil {
		return err
	}
	defer stream.Close()

	chunks := 0
	var content strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		chunks++
		if len(chunk.Choices) == 0 {
			return errors.New("stream chunk missing choices")
		}
		content.WriteString(chunk.Choices[0].Delta.Content)
	}

	if chunks == 0 {
		return errors.New("stream no chunks received")
	}
	if content.Len() == 0 {
		return errors.New("stream no content received")
	}
	return nil
}

func checkErrorHandling(ctx context.Context, client *openai.Client) error {
	_, err := client.ChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    "invalid-model-does-not-exist",
		Messages: []openai.Message{{Role: "user", Content: "test"}},
	})
	if err == nil {
		return errors.New("error handling should have failed the request")
	}

	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("expected API error, got: %w", err)
	}
	return nil
}
