package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ChatStream reads server-sent chat completion chunks.
type ChatStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

// ChatCompletionStream starts a streaming chat completion. The caller must
// Close the stream.
func (c *Client) ChatCompletionStream(ctx context.Context, req ChatCompletionRequest) (*ChatStream, error) {
	req.Stream = true

	resp, err := c.send(ctx, "/chat/completions", req)
	if err != nil {
		return nil, err
	}

	return &ChatStream{
		body:    resp.Body,
		scanner: bufio.NewScanner(resp.Body),
	}, nil
}

// Recv returns the next chunk, or io.EOF when the stream is done.
func (s *ChatStream) Recv() (*ChatCompletionChunk, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return nil, io.EOF
		}

		var chunk ChatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil, fmt.Errorf("failed to decode stream chunk: %w", err)
		}
		return &chunk, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Close releases the underlying response body.
func (s *ChatStream) Close() error {
	return s.body.Close()
}
