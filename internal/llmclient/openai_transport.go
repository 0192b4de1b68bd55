package llmclient

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	openailib "github.com/sashabaranov/go-openai"
)

// OpenAITransport implements Transport against the OpenAI-compatible chat
// completions API (spec.md §6.3), grounded on the teacher's
// internal/llm/openai.Client (HTTP timeout + retry-with-backoff).
type OpenAITransport struct {
	client     *openailib.Client
	model      string
	maxRetries int
}

// NewOpenAITransport creates an OpenAITransport. baseURL may be empty to
// use the default OpenAI endpoint. httpTimeout and maxRetries follow the
// teacher's defaults (300s, 1 retry) when <= 0.
func NewOpenAITransport(apiKey, baseURL, model string, httpTimeout time.Duration, maxRetries int) *OpenAITransport {
	if httpTimeout <= 0 {
		httpTimeout = 300 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = 1
	}
	cfg := openailib.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: httpTimeout}
	return &OpenAITransport{
		client:     openailib.NewClientWithConfig(cfg),
		model:      model,
		maxRetries: maxRetries,
	}
}

// Complete sends prompt as a single user message and returns the first
// choice's content, retrying transient transport errors with linear
// backoff (the teacher's pattern in openai.Client.CallLLM).
func (t *OpenAITransport) Complete(ctx context.Context, prompt string) (string, error) {
	req := openailib.ChatCompletionRequest{
		Model: t.model,
		Messages: []openailib.ChatCompletionMessage{
			{Role: openailib.ChatMessageRoleUser, Content: prompt},
		},
	}

	var resp openailib.ChatCompletionResponse
	var lastErr error
	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		resp, lastErr = t.client.CreateChatCompletion(ctx, req)
		if lastErr == nil {
			break
		}
		if attempt < t.maxRetries {
			wait := time.Duration(attempt+1) * time.Second
			log.Printf("[LLMClient] openai retry %d/%d after %v, error: %v", attempt+1, t.maxRetries, wait, lastErr)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("openai: chat completion failed after %d retries: %w", t.maxRetries, lastErr)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
