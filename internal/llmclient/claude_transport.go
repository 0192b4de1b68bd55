package llmclient

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeTransport implements Transport against the Claude-family messages
// endpoint (spec.md §6.3), grounded on goadesign-goa-ai's
// features/model/anthropic.Client wiring of the same SDK.
type ClaudeTransport struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewClaudeTransport creates a ClaudeTransport. model is the Claude model
// identifier (e.g. "claude-sonnet-4-20250514"); maxTokens defaults to 8192
// if <= 0, matching the generation-config shape §6.3 specifies for the
// sibling Gemini backend.
func NewClaudeTransport(apiKey, model string, maxTokens int64) *ClaudeTransport {
	if maxTokens <= 0 {
		maxTokens = 8192
	}
	return &ClaudeTransport{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Complete sends prompt as a single user message and returns the first
// text block of the reply.
func (t *ClaudeTransport) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := t.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(t.model),
		MaxTokens: t.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude: messages.new: %w", err)
	}
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("claude: no text content in response")
}
