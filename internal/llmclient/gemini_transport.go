package llmclient

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiTransport implements Transport against the Gemini-family
// generateContent endpoint (spec.md §6.3), grounded on kadirpekel-hector's
// pkg/model/gemini.geminiModel wiring of the same SDK. It sets the exact
// generation-config shape §6.3 specifies: temperature 0.1, max output
// tokens 8192, responseMimeType "application/json".
type GeminiTransport struct {
	client *genai.Client
	model  string
}

// NewGeminiTransport creates a GeminiTransport for the given model (e.g.
// "gemini-2.0-flash").
func NewGeminiTransport(ctx context.Context, apiKey, model string) (*GeminiTransport, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &GeminiTransport{client: client, model: model}, nil
}

// Complete sends prompt as the sole content part and returns the first
// candidate's concatenated text.
func (t *GeminiTransport) Complete(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(0.1)),
		MaxOutputTokens:  8192,
		ResponseMIMEType: "application/json",
	}

	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}

	resp, err := t.client.Models.GenerateContent(ctx, t.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: empty response")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		text += part.Text
	}
	if text == "" {
		return "", fmt.Errorf("gemini: no text content in response")
	}
	return text, nil
}
