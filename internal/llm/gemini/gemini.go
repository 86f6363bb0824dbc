package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"market-digest/internal/interfaces"
	"market-digest/internal/llm"
	"market-digest/internal/trace"
	"market-digest/internal/types"
)

// Completer calls the Gemini API through the genai SDK.
type Completer struct {
	client *genai.Client
	model  string
}

var _ interfaces.Completer = (*Completer)(nil)

func New(ctx context.Context, apiKey, model string) (*Completer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Completer{client: client, model: model}, nil
}

func (c *Completer) Model() string { return c.model }

func (c *Completer) Complete(ctx context.Context, req types.CompletionRequest) (string, error) {
	ctx, span := trace.StartSpan(ctx, "gemini-api-call")
	defer span.End()

	contents, config := buildRequest(req)
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", llm.ErrNoContent
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", llm.ErrNoContent
	}
	return text, nil
}

func buildRequest(req types.CompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	system, rest := llm.SplitSystem(req.Messages)

	contents := make([]*genai.Content, 0, len(rest))
	for _, m := range rest {
		role := genai.RoleUser
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.Role(role)))
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return contents, config
}
