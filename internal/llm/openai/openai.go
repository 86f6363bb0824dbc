package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"market-digest/internal/interfaces"
	"market-digest/internal/llm"
	"market-digest/internal/trace"
	"market-digest/internal/types"
)

// Completer calls the OpenAI chat completions API.
type Completer struct {
	client openai.Client
	model  string
}

var _ interfaces.Completer = (*Completer)(nil)

func New(apiKey, model string, opts ...option.RequestOption) *Completer {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Completer{client: openai.NewClient(opts...), model: model}
}

func (c *Completer) Model() string { return c.model }

func (c *Completer) Complete(ctx context.Context, req types.CompletionRequest) (string, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	resp, err := c.client.Chat.Completions.New(ctx, c.params(req))
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", llm.ErrNoContent
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Completer) params(req types.CompletionRequest) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case types.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	p := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    msgs,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		p.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	return p
}
