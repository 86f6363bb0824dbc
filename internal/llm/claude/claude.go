package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"market-digest/internal/interfaces"
	"market-digest/internal/llm"
	"market-digest/internal/trace"
	"market-digest/internal/types"
)

// defaultMaxTokens applies when the request leaves the cap unset; the
// Messages API requires one.
const defaultMaxTokens = 1024

// Completer calls the Anthropic Messages API.
type Completer struct {
	client anthropic.Client
	model  string
}

var _ interfaces.Completer = (*Completer)(nil)

func New(apiKey, model string, opts ...option.RequestOption) *Completer {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Completer{client: anthropic.NewClient(opts...), model: model}
}

func (c *Completer) Model() string { return c.model }

func (c *Completer) Complete(ctx context.Context, req types.CompletionRequest) (string, error) {
	ctx, span := trace.StartSpan(ctx, "claude-api-call")
	defer span.End()

	resp, err := c.client.Messages.New(ctx, c.params(req))
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", llm.ErrNoContent
	}
	return strings.TrimSpace(out.String()), nil
}

// params folds consecutive messages of one role into a single turn, since
// the Messages API expects user and assistant turns to alternate.
func (c *Completer) params(req types.CompletionRequest) anthropic.MessageNewParams {
	system, rest := llm.SplitSystem(req.Messages)

	var msgs []anthropic.MessageParam
	var blocks []anthropic.ContentBlockParamUnion
	role := ""
	flush := func() {
		if len(blocks) == 0 {
			return
		}
		if role == "assistant" {
			msgs = append(msgs, anthropic.NewAssistantMessage(blocks...))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(blocks...))
		}
		blocks = nil
	}
	for _, m := range rest {
		r := types.RoleUser
		if m.Role == "assistant" {
			r = "assistant"
		}
		if r != role {
			flush()
			role = r
		}
		blocks = append(blocks, anthropic.NewTextBlock(m.Content))
	}
	flush()

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	p := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   maxTokens,
		Messages:    msgs,
		Temperature: anthropic.Float(req.Temperature),
	}
	if system != "" {
		p.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return p
}
