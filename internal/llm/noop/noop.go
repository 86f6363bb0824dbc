package noop

import (
	"context"

	"market-digest/internal/interfaces"
	"market-digest/internal/llm"
	"market-digest/internal/logger"
	"market-digest/internal/types"
)

// Completer is used when no LLM provider is configured. Every call fails
// with llm.ErrNoProvider, which sends the run down the fallback path.
type Completer struct{}

var _ interfaces.Completer = Completer{}

func New() Completer { return Completer{} }

func (Completer) Model() string { return "none" }

func (Completer) Complete(ctx context.Context, _ types.CompletionRequest) (string, error) {
	logger.Debug(ctx, "Noop completer called - no provider configured")
	return "", llm.ErrNoProvider
}
