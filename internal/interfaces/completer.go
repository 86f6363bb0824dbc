package interfaces

import (
	"context"

	"market-digest/internal/types"
)

// Completer is a black-box text-generation backend returning one completion.
type Completer interface {
	Complete(ctx context.Context, req types.CompletionRequest) (string, error)
	Model() string
}
