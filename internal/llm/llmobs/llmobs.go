package llmobs

import (
	"context"
	"time"

	"market-digest/internal/interfaces"
	"market-digest/internal/logger"
	"market-digest/internal/trace"
	"market-digest/internal/types"
)

// observableCompleter wraps a Completer with observability (logging & tracing)
type observableCompleter struct {
	completer interfaces.Completer
}

// Compile-time interface check
var _ interfaces.Completer = (*observableCompleter)(nil)

// Wrap wraps a completer with observability middleware
func Wrap(completer interfaces.Completer) interfaces.Completer {
	return &observableCompleter{completer: completer}
}

func (oc *observableCompleter) Model() string { return oc.completer.Model() }

// Complete runs one completion with observability
func (oc *observableCompleter) Complete(ctx context.Context, req types.CompletionRequest) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Complete")
	defer span.End()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Requesting completion",
		"model", oc.completer.Model(),
		"messages", len(req.Messages),
		"temperature", req.Temperature,
		"max_tokens", req.MaxTokens,
	)

	start := time.Now()
	out, err := oc.completer.Complete(ctx, req)
	latency := time.Since(start)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Completion failed", err,
			"model", oc.completer.Model(),
			"latency_ms", latency.Milliseconds(),
		)
		return "", err
	}

	logger.InfoSkip(ctx, 1, "Completion received",
		"model", oc.completer.Model(),
		"chars", len(out),
		"latency_ms", latency.Milliseconds(),
	)
	return out, nil
}
