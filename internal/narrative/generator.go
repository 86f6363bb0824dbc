// Package narrative turns a fact bundle into the advisor and client texts.
package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"market-digest/internal/interfaces"
	"market-digest/internal/logger"
	"market-digest/internal/types"
)

// ErrEmptyCompletion marks a stage whose backend returned only whitespace.
var ErrEmptyCompletion = errors.New("empty completion")

type advisorPayload struct {
	FactBundle types.FactBundle `json:"FACT_BUNDLE"`
}

type clientPayload struct {
	FactBundle   types.FactBundle `json:"FACT_BUNDLE"`
	AdvisorBrief string           `json:"ADVISOR_BRIEF"`
}

// Generator runs the two stages back to back. Stages are never retried.
type Generator struct {
	completer   interfaces.Completer
	temperature float64
	maxTokens   int
}

func NewGenerator(completer interfaces.Completer, temperature float64, maxTokens int) *Generator {
	return &Generator{completer: completer, temperature: temperature, maxTokens: maxTokens}
}

// Generate returns the pair, or the error of the first stage that failed.
func (g *Generator) Generate(ctx context.Context, bundle types.FactBundle) types.Result[types.NarrativePair] {
	timer := logger.StartOperation(ctx, "narrative.Generate", "model", g.completer.Model())
	ctx = timer.Context()

	advisor, err := g.stage(ctx, advisorPayload{FactBundle: bundle}, AdvisorPrompt)
	if err != nil {
		err = fmt.Errorf("advisor stage: %w", err)
		timer.EndWithError(err)
		return types.Fail[types.NarrativePair](err)
	}

	client, err := g.stage(ctx, clientPayload{FactBundle: bundle, AdvisorBrief: advisor}, ClientPrompt)
	if err != nil {
		err = fmt.Errorf("client stage: %w", err)
		timer.EndWithError(err)
		return types.Fail[types.NarrativePair](err)
	}

	timer.End()
	return types.Ok(types.NarrativePair{AdvisorText: advisor, ClientText: client})
}

// Narrate never fails: any stage error replaces both texts with the
// fallback pair.
func (g *Generator) Narrate(ctx context.Context, bundle types.FactBundle) types.NarrativePair {
	res := g.Generate(ctx, bundle)
	pair := res.Value
	if !res.IsOk() {
		pair = Fallback(res.Err)
	}
	logger.Narrative(ctx, pair.Fallback, WordCount(pair.AdvisorText), WordCount(pair.ClientText), "model", g.completer.Model())
	return pair
}

func (g *Generator) stage(ctx context.Context, payload any, task string) (string, error) {
	facts, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	out, err := g.completer.Complete(ctx, types.CompletionRequest{
		Messages: []types.Message{
			{Role: types.RoleSystem, Content: SystemPrompt},
			{Role: types.RoleUser, Content: string(facts)},
			{Role: types.RoleUser, Content: task},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}

// Fallback is the canned pair sent when generation fails. Only the advisor
// text carries the error detail.
func Fallback(err error) types.NarrativePair {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	return types.NarrativePair{
		AdvisorText: fmt.Sprintf(fallbackAdvisor, reason),
		ClientText:  fallbackClient,
		Fallback:    true,
	}
}

func WordCount(s string) int { return len(strings.Fields(s)) }
