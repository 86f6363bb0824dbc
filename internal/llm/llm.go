// Package llm holds what the completion backends share. Each backend lives
// in its own subpackage and satisfies interfaces.Completer.
package llm

import (
	"errors"
	"strings"

	"market-digest/internal/types"
)

// ErrNoProvider is returned by the noop backend so a run without a
// configured provider still produces the fallback narrative.
var ErrNoProvider = errors.New("no completion provider configured")

// ErrNoContent means the backend answered without any text.
var ErrNoContent = errors.New("completion response had no content")

// SplitSystem separates system instructions from the conversation. Several
// system messages are joined with a blank line.
func SplitSystem(msgs []types.Message) (string, []types.Message) {
	var system []string
	rest := make([]types.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == types.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}
