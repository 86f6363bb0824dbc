package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"market-digest/internal/types"
)

func TestSplitSystem(t *testing.T) {
	system, rest := SplitSystem([]types.Message{
		{Role: types.RoleSystem, Content: "be brief"},
		{Role: types.RoleUser, Content: `{"FACT_BUNDLE":{}}`},
		{Role: types.RoleSystem, Content: "no advice"},
		{Role: types.RoleUser, Content: "write it"},
	})

	assert.Equal(t, "be brief\n\nno advice", system)
	assert.Equal(t, []types.Message{
		{Role: types.RoleUser, Content: `{"FACT_BUNDLE":{}}`},
		{Role: types.RoleUser, Content: "write it"},
	}, rest)
}

func TestSplitSystemNone(t *testing.T) {
	system, rest := SplitSystem(nil)
	assert.Empty(t, system)
	assert.Empty(t, rest)
}
