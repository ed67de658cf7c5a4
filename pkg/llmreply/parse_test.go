package llmreply

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reaction struct {
	Stance string `json:"stance"`
	Reason string `json:"reason"`
}

func TestParseInto_StrictJSON(t *testing.T) {
	var r reaction
	err := ParseInto(`{"stance":"support","reason":"good for traffic"}`, &r)
	require.NoError(t, err)
	assert.Equal(t, "support", r.Stance)
}

func TestParseInto_StripsMarkdownFence(t *testing.T) {
	var r reaction
	input := "```json\n{\"stance\":\"oppose\",\"reason\":\"too loud\"}\n```"
	err := ParseInto(input, &r)
	require.NoError(t, err)
	assert.Equal(t, "oppose", r.Stance)
}

func TestParseInto_RepairsTrailingComma(t *testing.T) {
	var r reaction
	err := ParseInto(`{"stance":"support","reason":"fine",}`, &r)
	require.NoError(t, err)
	assert.Equal(t, "support", r.Stance)
}

func TestParseInto_UnwrapsSingleElementArray(t *testing.T) {
	var r reaction
	err := ParseInto(`[{"stance":"neutral","reason":"no strong opinion"}]`, &r)
	require.NoError(t, err)
	assert.Equal(t, "neutral", r.Stance)
}

func TestParseInto_NoJSONFound(t *testing.T) {
	var r reaction
	err := ParseInto("   ", &r)
	assert.ErrorIs(t, err, ErrNoJSONFound)
}

func TestExtractJSON_StripsSurroundingProse(t *testing.T) {
	input := "Sure, here is my reaction:\n{\"stance\":\"support\"}\nHope that helps!"
	assert.Equal(t, `{"stance":"support"}`, ExtractJSON(input))
}
