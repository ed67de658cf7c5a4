package promptschema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type exampleReaction struct {
	Stance string   `json:"stance" jsonschema:"required,enum=support|oppose|neutral"`
	Reason string   `json:"reason" jsonschema:"required,description=Why the agent takes this stance"`
	Tags   []string `json:"tags,omitempty"`
}

func TestDescribe_ProducesValidJSON(t *testing.T) {
	out, err := Describe[exampleReaction]()
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.NotContains(t, parsed, "$schema")
	assert.NotContains(t, parsed, "$id")
}

func TestDescribe_IncludesFieldNames(t *testing.T) {
	out, err := Describe[exampleReaction]()
	require.NoError(t, err)
	assert.Contains(t, out, "stance")
	assert.Contains(t, out, "reason")
}

func TestMustDescribe_DoesNotPanicForValidType(t *testing.T) {
	assert.NotPanics(t, func() {
		MustDescribe[exampleReaction]()
	})
}
