// Package promptschema renders the "respond with JSON only, matching this
// shape" schema block every prompt to the Interpreter, Reactor, and
// Moderator embeds. Reflects a Go struct into a JSON Schema via
// invopop/jsonschema, then flattens it to the compact map shape a prompt
// can render without a nested $defs section.
package promptschema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// reflector is shared across calls; invopop/jsonschema's Reflector holds
// no per-call state.
var reflector = &jsonschema.Reflector{
	RequiredFromJSONSchemaTags: true,
	ExpandedStruct:             true,
	DoNotReference:             true,
}

// Describe reflects T's JSON shape and renders it as indented JSON text
// suitable for embedding directly after a prompt's "respond with JSON only
// in this shape:" instruction.
func Describe[T any]() (string, error) {
	schema := reflector.Reflect(new(T))

	raw, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("promptschema: marshal schema: %w", err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", fmt.Errorf("promptschema: decode schema: %w", err)
	}
	delete(m, "$schema")
	delete(m, "$id")

	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("promptschema: render schema: %w", err)
	}
	return string(out), nil
}

// MustDescribe is Describe, panicking on error. Safe to use for schemas
// derived from fixed, compile-time-known result types, whose reflection
// can never fail at runtime.
func MustDescribe[T any]() string {
	s, err := Describe[T]()
	if err != nil {
		panic(err)
	}
	return s
}
