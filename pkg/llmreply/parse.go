// Package llmreply normalizes and parses the free-text JSON replies the
// Interpreter, AgentReactor, and Moderator get back from the upstream
// gateway. Models wrap JSON in markdown fences,
// emit a one-element array instead of an object, or produce near-valid
// JSON with trailing commas or single quotes; this package absorbs that
// before the typed Unmarshal. Grounded in the agentic_valuation example's
// SmartParse cascade (pkg/core/utils/json_validator.go): try strict
// parsing first, then repair, rather than repairing unconditionally.
package llmreply

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
)

// ErrNoJSONFound is returned when a reply contains no JSON object or array
// at all, after fence-stripping.
var ErrNoJSONFound = errors.New("llmreply: no JSON object found in reply")

// ExtractJSON strips markdown code fences (```json ... ``` or ``` ... ```)
// around a reply and trims surrounding prose, returning the best-guess
// JSON substring. If the reply contains neither a fence nor a JSON object
// or array, it is returned trimmed.
func ExtractJSON(reply string) string {
	reply = strings.TrimSpace(reply)

	if fenced, ok := stripFence(reply); ok {
		return strings.TrimSpace(fenced)
	}

	start := strings.IndexAny(reply, "{[")
	if start < 0 {
		return reply
	}
	end := strings.LastIndexAny(reply, "}]")
	if end < start {
		return reply
	}
	return reply[start : end+1]
}

func stripFence(s string) (string, bool) {
	if !strings.HasPrefix(s, "```") {
		return "", false
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimPrefix(s, "JSON")
	s = strings.TrimPrefix(s, "\n")
	end := strings.LastIndex(s, "```")
	if end < 0 {
		return s, true
	}
	return s[:end], true
}

// ParseInto tries, in order: strict json.Unmarshal, then RealAlexandreAI/
// json-repair followed by a retry. If the repaired payload decodes to a
// non-empty JSON array, its first element is unwrapped and retried
// against out — a common LLM quirk of wrapping an object reply in an
// array, sometimes alongside other elements.
func ParseInto(reply string, out any) error {
	candidate := ExtractJSON(reply)
	if !strings.ContainsAny(candidate, "{[") {
		return ErrNoJSONFound
	}

	if err := json.Unmarshal([]byte(candidate), out); err == nil {
		return nil
	}

	repaired, repairErr := jsonrepair.RepairJSON(candidate)
	if repairErr != nil {
		return fmt.Errorf("llmreply: repair failed: %w", repairErr)
	}

	if err := json.Unmarshal([]byte(repaired), out); err == nil {
		return nil
	}

	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(repaired), &arr); err == nil && len(arr) > 0 {
		if err := json.Unmarshal(arr[0], out); err == nil {
			return nil
		}
	}

	return fmt.Errorf("llmreply: could not parse reply into target shape")
}
