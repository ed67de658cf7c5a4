package reactor

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/civicsim/orchestrator/pkg/models"
)

const (
	maxListItems  = 3
	maxQuoteRunes = 150
)

// normalizeReaction turns a raw upstream reply into a typed AgentReaction:
// stance defaults to neutral, intensity is clamped to [0,1], string lists
// are deduplicated from mixed string/object inputs by picking the first
// string value, and lists are truncated to their documented max.
func normalizeReaction(raw rawReaction, agentKey, displayName string) models.AgentReaction {
	stance := models.Stance(strings.ToLower(raw.Stance))
	switch stance {
	case models.StanceSupport, models.StanceOppose, models.StanceNeutral:
	default:
		stance = models.StanceNeutral
	}

	return models.AgentReaction{
		AgentKey:           agentKey,
		DisplayName:        displayName,
		Stance:             stance,
		Intensity:          clampUnit(raw.Intensity),
		SupportReasons:     truncateList(dedup(normalizeStringList(raw.SupportReasons))),
		Concerns:           truncateList(dedup(normalizeStringList(raw.Concerns))),
		Quote:              truncateRunes(raw.Quote, maxQuoteRunes),
		WhatWouldChange:    truncateList(dedup(normalizeStringList(raw.WhatWouldChange))),
		ZoneEffects:        normalizeZoneEffects(raw.ZoneEffects),
		ProposedAmendments: truncateList(dedup(normalizeStringList(raw.ProposedAmendments))),
	}
}

// normalizeStringList tolerates a model that emits a list of objects
// instead of a list of strings by taking the first string-valued field
// of each object, in field order. Items that are neither a string nor an
// object with a string field are dropped.
func normalizeStringList(items []json.RawMessage) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		if s, ok := firstStringField(item); ok {
			out = append(out, s)
		}
	}
	return out
}

// firstStringField decodes a JSON object and returns the value of its
// first string-valued field, in field order.
func firstStringField(raw json.RawMessage) (string, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return "", false
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return "", false
	}
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return "", false
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return "", false
		}
		if s, ok := val.(string); ok {
			return s, true
		}
	}
	return "", false
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// dedup removes empty and duplicate entries, preserving first-seen order.
// It exists separately from truncateList because a model occasionally
// repeats the same concern worded identically twice.
func dedup(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func truncateList(items []string) []string {
	if len(items) > maxListItems {
		return items[:maxListItems]
	}
	return items
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}

func normalizeZoneEffects(raw []rawZoneEffect) []models.ZoneEffect {
	out := make([]models.ZoneEffect, 0, len(raw))
	for _, e := range raw {
		if e.ZoneID == "" {
			continue
		}
		out = append(out, models.ZoneEffect{
			ZoneID:    e.ZoneID,
			Effect:    e.Effect,
			Intensity: clampUnit(e.Intensity),
		})
	}
	return out
}
