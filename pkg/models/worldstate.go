package models

import "time"

// PlacedItem is a build proposal that has been adopted into the world.
type PlacedItem struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Title    string  `json:"title"`
	ZoneID   string  `json:"zone_id"`
	ZoneName string  `json:"zone_name"`
	RadiusM  float64 `json:"radius_m,omitempty"`
	Emoji    string  `json:"emoji,omitempty"`
}

// AdoptedPolicy is a policy proposal that has been adopted into the world.
type AdoptedPolicy struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Outcome     string    `json:"outcome"`
	VotePercent float64   `json:"vote_percent"`
	Timestamp   time.Time `json:"timestamp"`
}

// RelationshipEdge is one directed, scored edge in the inter-agent
// relationship graph.
type RelationshipEdge struct {
	Score         float64    `json:"score"`
	LastReason    string     `json:"last_reason,omitempty"`
	LastMessage   string     `json:"last_message,omitempty"`
	StanceBefore  *Stance    `json:"stance_before,omitempty"`
	StanceAfter   *Stance    `json:"stance_after,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}

// RelationshipShift is a derived view of one edge's magnitude, used to
// surface the "top relationship shifts" in the world-state block.
type RelationshipShift struct {
	From  string  `json:"from"`
	To    string  `json:"to"`
	Score float64 `json:"score"`
}

// WorldState is the version-stamped snapshot of placed items, adopted
// policies, and relationship shifts injected into every agent prompt.
type WorldState struct {
	Version         int                 `json:"version"`
	PlacedItems     []PlacedItem        `json:"placed_items,omitempty"`
	AdoptedPolicies []AdoptedPolicy     `json:"adopted_policies,omitempty"`
	TopShifts       []RelationshipShift `json:"top_relationship_shifts,omitempty"`
}
