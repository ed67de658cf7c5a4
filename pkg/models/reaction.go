package models

// Stance is the agent's or zone's overall disposition toward a proposal.
type Stance string

const (
	StanceSupport Stance = "support"
	StanceOppose  Stance = "oppose"
	StanceNeutral Stance = "neutral"
)

// Sign returns +1, -1, or 0 for support/oppose/neutral respectively,
// per the stance-to-sign mapping.
func (s Stance) Sign() float64 {
	switch s {
	case StanceSupport:
		return 1
	case StanceOppose:
		return -1
	default:
		return 0
	}
}

// ZoneEffect is one zone-scoped consequence an agent calls out in its
// reaction (e.g. "increases foot traffic in riverside").
type ZoneEffect struct {
	ZoneID    string  `json:"zone_id"`
	Effect    string  `json:"effect"`
	Intensity float64 `json:"intensity"`
}

// AgentReaction is one agent's structured response to a proposal.
type AgentReaction struct {
	AgentKey          string       `json:"agent_key"`
	DisplayName       string       `json:"display_name"`
	Stance            Stance       `json:"stance"`
	Intensity         float64      `json:"intensity"`
	SupportReasons    []string     `json:"support_reasons,omitempty"`
	Concerns          []string     `json:"concerns,omitempty"`
	Quote             string       `json:"quote,omitempty"`
	WhatWouldChange   []string     `json:"what_would_change_my_mind,omitempty"`
	ZoneEffects       []ZoneEffect `json:"zone_effects,omitempty"`
	ProposedAmendments []string    `json:"proposed_amendments,omitempty"`
}

const (
	maxReasons         = 3
	maxConcerns        = 3
	maxWhatWouldChange = 3
	maxAmendments      = 3
	maxQuoteRunes      = 150
)

// QuoteAttributions collects the top supporting/opposing quotes for a zone.
type QuoteAttributions struct {
	TopSupport []string `json:"top_support,omitempty"`
	TopOppose  []string `json:"top_oppose,omitempty"`
}

// ZoneSentiment is the pure projection of one reaction onto its zone
//. If no reaction exists for a zone, it is emitted neutral
// with score 0 and empty quote lists.
type ZoneSentiment struct {
	ZoneID   string            `json:"zone_id"`
	ZoneName string            `json:"zone_name"`
	Sentiment Stance           `json:"sentiment"`
	Score    float64           `json:"score"`
	Quotes   QuoteAttributions `json:"quotes"`
}

// Turn is one line of the moderated debate transcript.
type Turn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Transcript is the Moderator's output: a summary, an ordered sequence of
// turns, and up to three compromise options.
type Transcript struct {
	Summary           string   `json:"summary"`
	Turns             []Turn   `json:"turns"`
	CompromiseOptions []string `json:"compromise_options,omitempty"`
}
