package api

// SimulateRequest is the HTTP request body for POST /simulate/sync and
// POST /simulate/start.
type SimulateRequest struct {
	SessionID     string            `json:"session_id,omitempty"`
	ScenarioID    string            `json:"scenario_id"`
	Message       string            `json:"message"`
	AgentModels   map[string]string `json:"agent_models,omitempty"`
	AgentPersonas map[string]string `json:"agent_personas,omitempty"`
	Mode          string            `json:"mode,omitempty"`
}

// DMRequest is the HTTP request body for POST /dm.
type DMRequest struct {
	SessionID     string `json:"session_id"`
	From          string `json:"from"`
	To            string `json:"to"`
	Message       string `json:"message"`
	ProposalTitle string `json:"proposal_title,omitempty"`
}

// AdoptRequest is the HTTP request body for POST /adopt.
type AdoptRequest struct {
	SessionID string        `json:"session_id"`
	Event     DecisionEvent `json:"event"`
}

// DecisionEvent is the wire shape of the decision being adopted, decoded
// into an adopter.DecisionRecord by the handler.
type DecisionEvent struct {
	Kind           string              `json:"kind"`
	ProposalTitle  string              `json:"proposal_title"`
	ProposalKind   string              `json:"proposal_kind"`
	VotePercent    float64             `json:"vote_percent"`
	KeyQuotes      []string            `json:"key_quotes,omitempty"`
	ZoneSentiments []ZoneSentimentJSON `json:"zone_sentiments,omitempty"`
}

// ZoneSentimentJSON is the minimal zone-sentiment shape an adopt event
// carries; the full models.ZoneSentiment is reused directly where the
// orchestrator already produced one.
type ZoneSentimentJSON struct {
	ZoneID    string  `json:"zone_id"`
	ZoneName  string  `json:"zone_name"`
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
}

// SetOverrideRequest is the HTTP request body for PUT
// /overrides/:scenarioID/:agentKey.
type SetOverrideRequest struct {
	Model   string `json:"model,omitempty"`
	Persona string `json:"persona,omitempty"`
}

// CacheInvalidateRequest is the HTTP request body for POST
// /cache/invalidate. The agent_key field is accepted for
// shape-compatibility but the backend only invalidates per-scenario —
// see DESIGN.md.
type CacheInvalidateRequest struct {
	ScenarioID string `json:"scenario_id"`
	AgentKey   string `json:"agent_key,omitempty"`
}
