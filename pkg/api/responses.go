package api

import "github.com/civicsim/orchestrator/pkg/models"

// JobIDResponse is returned by POST /simulate/start.
type JobIDResponse struct {
	JobID string `json:"job_id"`
}

// StatusResponse is returned by GET /simulate/status/:jobID.
type StatusResponse struct {
	Status           models.JobStatus                  `json:"status"`
	Progress         int                                `json:"progress"`
	Phase            models.JobPhase                    `json:"phase"`
	Message          string                              `json:"message"`
	CompletedAgents  int                                 `json:"completed_agents"`
	TotalAgents      int                                 `json:"total_agents"`
	PartialReactions []models.AgentReaction              `json:"partial_reactions"`
	PartialZones     map[string]models.ZoneSentiment     `json:"partial_zones"`
	Result           *models.MultiAgentResponse          `json:"result,omitempty"`
	Error            string                              `json:"error,omitempty"`
}

// DMResponse is returned by POST /dm.
type DMResponse struct {
	Reply             string         `json:"reply"`
	StanceUpdate      bool           `json:"stance_update"`
	NewStance         *models.Stance `json:"new_stance,omitempty"`
	RelationshipScore float64        `json:"relationship_score"`
}

// AdoptResponse is returned by POST /adopt.
type AdoptResponse struct {
	ThreadsUpdated int    `json:"threads_updated"`
	Outcome        string `json:"outcome"`
}

// GraphNode is one node in graph_data's response — every agent plus the
// three synthetic nodes "townhall", "user", "system".
type GraphNode struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	// Label is the agent's display name for agent nodes, or the node id
	// itself for synthetic nodes.
	Label string `json:"label"`
}

// GraphEdge is one directed edge in graph_data's response: either a
// relationship edge between two agents, or a system→agent "call" edge.
type GraphEdge struct {
	From  string  `json:"from"`
	To    string  `json:"to"`
	Type  string  `json:"type"`
	Score float64 `json:"score,omitempty"`
}

// GraphResponse is returned by GET /graph/:sessionID.
type GraphResponse struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// ActiveCallsResponse is returned by GET /active-calls/:sessionID.
type ActiveCallsResponse struct {
	Active            []string `json:"active"`
	RecentlyCompleted []string `json:"recently_completed"`
}

// CacheGetResponse is returned by GET /cache/:key.
type CacheGetResponse struct {
	Found bool               `json:"found"`
	Entry *models.CacheEntry `json:"entry,omitempty"`
}

// PromoteResponse is returned by POST /promote.
type PromoteResponse struct {
	Cached      bool                       `json:"cached"`
	Key         string                     `json:"key"`
	Result      *models.MultiAgentResponse `json:"result"`
	ProviderMix string                     `json:"provider_mix"`
}

// OverrideResponse is returned by the override get/set endpoints.
type OverrideResponse struct {
	ScenarioID string `json:"scenario_id"`
	AgentKey   string `json:"agent_key"`
	Model      string `json:"model,omitempty"`
	Persona    string `json:"persona,omitempty"`
	Set        bool   `json:"set"`
}
