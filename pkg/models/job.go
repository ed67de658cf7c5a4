package models

import "time"

// JobStatus is the lifecycle state of a SimulationJob.
type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobComplete JobStatus = "complete"
	JobError    JobStatus = "error"
)

// JobPhase enumerates the ordered phases of the progressive pipeline
//. Phases are listed in the order they must occur.
type JobPhase string

const (
	PhaseInitializing        JobPhase = "initializing"
	PhaseInterpreting        JobPhase = "interpreting"
	PhaseAnalyzingImpact     JobPhase = "analyzing_impact"
	PhaseAgentReactions      JobPhase = "agent_reactions"
	PhaseCoalitionSynthesis  JobPhase = "coalition_synthesis"
	PhaseGeneratingTownhall  JobPhase = "generating_townhall"
	PhaseFinalizing          JobPhase = "finalizing"
)

// PhaseSchedule describes one phase's contribution to overall progress and
// its user-facing status message. Order matters: it is the canonical
// ordering phases must transition through.
type PhaseSchedule struct {
	Phase   JobPhase
	Weight  int
	Message string
}

// DefaultPhaseSchedule is the phase-weight table of .
var DefaultPhaseSchedule = []PhaseSchedule{
	{PhaseInitializing, 5, "Setting up simulation environment…"},
	{PhaseInterpreting, 10, "Analyzing your proposal…"},
	{PhaseAnalyzingImpact, 10, "Evaluating regional impacts…"},
	{PhaseAgentReactions, 50, "Gathering stakeholder reactions…"},
	{PhaseCoalitionSynthesis, 10, "Identifying coalitions and conflicts…"},
	{PhaseGeneratingTownhall, 10, "Generating town hall debate…"},
	{PhaseFinalizing, 5, "Preparing results…"},
}

// MultiAgentResponse is the assembled result of one simulation run.
type MultiAgentResponse struct {
	SessionID        string          `json:"session_id"`
	AssistantMessage string          `json:"assistant_message"`
	Proposal         *Proposal       `json:"proposal"`
	Reactions        []AgentReaction `json:"reactions"`
	ZoneSentiments   []ZoneSentiment `json:"zone_sentiments"`
	Transcript       *Transcript     `json:"transcript"`
	Receipt          Receipt         `json:"receipt"`
}

// Receipt is the lightweight provenance record attached to a completed run.
type Receipt struct {
	RunHash    string    `json:"run_hash"`
	Timestamp  time.Time `json:"timestamp"`
	AgentCount int       `json:"agent_count"`
	DurationMS int64     `json:"duration_ms"`
}

// SimulationRequest is the verbatim input payload a SimulationJob stores
// for replay/debug purposes.
type SimulationRequest struct {
	SessionID       string            `json:"session_id,omitempty"`
	ScenarioID      string            `json:"scenario_id"`
	Message         string            `json:"message"`
	AgentModels     map[string]string `json:"agent_models,omitempty"`
	AgentPersonas   map[string]string `json:"agent_personas,omitempty"`
	Mode            string            `json:"mode,omitempty"`
}

// SimulationJob is the orchestrator's durable record of a progressive
// simulation in flight. Once Status is complete or
// error it is terminal and may only be read.
type SimulationJob struct {
	JobID             string                    `json:"job_id"`
	SessionID         string                    `json:"session_id"`
	Request           SimulationRequest         `json:"request"`
	Status            JobStatus                 `json:"status"`
	Phase             JobPhase                  `json:"phase"`
	Progress          int                        `json:"progress"`
	Message           string                     `json:"message"`
	CompletedAgents   int                        `json:"completed_agents"`
	TotalAgents       int                        `json:"total_agents"`
	PartialReactions  []AgentReaction            `json:"partial_reactions"`
	PartialZones      map[string]ZoneSentiment   `json:"partial_zones"`
	// AgentCompletionTimes records when each agent's reaction landed in
	// PartialReactions, keyed by agent key. Not part of simulate_status's
	// wire contract — it exists only so active_calls can derive its
	// "recently_completed within 5 seconds" window.
	AgentCompletionTimes map[string]time.Time   `json:"-"`
	Result            *MultiAgentResponse        `json:"result,omitempty"`
	Error             string                     `json:"error,omitempty"`
	CreatedAt         time.Time                  `json:"created_at"`
	StartedAt         *time.Time                 `json:"started_at,omitempty"`
	CompletedAt       *time.Time                 `json:"completed_at,omitempty"`
}

// Clone returns a deep-enough copy of the job suitable for returning to a
// reader without racing the writer goroutine.
func (j *SimulationJob) Clone() *SimulationJob {
	cp := *j
	cp.PartialReactions = append([]AgentReaction(nil), j.PartialReactions...)
	cp.PartialZones = make(map[string]ZoneSentiment, len(j.PartialZones))
	for k, v := range j.PartialZones {
		cp.PartialZones[k] = v
	}
	cp.AgentCompletionTimes = make(map[string]time.Time, len(j.AgentCompletionTimes))
	for k, v := range j.AgentCompletionTimes {
		cp.AgentCompletionTimes[k] = v
	}
	return &cp
}
