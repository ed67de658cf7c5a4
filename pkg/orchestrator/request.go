package orchestrator

// Request is the orchestrator-facing view of a simulation request — the
// same shape names for both simulate_sync and simulate_start,
// independent of whatever wire format the API layer decodes it from.
type Request struct {
	SessionID     string
	ScenarioID    string
	Message       string
	AgentModels   map[string]string
	AgentPersonas map[string]string
	Mode          string
}
