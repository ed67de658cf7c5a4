package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civicsim/orchestrator/pkg/orchestrator"
)

// buildRequest merges the override store's scenario-wide overrides with
// any per-call overrides the request body carries — request-level values
// win, since they represent an explicit one-off choice for this call.
func (s *Server) buildRequest(sessionID string, in SimulateRequest) orchestrator.Request {
	modelOverrides, personaOverrides := s.overrides.AllForScenario(in.ScenarioID)
	for k, v := range in.AgentModels {
		modelOverrides[k] = v
	}
	for k, v := range in.AgentPersonas {
		personaOverrides[k] = v
	}
	return orchestrator.Request{
		SessionID:     sessionID,
		ScenarioID:    in.ScenarioID,
		Message:       in.Message,
		AgentModels:   modelOverrides,
		AgentPersonas: personaOverrides,
		Mode:          in.Mode,
	}
}

// simulateSyncHandler handles POST /simulate/sync.
func (s *Server) simulateSyncHandler(c *gin.Context) {
	var in SimulateRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID, th := s.sessions.GetOrCreate(in.SessionID)

	resp, err := s.orchestrator.SimulateSync(c.Request.Context(), th, s.buildRequest(sessionID, in))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// simulateStartHandler handles POST /simulate/start.
func (s *Server) simulateStartHandler(c *gin.Context) {
	var in SimulateRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID, th := s.sessions.GetOrCreate(in.SessionID)

	jobID, err := s.orchestrator.SimulateStart(c.Request.Context(), th, s.buildRequest(sessionID, in))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, JobIDResponse{JobID: jobID})
}

// simulateStatusHandler handles GET /simulate/status/:jobID.
func (s *Server) simulateStatusHandler(c *gin.Context) {
	jobID := c.Param("jobID")
	job, err := s.jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		Status:           job.Status,
		Progress:         job.Progress,
		Phase:            job.Phase,
		Message:          job.Message,
		CompletedAgents:  job.CompletedAgents,
		TotalAgents:      job.TotalAgents,
		PartialReactions: job.PartialReactions,
		PartialZones:     job.PartialZones,
		Result:           job.Result,
		Error:            job.Error,
	})
}
