package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civicsim/orchestrator/pkg/overrides"
)

// getOverrideHandler handles GET /overrides/:scenarioID/:agentKey.
func (s *Server) getOverrideHandler(c *gin.Context) {
	scenarioID := c.Param("scenarioID")
	agentKey := c.Param("agentKey")

	o, ok := s.overrides.Get(scenarioID, agentKey)
	c.JSON(http.StatusOK, OverrideResponse{
		ScenarioID: scenarioID,
		AgentKey:   agentKey,
		Model:      o.Model,
		Persona:    o.Persona,
		Set:        ok,
	})
}

// setOverrideHandler handles PUT /overrides/:scenarioID/:agentKey (spec
// §6 "set {model?, persona?}"). A set MUST invalidate the FingerprintCache
// for the scenario.
func (s *Server) setOverrideHandler(c *gin.Context) {
	scenarioID := c.Param("scenarioID")
	agentKey := c.Param("agentKey")

	var in SetOverrideRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if in.Model != "" {
		if err := s.models.Validate(in.Model); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	s.overrides.Set(scenarioID, agentKey, overrides.Override{Model: in.Model, Persona: in.Persona})
	if err := s.cache.Invalidate(c.Request.Context(), scenarioID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, OverrideResponse{
		ScenarioID: scenarioID,
		AgentKey:   agentKey,
		Model:      in.Model,
		Persona:    in.Persona,
		Set:        true,
	})
}

// resetOverrideHandler handles DELETE /overrides/:scenarioID/:agentKey.
// A reset MUST invalidate the FingerprintCache for the scenario.
func (s *Server) resetOverrideHandler(c *gin.Context) {
	scenarioID := c.Param("scenarioID")
	agentKey := c.Param("agentKey")

	s.overrides.Reset(scenarioID, agentKey)
	if err := s.cache.Invalidate(c.Request.Context(), scenarioID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, OverrideResponse{ScenarioID: scenarioID, AgentKey: agentKey, Set: false})
}

// resetAllOverridesHandler handles DELETE /overrides/:scenarioID.
func (s *Server) resetAllOverridesHandler(c *gin.Context) {
	scenarioID := c.Param("scenarioID")

	s.overrides.ResetAll(scenarioID)
	if err := s.cache.Invalidate(c.Request.Context(), scenarioID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scenario_id": scenarioID, "reset_all": true})
}
