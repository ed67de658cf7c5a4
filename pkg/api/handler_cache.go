package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// cacheGetHandler handles GET /cache/:key.
func (s *Server) cacheGetHandler(c *gin.Context) {
	key := c.Param("key")
	entry, ok := s.cache.Lookup(c.Request.Context(), key)
	if !ok {
		c.JSON(http.StatusOK, CacheGetResponse{Found: false})
		return
	}
	c.JSON(http.StatusOK, CacheGetResponse{Found: true, Entry: entry})
}

// promoteHandler handles POST /promote.
func (s *Server) promoteHandler(c *gin.Context) {
	var in SimulateRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID, th := s.sessions.GetOrCreate(in.SessionID)

	result, err := s.orchestrator.Promote(c.Request.Context(), th, s.buildRequest(sessionID, in))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, PromoteResponse{
		Cached:      result.Cached,
		Key:         result.Key,
		Result:      result.Result,
		ProviderMix: result.ProviderMix,
	})
}

// cacheInvalidateHandler handles POST /cache/invalidate. Invalidation is
// always scenario-wide — see DESIGN.md for why agent_key cannot narrow it.
func (s *Server) cacheInvalidateHandler(c *gin.Context) {
	var in CacheInvalidateRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if in.ScenarioID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scenario_id is required"})
		return
	}

	if err := s.cache.Invalidate(c.Request.Context(), in.ScenarioID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invalidated": in.ScenarioID})
}
