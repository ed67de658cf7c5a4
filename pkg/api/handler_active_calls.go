package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/civicsim/orchestrator/pkg/models"
)

const recentlyCompletedWindow = 5 * time.Second

// activeCallsHandler handles GET /active-calls/:sessionID, derived from
// the session's latest job.
func (s *Server) activeCallsHandler(c *gin.Context) {
	_, th, ok := s.sessionOr400(c, "sessionID")
	if !ok {
		return
	}

	resp := ActiveCallsResponse{Active: []string{}, RecentlyCompleted: []string{}}

	jobID, hasJob := th.LatestJob()
	if !hasJob {
		c.JSON(http.StatusOK, resp)
		return
	}
	job, err := s.jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	completed := make(map[string]bool, len(job.PartialReactions))
	for _, r := range job.PartialReactions {
		completed[r.AgentKey] = true
	}

	if job.Phase == models.PhaseAgentReactions && job.Status == models.JobRunning {
		for _, key := range s.agents.Keys() {
			if !completed[key] {
				resp.Active = append(resp.Active, key)
			}
		}
	}

	now := time.Now()
	for key, completedAt := range job.AgentCompletionTimes {
		if now.Sub(completedAt) <= recentlyCompletedWindow {
			resp.RecentlyCompleted = append(resp.RecentlyCompleted, key)
		}
	}

	c.JSON(http.StatusOK, resp)
}
