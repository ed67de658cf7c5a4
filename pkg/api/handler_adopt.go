package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civicsim/orchestrator/pkg/adopter"
	"github.com/civicsim/orchestrator/pkg/models"
)

// adoptHandler handles POST /adopt.
func (s *Server) adoptHandler(c *gin.Context) {
	var in AdoptRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID, th := s.sessions.GetOrCreate(in.SessionID)

	zones := make([]models.ZoneSentiment, 0, len(in.Event.ZoneSentiments))
	for _, z := range in.Event.ZoneSentiments {
		zones = append(zones, models.ZoneSentiment{
			ZoneID:    z.ZoneID,
			ZoneName:  z.ZoneName,
			Sentiment: models.Stance(z.Sentiment),
			Score:     z.Score,
		})
	}

	record := adopter.DecisionRecord{
		Kind:           adopter.DecisionKind(in.Event.Kind),
		ProposalTitle:  in.Event.ProposalTitle,
		ProposalKind:   models.ProposalKind(in.Event.ProposalKind),
		VotePercent:    in.Event.VotePercent,
		KeyQuotes:      in.Event.KeyQuotes,
		ZoneSentiments: zones,
	}

	result := s.adopter.Adopt(c.Request.Context(), sessionID, th, record)
	c.JSON(http.StatusOK, AdoptResponse{
		ThreadsUpdated: result.ThreadsUpdated,
		Outcome:        result.Outcome,
	})
}
