package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// dmHandler handles POST /dm.
func (s *Server) dmHandler(c *gin.Context) {
	var in DMRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if in.From == "" || in.To == "" || in.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from, to, and message are required"})
		return
	}

	sessionID, th := s.sessions.GetOrCreate(in.SessionID)

	result, err := s.messenger.Send(c.Request.Context(), sessionID, th, in.From, in.To, in.Message, in.ProposalTitle)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, DMResponse{
		Reply:             result.Reply,
		StanceUpdate:      result.StructuredUpdate.StanceChanged,
		NewStance:         result.StructuredUpdate.NewStance,
		RelationshipScore: result.NewRelationshipScore,
	})
}
