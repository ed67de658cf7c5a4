package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	nodeTypeAgent     = "agent"
	nodeTypeSynthetic = "synthetic"

	edgeTypeRelationship = "relationship"
	edgeTypeCall         = "call"
)

// graphHandler handles GET /graph/:sessionID.
func (s *Server) graphHandler(c *gin.Context) {
	_, th, ok := s.sessionOr400(c, "sessionID")
	if !ok {
		return
	}

	nodes := make([]GraphNode, 0, s.agents.Len()+3)
	for _, key := range s.agents.Keys() {
		agent, err := s.agents.Get(key)
		if err != nil {
			continue
		}
		nodes = append(nodes, GraphNode{ID: agent.Key, Type: nodeTypeAgent, Label: agent.DisplayName})
	}
	for _, synthetic := range []string{"townhall", "user", "system"} {
		nodes = append(nodes, GraphNode{ID: synthetic, Type: nodeTypeSynthetic, Label: synthetic})
	}

	edges := make([]GraphEdge, 0, len(nodes))
	for _, shift := range th.TopRelationships(-1) {
		edges = append(edges, GraphEdge{From: shift.From, To: shift.To, Type: edgeTypeRelationship, Score: shift.Score})
	}
	for _, key := range s.agents.Keys() {
		edges = append(edges, GraphEdge{From: "system", To: key, Type: edgeTypeCall})
	}

	c.JSON(http.StatusOK, GraphResponse{Nodes: nodes, Edges: edges})
}
