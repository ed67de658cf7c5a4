package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civicsim/orchestrator/pkg/config"
	"github.com/civicsim/orchestrator/pkg/jobstore"
	"github.com/civicsim/orchestrator/pkg/upstream"
)

// writeError maps a core error to an HTTP status and writes a JSON error
// body directly onto the gin.Context.
func writeError(c *gin.Context, err error) {
	var upstreamErr *upstream.Error
	switch {
	case errors.As(err, &upstreamErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, jobstore.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
	case errors.Is(err, config.ErrAgentNotFound), errors.Is(err, config.ErrZoneNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, config.ErrModelNotAllowed), errors.Is(err, config.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.Error("unexpected api error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
