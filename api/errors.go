package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rescuegrid/firedispatch/core/dispatch"
	"github.com/rescuegrid/firedispatch/core/incident"
	"github.com/rescuegrid/firedispatch/core/model"
	"github.com/rescuegrid/firedispatch/core/readiness"
)

// writeError maps core errors onto HTTP status codes. Unknown errors are
// reported as 500 without leaking internals.
func (s *Server) writeError(c *gin.Context, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, readiness.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, readiness.ErrStationNotFound),
		errors.Is(err, readiness.ErrNoSubmission),
		errors.Is(err, incident.ErrIncidentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, dispatch.ErrStationUnavailable),
		errors.Is(err, incident.ErrInvalidTransition),
		errors.Is(err, readiness.ErrMainStationExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, dispatch.ErrNoStationsAvailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		s.log.Errorf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
