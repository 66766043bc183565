package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rescuegrid/firedispatch/core/model"
	"github.com/rescuegrid/firedispatch/core/readiness"
)

type readinessRequest struct {
	Status     model.ReadinessStatus `json:"status"`
	Percentage int                   `json:"readiness_percentage"`
	Checklist  json.RawMessage       `json:"equipment_checklist,omitempty"`
}

// submitReadiness handles POST /api/stations/:id/readiness. The submitter is
// the authenticated user; the registry enforces that it matches the station's
// admin.
func (s *Server) submitReadiness(c *gin.Context) {
	var req readinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, _ := callerIdentity(c)
	sub, err := s.registry.SubmitReadiness(c.Request.Context(), readiness.SubmissionRequest{
		StationID:   c.Param("id"),
		SubmittedBy: id.UserID,
		Status:      req.Status,
		Percentage:  req.Percentage,
		Checklist:   req.Checklist,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// latestReadiness handles GET /api/stations/:id/readiness.
func (s *Server) latestReadiness(c *gin.Context) {
	sub, err := s.registry.Latest(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}
