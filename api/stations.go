package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rescuegrid/firedispatch/core/readiness"
)

// createStation handles POST /api/stations (admin only).
func (s *Server) createStation(c *gin.Context) {
	var req readiness.CreateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	st, err := s.registry.CreateStation(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (s *Server) getStation(c *gin.Context) {
	st, err := s.registry.GetStation(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) listStations(c *gin.Context) {
	var (
		list any
		err  error
	)
	if c.Query("ready") == "true" {
		list, err = s.registry.ListReadyStations(c.Request.Context())
	} else {
		list, err = s.registry.ListStations(c.Request.Context())
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// stationOverview handles GET /api/stations/overview: every station joined
// to its latest submission.
func (s *Server) stationOverview(c *gin.Context) {
	rows, err := s.registry.Overview(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
