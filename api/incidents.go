package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rescuegrid/firedispatch/core/incident"
	"github.com/rescuegrid/firedispatch/core/model"
)

// createRequest is the wire form of an incident report. Coordinates are
// pointers so an absent field is distinguishable from a literal zero.
type createRequest struct {
	ReporterID      string           `json:"end_user_id"`
	Latitude        *float64         `json:"latitude"`
	Longitude       *float64         `json:"longitude"`
	AlarmLevel      model.AlarmLevel `json:"alarm_level"`
	Details         string           `json:"details,omitempty"`
	ForcedStationID string           `json:"forced_station_id,omitempty"`
}

// createIncident handles POST /api/incidents: the public fire-report
// endpoint. Selection happens synchronously; the response carries the
// dispatched station and the distance so the caller knows help is coming.
func (s *Server) createIncident(c *gin.Context) {
	var body createRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if body.Latitude == nil || body.Longitude == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})
		return
	}
	req := incident.CreateRequest{
		ReporterID:      body.ReporterID,
		Latitude:        *body.Latitude,
		Longitude:       *body.Longitude,
		AlarmLevel:      body.AlarmLevel,
		Details:         body.Details,
		ForcedStationID: body.ForcedStationID,
	}
	if id, ok := callerIdentity(c); ok && req.ReporterID == "" {
		req.ReporterID = id.UserID
	}
	res, err := s.incidents.Create(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (s *Server) getIncident(c *gin.Context) {
	inc, err := s.incidents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inc)
}

func (s *Server) listIncidents(c *gin.Context) {
	f := incident.Filter{
		Status:    model.IncidentStatus(c.Query("status")),
		StationID: c.Query("station_id"),
	}
	list, err := s.incidents.List(c.Request.Context(), f)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) incidentLog(c *gin.Context) {
	entries, err := s.incidents.ResponseLog(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

type statusUpdateRequest struct {
	Status  model.IncidentStatus `json:"status"`
	TruckID string               `json:"dispatched_truck_id,omitempty"`
}

// updateStatus handles PATCH /api/incidents/:id/status.
func (s *Server) updateStatus(c *gin.Context) {
	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, _ := callerIdentity(c)
	inc, err := s.incidents.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, id.UserID, req.TruckID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inc)
}

type alarmLevelUpdateRequest struct {
	AlarmLevel model.AlarmLevel `json:"alarm_level"`
}

// updateAlarmLevel handles PATCH /api/incidents/:id/alarm-level. The initial
// level stays on record; only the current one moves.
func (s *Server) updateAlarmLevel(c *gin.Context) {
	var req alarmLevelUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, _ := callerIdentity(c)
	inc, err := s.incidents.UpdateAlarmLevel(c.Request.Context(), c.Param("id"), req.AlarmLevel, id.UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inc)
}
