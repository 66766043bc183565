package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rescuegrid/firedispatch/core/dispatch/auditlog"
)

// queryAudit handles GET /api/dispatch/audit (admin only). start and end are
// RFC 3339; station_id matches the winner or any scored candidate.
func (s *Server) queryAudit(c *gin.Context) {
	q := auditlog.Query{StationID: c.Query("station_id")}
	if v := c.Query("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start time"})
			return
		}
		q.Start = t
	}
	if v := c.Query("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end time"})
			return
		}
		q.End = t
	}
	records, err := s.audit.Query(c.Request.Context(), q)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
