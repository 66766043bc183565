package api

import (
	"github.com/gin-gonic/gin"

	"github.com/rescuegrid/firedispatch/core/notify"
	"github.com/rescuegrid/firedispatch/core/readiness"
)

// serveWS handles GET /ws. Station admins automatically join the rooms of
// the stations they administer, so dispatch events reach the right console.
func (s *Server) serveWS(c *gin.Context) {
	id, _ := callerIdentity(c)
	var rooms []string
	stations, err := s.registry.ListStations(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	for _, st := range stations {
		if st.AdminUserID == id.UserID {
			rooms = append(rooms, notify.StationRoom(st.ID))
		}
	}
	s.hub.ServeHTTP(c.Writer, c.Request, id.UserID, rooms)
}

// serveStationWS handles GET /ws/stations/:id. The caller must administer
// the station, or hold an admin token.
func (s *Server) serveStationWS(c *gin.Context) {
	id, _ := callerIdentity(c)
	st, err := s.registry.GetStation(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if !id.Admin && st.AdminUserID != id.UserID {
		s.writeError(c, readiness.ErrUnauthorized)
		return
	}
	s.hub.ServeHTTP(c.Writer, c.Request, id.UserID, []string{notify.StationRoom(st.ID)})
}
