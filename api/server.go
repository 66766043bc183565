// Package api exposes the dispatch core over HTTP. Incident reports are open
// to the public; station management, readiness submissions and lifecycle
// updates require a bearer token.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/rescuegrid/firedispatch/core/dispatch/auditlog"
	"github.com/rescuegrid/firedispatch/core/incident"
	"github.com/rescuegrid/firedispatch/core/readiness"
	"github.com/rescuegrid/firedispatch/infra/logger"
	"github.com/rescuegrid/firedispatch/infra/notify/wshub"
)

// Server bundles the HTTP handlers and their dependencies.
type Server struct {
	registry  *readiness.Registry
	incidents *incident.Service
	audit     auditlog.Store
	hub       *wshub.Hub
	auth      *Authenticator
	log       logger.Logger
}

// NewServer creates a Server. hub may be nil when WebSocket delivery is
// disabled; audit may be nil when auditing is disabled.
func NewServer(registry *readiness.Registry, incidents *incident.Service, audit auditlog.Store, hub *wshub.Hub, auth *Authenticator, log logger.Logger) *Server {
	if audit == nil {
		audit = auditlog.NopStore{}
	}
	return &Server{
		registry:  registry,
		incidents: incidents,
		audit:     audit,
		hub:       hub,
		auth:      auth,
		log:       log,
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		// public: anyone may report a fire
		api.POST("/incidents", s.createIncident)

		authed := api.Group("", s.auth.Middleware())
		{
			authed.GET("/incidents", s.listIncidents)
			authed.GET("/incidents/:id", s.getIncident)
			authed.GET("/incidents/:id/log", s.incidentLog)
			authed.PATCH("/incidents/:id/status", s.updateStatus)
			authed.PATCH("/incidents/:id/alarm-level", s.updateAlarmLevel)

			authed.GET("/stations", s.listStations)
			authed.GET("/stations/overview", s.stationOverview)
			authed.GET("/stations/:id", s.getStation)
			authed.POST("/stations", s.requireAdmin, s.createStation)
			authed.POST("/stations/:id/readiness", s.submitReadiness)
			authed.GET("/stations/:id/readiness", s.latestReadiness)
			authed.GET("/readiness/overview", s.stationOverview)

			authed.GET("/dispatch/audit", s.requireAdmin, s.queryAudit)
		}
	}

	if s.hub != nil {
		r.GET("/ws", s.auth.Middleware(), s.serveWS)
		r.GET("/ws/stations/:id", s.auth.Middleware(), s.serveStationWS)
	}
	return r
}
