// Package server wires handlers, middleware and the broadcast fabric into one
// Gin engine.
package server

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"signage-control-plane/internal/audit"
	"signage-control-plane/internal/broadcast"
	broadcasthandler "signage-control-plane/internal/broadcast/handler"
	dashboardhandler "signage-control-plane/internal/dashboard/handler"
	dashboardservice "signage-control-plane/internal/dashboard/service"
	healthhandler "signage-control-plane/internal/health/handler"
	"signage-control-plane/internal/server/middleware"
	sessionhandler "signage-control-plane/internal/session/handler"
	sessionservice "signage-control-plane/internal/session/service"
)

// Deps carries everything the router needs.
type Deps struct {
	Authority *sessionservice.Authority
	Actors    sessionhandler.ActorDirectory
	Cache     *dashboardservice.Cache
	Fabric    *broadcast.Fabric
	DB        *sql.DB
	Auditor   audit.Emitter
}

// NewRouter builds the route table.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("signage-control-plane"))

	auth := sessionhandler.NewAuthHandler(d.Authority, d.Actors, d.Auditor)
	dash := dashboardhandler.NewDashboardHandler(d.Cache, d.Auditor)
	ws := broadcasthandler.NewWSHandler(d.Fabric)
	health := healthhandler.NewHealthHandler(d.DB)

	r.POST("/auth/login", auth.Login)
	r.GET("/ws", ws.Serve)
	r.GET("/dashboard", dash.Get)
	r.GET("/dashboard/cache-status", dash.CacheStatus)
	r.GET("/healthz", health.Check)

	protected := r.Group("", middleware.RequireSession(d.Authority))
	protected.GET("/auth/me", auth.Me)
	protected.POST("/auth/logout", auth.Logout)
	protected.POST("/dashboard/clear-cache", dash.ClearCache)

	return r
}
