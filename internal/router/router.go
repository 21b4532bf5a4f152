package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/snehankitpatil/incubation-portal/internal/config"     // cache and rate-limit configuration
	"github.com/snehankitpatil/incubation-portal/internal/handler"    // import the handlers that implement business logic
	"github.com/snehankitpatil/incubation-portal/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/snehankitpatil/incubation-portal/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance: the health check, login and startup
// self-registration.  Registration is public so a founder can apply
// before having an account; the created account starts in the applied
// state and stays inert until an admin approves it.
func RegisterRoutes(e *echo.Echo, a *handler.AuthHandler, p *handler.PortalHandler, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)
	e.POST("/v1/auth/login", a.Login)
	e.POST("/v1/startups", p.RegisterStartup)
	// The public landing view: per-hall occupancy, no auth required.
	dashboard := []echo.MiddlewareFunc{}
	if rdb != nil {
		dashboard = append(dashboard, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	}
	e.GET("/v1/dashboard", p.ListHalls, dashboard...)
}

// RegisterPortal registers the authenticated surface.  Everything lives
// under /v1 behind JWT auth; mutation and review endpoints additionally
// require the ADMIN role.  When a Redis client is supplied the report
// and export GETs are response-cached and the whole group is
// rate-limited per authenticated user.
func RegisterPortal(e *echo.Echo, p *handler.PortalHandler, a *handler.AuthHandler, jwtSecret string, rdb *redis.Client) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	if rdb != nil {
		auth.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	}
	auth.Use(middleware.RequireRole(model.RoleAdmin, model.RoleUser))

	// Any authenticated account.
	auth.GET("/me", a.Me)
	auth.GET("/me/dashboard", p.MyDashboard)
	auth.GET("/halls", p.ListHalls)
	auth.GET("/halls/:id", p.HallDetail)
	auth.POST("/startups/:id/seat-requests", p.SubmitSeatRequest)

	// Admin-only review and mutation endpoints.
	admin := auth.Group("")
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.POST("/halls", p.CreateHall)
	admin.GET("/startups", p.ListStartups)
	admin.POST("/startups/:id/approve", p.ApproveStartup)
	admin.POST("/startups/:id/activate", p.ActivateStartup)
	admin.POST("/startups/:id/exit", p.ExitStartup)
	admin.GET("/seat-requests", p.ListSeatRequests)
	admin.GET("/seat-requests/history", p.SeatRequestHistory)
	admin.POST("/seat-requests/:id/approve", p.ApproveSeatRequest)
	admin.POST("/seat-requests/:id/reject", p.RejectSeatRequest)

	// Reports and exports are reads; cache them when Redis is present.
	reports := admin.Group("")
	if rdb != nil {
		reports.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	}
	reports.GET("/reports/startups", p.StartupReport)
	reports.GET("/reports/allocations", p.AllocationReport)
	reports.GET("/reports/utilization", p.UtilizationReport)
	reports.GET("/reports/alerts", p.AlertReport)
	reports.GET("/export/startups.csv", p.ExportStartups)
	reports.GET("/export/allocations.csv", p.ExportAllocations)
	reports.GET("/export/utilization.csv", p.ExportUtilization)
}
