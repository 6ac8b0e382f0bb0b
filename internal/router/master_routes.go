package router

// This file registers the platform-operator routes.  Master endpoints
// provision tenants and their admin accounts and can inspect events across
// establishments; they are kept apart from the per-tenant admin routes so
// the two permission surfaces never share a group.

import (
	"github.com/labstack/echo/v4"

	"github.com/bilhetinho/server/internal/handler"
	"github.com/bilhetinho/server/internal/middleware"
	"github.com/bilhetinho/server/internal/utils"
)

// RegisterMaster registers MASTER-scoped endpoints under /v1.  All routes
// require a valid JWT with the MASTER role.
func RegisterMaster(e *echo.Echo, h *handler.MasterHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleMaster),
	)

	// ---- Establishments ----
	g.POST("/establishments", h.CreateEstablishment)
	g.GET("/establishments", h.ListEstablishments)
	g.DELETE("/establishments/:id", h.DeleteEstablishment)

	// ---- Admin accounts ----
	g.POST("/admins", h.CreateAdmin)
	g.GET("/admins", h.ListAdmins)
	g.DELETE("/admins/:id", h.DeleteAdmin)

	// ---- Cross-tenant event listing ----
	g.GET("/master/events", h.ListAllEvents)
}
