package router

import (
	"github.com/labstack/echo/v4"

	"github.com/bilhetinho/server/internal/handler"    // admin event handlers
	"github.com/bilhetinho/server/internal/middleware" // JWT + role middlewares
	"github.com/bilhetinho/server/internal/utils"
)

// RegisterAdmin registers establishment-admin endpoints under /v1.  All
// routes require a valid JWT carrying the ADMIN role; the establishment the
// token is scoped to determines which events the caller can touch.
func RegisterAdmin(e *echo.Echo, h *handler.EventHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleAdmin),
	)

	// ---- Events ----
	g.POST("/events", h.CreateEvent)
	g.GET("/events", h.ListEvents)
	g.PATCH("/events/:id/deactivate", h.DeactivateEvent)
}
