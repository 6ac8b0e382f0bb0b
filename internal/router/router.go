package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/bilhetinho/server/internal/handler" // import the handlers that implement business logic
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems use this to verify the service
	// is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the login endpoints.  Neither requires an existing
// session; each issues a fresh access token on success.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	// Establishment admin login at /v1/auth/login.
	g.POST("/login", a.AdminLogin)
	// Platform operator login at /v1/auth/master/login.
	g.POST("/master/login", a.MasterLogin)
}
