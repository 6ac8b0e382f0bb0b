package router

import (
	"github.com/labstack/echo/v4"

	"github.com/bilhetinho/server/internal/handler"
)

// RegisterPublic registers the guest-facing endpoints.  None of them require
// authentication: holding a valid event code is the only thing a guest
// needs, so every route here goes through the rate limiter to keep code
// guessing and note spam in check.  Pass echo middleware (e.g. the Redis
// token bucket) via limiter; a nil slice registers the routes unguarded.
func RegisterPublic(e *echo.Echo, ev *handler.EventHandler, gs *handler.GuestHandler, nt *handler.NoteHandler, limiter ...echo.MiddlewareFunc) {
	g := e.Group("/v1", limiter...)

	// Access code validation, the guest's entry point.
	g.GET("/events/validate/:code", ev.ValidateCode)

	// Room browsing and table membership.
	g.GET("/rooms/:id/tables", gs.GetRoomTables)
	g.POST("/users", gs.JoinTable)
	g.GET("/users/:id", gs.GetUser)
	g.GET("/tables/:id/users", gs.ListTableUsers)

	// Note exchange.
	g.POST("/notes", nt.SendNote)
	g.POST("/notes/:id/accept", nt.AcceptNote)
	g.POST("/notes/:id/ignore", nt.IgnoreNote)
	g.GET("/tables/:id/notes/received", nt.ListInbox)
	g.GET("/tables/:id/notes/accepted", nt.ListAccepted)
	g.GET("/tables/:id/notes/ignored", nt.ListIgnored)
	g.GET("/tables/:id/notes/sent", nt.ListSent)
}
