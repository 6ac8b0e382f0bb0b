// Package handler defines the guest-facing endpoints: browsing a room's
// tables and joining a table with a nickname.  None of these require
// authentication; the access code validated beforehand is the only gate.
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bilhetinho/server/internal/repository"
)

// GuestHandler bundles repositories for participant operations.
type GuestHandler struct {
	Rooms  *repository.RoomRepo
	Tables *repository.TableRepo
	Users  *repository.UserRepo
}

// NewGuestHandler constructs a GuestHandler and panics if any dependency is
// nil.
func NewGuestHandler(rm *repository.RoomRepo, tb *repository.TableRepo, us *repository.UserRepo) *GuestHandler {
	if rm == nil || tb == nil || us == nil {
		panic("nil repository passed to NewGuestHandler")
	}
	return &GuestHandler{Rooms: rm, Tables: tb, Users: us}
}

// GetRoomTables handles GET /v1/rooms/:id/tables.  A deactivated room
// refuses listing with 403: the event was closed by the establishment.
func (h *GuestHandler) GetRoomTables(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	room, err := h.Rooms.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrRoomNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !room.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "event has been closed"})
	}
	tables, err := h.Tables.ListByRoom(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if tables == nil {
		tables = []repository.Table{}
	}
	return c.JSON(http.StatusOK, tables)
}

// JoinTable handles POST /v1/users and seats a guest at a table.  Joining
// requires the room to still be active.
func (h *GuestHandler) JoinTable(c echo.Context) error {
	var body struct {
		Nickname string `json:"nickname"`
		TableID  uint64 `json:"table_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Nickname = strings.TrimSpace(body.Nickname)
	if body.Nickname == "" || body.TableID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nickname and table_id are required"})
	}
	ctx := c.Request().Context()
	table, err := h.Tables.GetByID(ctx, body.TableID)
	if err != nil {
		if err == repository.ErrTableNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	room, err := h.Rooms.GetByID(ctx, table.RoomID)
	if err != nil || !room.IsActive {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room is not active"})
	}
	user := &repository.User{
		Nickname: body.Nickname,
		TableID:  table.ID,
		RoomID:   room.ID,
	}
	if err := h.Users.Create(ctx, user); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create user"})
	}
	return c.JSON(http.StatusCreated, user)
}

// GetUser handles GET /v1/users/:id.
func (h *GuestHandler) GetUser(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	user, err := h.Users.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, user)
}

// ListTableUsers handles GET /v1/tables/:id/users.
func (h *GuestHandler) ListTableUsers(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Tables.GetByID(ctx, id); err != nil {
		if err == repository.ErrTableNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	users, err := h.Users.ListByTable(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if users == nil {
		users = []repository.User{}
	}
	return c.JSON(http.StatusOK, users)
}
