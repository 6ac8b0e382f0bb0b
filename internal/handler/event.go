// Package handler defines HTTP handlers for admin event operations: the
// event lifecycle (create, list, deactivate) and the public access-code
// validation used by guests to join.  Event status is never stored; it is
// derived from the clock at read time so expiry needs no background sweeps.
package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bilhetinho/server/internal/config"
	"github.com/bilhetinho/server/internal/repository"
	"github.com/bilhetinho/server/internal/service"
)

// Bounds on the table count of a new event.
const (
	minTables = 1
	maxTables = 100
)

// EventHandler bundles the repositories and the code generator used by the
// event lifecycle endpoints.
type EventHandler struct {
	Cfg    config.Config
	Events *repository.EventRepo
	Rooms  *repository.RoomRepo
	Tables *repository.TableRepo
	Codes  *service.CodeGenerator
}

// NewEventHandler constructs an EventHandler and panics if any dependency
// is nil.
func NewEventHandler(cfg config.Config, ev *repository.EventRepo, rm *repository.RoomRepo, tb *repository.TableRepo, cg *service.CodeGenerator) *EventHandler {
	if ev == nil || rm == nil || tb == nil || cg == nil {
		panic("nil dependency passed to NewEventHandler")
	}
	return &EventHandler{Cfg: cfg, Events: ev, Rooms: rm, Tables: tb, Codes: cg}
}

// eventStatus derives the read-time status of an event: "active" only while
// the event is inside its date window and has not been deactivated.
func eventStatus(e *repository.Event, now time.Time) string {
	if e.IsActive && !now.Before(e.StartDate) && !now.After(e.EndDate) {
		return "active"
	}
	return "expired"
}

// CreateEvent handles POST /v1/events.  It validates dates and table count,
// then runs one transaction that deactivates the establishment's currently
// active event, generates a unique code, and creates the event with its
// room and numbered tables.  Nothing is observable until the commit, so
// concurrent creations cannot leave two active events or an event without
// its topology.
func (h *EventHandler) CreateEvent(c echo.Context) error {
	establishmentID, err := getEstablishmentID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		StartDate      string `json:"start_date"`
		EndDate        string `json:"end_date"`
		NumberOfTables int    `json:"number_of_tables"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, err := time.Parse(time.RFC3339, body.StartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date format"})
	}
	end, err := time.Parse(time.RFC3339, body.EndDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date format"})
	}
	if !start.Before(end) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_date must be before end_date"})
	}
	if body.NumberOfTables < minTables || body.NumberOfTables > maxTables {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("number_of_tables must be between %d and %d", minTables, maxTables)})
	}

	ctx := c.Request().Context()
	tx, err := h.Events.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// A new active event supersedes the establishment's current one.
	if err := h.Events.DeactivateActiveTx(ctx, tx, establishmentID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not supersede active event"})
	}
	code, err := h.Codes.GenerateTx(ctx, tx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not generate code"})
	}
	event := &repository.Event{
		Code:            code,
		EstablishmentID: &establishmentID,
		StartDate:       start.UTC(),
		EndDate:         end.UTC(),
		NumberOfTables:  body.NumberOfTables,
		IsActive:        true,
		QRPayload:       fmt.Sprintf("%s/?code=%s", h.Cfg.JoinBaseURL, code),
	}
	if err := h.Events.CreateTx(ctx, tx, event); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create event"})
	}
	room := &repository.Room{
		Name:      "Evento " + code,
		IsActive:  true,
		EventCode: code,
	}
	if err := h.Rooms.CreateTx(ctx, tx, room); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create room"})
	}
	if err := h.Tables.CreateBulkTx(ctx, tx, room.ID, body.NumberOfTables); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create tables"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	committed = true

	return c.JSON(http.StatusCreated, echo.Map{
		"event": event,
		"room":  room,
	})
}

// ListEvents handles GET /v1/events and returns the establishment's events
// newest-first, each annotated with its derived status.
func (h *EventHandler) ListEvents(c echo.Context) error {
	establishmentID, err := getEstablishmentID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	events, err := h.Events.ListByEstablishment(c.Request().Context(), establishmentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	now := time.Now().UTC()
	items := make([]echo.Map, 0, len(events))
	for i := range events {
		e := &events[i]
		items = append(items, echo.Map{
			"id":               e.ID,
			"code":             e.Code,
			"start_date":       e.StartDate,
			"end_date":         e.EndDate,
			"number_of_tables": e.NumberOfTables,
			"status":           eventStatus(e, now),
			"qr_payload":       e.QRPayload,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// DeactivateEvent handles PATCH /v1/events/:id/deactivate.  The event must
// belong to the caller's establishment: a mismatch is 403, not 404, so an
// admin cannot probe other tenants' event IDs apart from their existence.
func (h *EventHandler) DeactivateEvent(c echo.Context) error {
	establishmentID, err := getEstablishmentID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	event, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if event.EstablishmentID == nil || *event.EstablishmentID != establishmentID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Events.Deactivate(ctx, id); err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate failed"})
	}
	fresh, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, fresh)
}

// ValidateCode handles GET /v1/events/validate/:code, the public lookup a
// guest performs when joining.  The code matches case-insensitively.  A
// valid event is one inside its date window that has not been deactivated;
// out-of-window codes report whether the event has not started or already
// expired.
func (h *EventHandler) ValidateCode(c echo.Context) error {
	code := c.Param("code")
	ctx := c.Request().Context()
	event, err := h.Events.GetByCode(ctx, code)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid event code"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	now := time.Now().UTC()
	if now.Before(event.StartDate) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event has not started yet"})
	}
	if now.After(event.EndDate) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event has expired"})
	}
	if !event.IsActive {
		// Deactivated inside its window: the event ended early.
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event has ended"})
	}
	room, err := h.Rooms.GetByEventCode(ctx, event.Code)
	if err != nil {
		if err == repository.ErrRoomNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"valid": true,
		"event": echo.Map{
			"code":      event.Code,
			"room_id":   room.ID,
			"room_name": room.Name,
		},
	})
}
