package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bilhetinho/server/internal/config"
	"github.com/bilhetinho/server/internal/repository"
)

// MasterHandler bundles repositories for the platform-operator surface:
// establishment and admin CRUD plus a cross-tenant event listing.
type MasterHandler struct {
	Cfg            config.Config
	Establishments *repository.EstablishmentRepo
	Admins         *repository.AdminRepo
	Events         *repository.EventRepo
}

// NewMasterHandler constructs a MasterHandler and panics if any dependency
// is nil.
func NewMasterHandler(cfg config.Config, es *repository.EstablishmentRepo, ad *repository.AdminRepo, ev *repository.EventRepo) *MasterHandler {
	if es == nil || ad == nil || ev == nil {
		panic("nil repository passed to NewMasterHandler")
	}
	return &MasterHandler{Cfg: cfg, Establishments: es, Admins: ad, Events: ev}
}

// CreateEstablishment handles POST /v1/establishments.
func (h *MasterHandler) CreateEstablishment(c echo.Context) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	est := &repository.Establishment{Name: body.Name}
	if err := h.Establishments.Create(c.Request().Context(), est); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create establishment"})
	}
	return c.JSON(http.StatusCreated, est)
}

// ListEstablishments handles GET /v1/establishments.
func (h *MasterHandler) ListEstablishments(c echo.Context) error {
	out, err := h.Establishments.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if out == nil {
		out = []repository.Establishment{}
	}
	return c.JSON(http.StatusOK, out)
}

// DeleteEstablishment handles DELETE /v1/establishments/:id and removes the
// tenant with everything it owns.
func (h *MasterHandler) DeleteEstablishment(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Establishments.DeleteByID(c.Request().Context(), id); err != nil {
		if err == repository.ErrEstablishmentNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "establishment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateAdmin handles POST /v1/admins and provisions an establishment
// admin account.
func (h *MasterHandler) CreateAdmin(c echo.Context) error {
	var body struct {
		Username        string `json:"username"`
		Password        string `json:"password"`
		EstablishmentID uint64 `json:"establishment_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Username = strings.TrimSpace(body.Username)
	if body.Username == "" || body.Password == "" || body.EstablishmentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username, password and establishment_id are required"})
	}
	ctx := c.Request().Context()
	if _, err := h.Establishments.GetByID(ctx, body.EstablishmentID); err != nil {
		if err == repository.ErrEstablishmentNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "establishment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	id, err := h.Admins.Create(ctx, body.Username, body.Password, body.EstablishmentID, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrUsernameExists {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create admin"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":               id,
		"username":         body.Username,
		"establishment_id": body.EstablishmentID,
	})
}

// ListAdmins handles GET /v1/admins, optionally filtered by
// ?establishment_id=.
func (h *MasterHandler) ListAdmins(c echo.Context) error {
	var filter *uint64
	if raw := c.QueryParam("establishment_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid establishment_id"})
		}
		filter = &id
	}
	out, err := h.Admins.List(c.Request().Context(), filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if out == nil {
		out = []repository.AdminWithEstablishment{}
	}
	return c.JSON(http.StatusOK, out)
}

// DeleteAdmin handles DELETE /v1/admins/:id.
func (h *MasterHandler) DeleteAdmin(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Admins.DeleteByID(c.Request().Context(), id); err != nil {
		if err == repository.ErrAdminNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "admin not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListAllEvents handles GET /v1/master/events: every event across tenants,
// optionally filtered by ?establishment_id=, each with its derived status
// and owning establishment's name.
func (h *MasterHandler) ListAllEvents(c echo.Context) error {
	var filter *uint64
	if raw := c.QueryParam("establishment_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid establishment_id"})
		}
		filter = &id
	}
	events, err := h.Events.ListAll(c.Request().Context(), filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	now := time.Now().UTC()
	items := make([]echo.Map, 0, len(events))
	for i := range events {
		e := &events[i]
		items = append(items, echo.Map{
			"id":                 e.ID,
			"code":               e.Code,
			"establishment_id":   e.EstablishmentID,
			"establishment_name": e.EstablishmentName,
			"start_date":         e.StartDate,
			"end_date":           e.EndDate,
			"number_of_tables":   e.NumberOfTables,
			"status":             eventStatus(&e.Event, now),
			"qr_payload":         e.QRPayload,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
