package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/bilhetinho/server/internal/config"
	"github.com/bilhetinho/server/internal/queue"
	"github.com/bilhetinho/server/internal/repository"
)

// maxMessageRunes bounds note length.  Counted in runes, not bytes, so
// accented text gets the same allowance as ASCII.
const maxMessageRunes = 140

// NoteHandler bundles the repositories used by note exchange endpoints.
type NoteHandler struct {
	Cfg    config.Config
	Notes  *repository.NoteRepo
	Tables *repository.TableRepo
	Rooms  *repository.RoomRepo
}

// NewNoteHandler constructs a NoteHandler and panics if any dependency is
// nil.
func NewNoteHandler(cfg config.Config, nt *repository.NoteRepo, tb *repository.TableRepo, rm *repository.RoomRepo) *NoteHandler {
	if nt == nil || tb == nil || rm == nil {
		panic("nil repository passed to NewNoteHandler")
	}
	return &NoteHandler{Cfg: cfg, Notes: nt, Tables: tb, Rooms: rm}
}

// SendNote handles POST /v1/notes.  Both tables must exist and share an
// active room, the sender and receiver must differ, and the message must be
// non-empty and within the length limit.  The sender table's lifetime quota
// is enforced at insert time; exceeding it is 429.
func (h *NoteHandler) SendNote(c echo.Context) error {
	var body struct {
		FromTableID uint64 `json:"from_table_id"`
		ToTableID   uint64 `json:"to_table_id"`
		Message     string `json:"message"`
		IsAnonymous bool   `json:"is_anonymous"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()

	from, err := h.Tables.GetByID(ctx, body.FromTableID)
	if err != nil {
		if err == repository.ErrTableNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "sender table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	to, err := h.Tables.GetByID(ctx, body.ToTableID)
	if err != nil {
		if err == repository.ErrTableNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "recipient table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	// A closed event refuses sends outright, before any pairing validation.
	room, err := h.Rooms.GetByID(ctx, from.RoomID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !room.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "event has been closed"})
	}
	if from.RoomID != to.RoomID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tables belong to different rooms"})
	}
	if from.ID == to.ID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot send a note to your own table"})
	}

	// Validate on a trimmed copy; the stored text stays exactly as sent.
	trimmed := strings.TrimSpace(body.Message)
	if trimmed == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message is required"})
	}
	if utf8.RuneCountInString(trimmed) > maxMessageRunes {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message exceeds 140 characters"})
	}

	note := &repository.Note{
		RoomID:      room.ID,
		FromTableID: from.ID,
		ToTableID:   to.ID,
		Message:     body.Message,
		IsAnonymous: body.IsAnonymous,
	}
	if err := h.Notes.Create(ctx, note, h.Cfg.MaxNotesPerTable); err != nil {
		if err == repository.ErrNoteQuota {
			return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "note limit reached for this table"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create note"})
	}

	// Best effort: a broker outage never fails the send.
	_ = queue.PublishNoteSent(ctx, queue.NoteSentEvent{
		NoteID:      note.ID,
		RoomID:      room.ID,
		RoomName:    room.Name,
		FromTable:   from.Number,
		ToTable:     to.Number,
		IsAnonymous: note.IsAnonymous,
		SentAt:      note.CreatedAt.UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, note)
}

// AcceptNote handles POST /v1/notes/:id/accept.
func (h *NoteHandler) AcceptNote(c echo.Context) error {
	return h.respond(c, repository.NoteStatusAccepted)
}

// IgnoreNote handles POST /v1/notes/:id/ignore.
func (h *NoteHandler) IgnoreNote(c echo.Context) error {
	return h.respond(c, repository.NoteStatusIgnored)
}

func (h *NoteHandler) respond(c echo.Context, status string) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	note, err := h.Notes.Respond(c.Request().Context(), id, status)
	if err != nil {
		switch err {
		case repository.ErrNoteNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "note already processed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, note)
}

// ListInbox handles GET /v1/tables/:id/notes/received and returns pending
// notes addressed to the table.
func (h *NoteHandler) ListInbox(c echo.Context) error {
	return h.listReceived(c, repository.NoteStatusSent)
}

// ListAccepted handles GET /v1/tables/:id/notes/accepted.
func (h *NoteHandler) ListAccepted(c echo.Context) error {
	return h.listReceived(c, repository.NoteStatusAccepted)
}

// ListIgnored handles GET /v1/tables/:id/notes/ignored.
func (h *NoteHandler) ListIgnored(c echo.Context) error {
	return h.listReceived(c, repository.NoteStatusIgnored)
}

func (h *NoteHandler) listReceived(c echo.Context, status string) error {
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
	notes, err := h.Notes.ListByReceiverAndStatus(ctx, id, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if notes == nil {
		notes = []repository.Note{}
	}
	return c.JSON(http.StatusOK, notes)
}

// ListSent handles GET /v1/tables/:id/notes/sent and returns every note the
// table has sent, whatever its current status.
func (h *NoteHandler) ListSent(c echo.Context) error {
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
	notes, err := h.Notes.ListBySender(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if notes == nil {
		notes = []repository.Note{}
	}
	return c.JSON(http.StatusOK, notes)
}
