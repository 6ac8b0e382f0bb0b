package handler

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilhetinho/server/internal/config"
	"github.com/bilhetinho/server/internal/repository"
)

func newNoteHandler(t *testing.T) (*NoteHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{MaxNotesPerTable: 10}
	return NewNoteHandler(cfg,
		repository.NewNoteRepo(db),
		repository.NewTableRepo(db),
		repository.NewRoomRepo(db)), mock
}

func tableRow(id, roomID uint64, number int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "room_id", "number"}).AddRow(id, roomID, number)
}

func roomRow(id uint64, active bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "is_active", "event_code", "created_at"}).
		AddRow(id, "Evento AB12CD", active, "AB12CD", time.Now())
}

func expectTable(mock sqlmock.Sqlmock, id, roomID uint64, number int) {
	mock.ExpectQuery(`SELECT id, room_id, number FROM tables WHERE id = \?`).
		WithArgs(id).
		WillReturnRows(tableRow(id, roomID, number))
}

func expectRoom(mock sqlmock.Sqlmock, id uint64, active bool) {
	mock.ExpectQuery(`SELECT id, name, is_active, event_code, created_at FROM rooms WHERE id = \?`).
		WithArgs(id).
		WillReturnRows(roomRow(id, active))
}

func TestSendNoteToOwnTable(t *testing.T) {
	h, mock := newNoteHandler(t)
	e := echo.New()

	expectTable(mock, 5, 1, 5)
	expectTable(mock, 5, 1, 5)
	expectRoom(mock, 1, true)

	c, rec := jsonCtx(e, http.MethodPost, "/v1/notes",
		`{"from_table_id":5,"to_table_id":5,"message":"oi"}`)
	require.NoError(t, h.SendNote(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendNoteAcrossRooms(t *testing.T) {
	h, mock := newNoteHandler(t)
	e := echo.New()

	expectTable(mock, 5, 1, 5)
	expectTable(mock, 6, 2, 1)
	expectRoom(mock, 1, true)

	c, rec := jsonCtx(e, http.MethodPost, "/v1/notes",
		`{"from_table_id":5,"to_table_id":6,"message":"oi"}`)
	require.NoError(t, h.SendNote(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "different rooms")
}

func TestSendNoteInactiveRoom(t *testing.T) {
	h, mock := newNoteHandler(t)
	e := echo.New()

	expectTable(mock, 5, 1, 5)
	expectTable(mock, 6, 1, 6)
	expectRoom(mock, 1, false)

	c, rec := jsonCtx(e, http.MethodPost, "/v1/notes",
		`{"from_table_id":5,"to_table_id":6,"message":"oi"}`)
	require.NoError(t, h.SendNote(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// Closure of the event outranks pairing validation: tables in different
// rooms of a closed event get 403, not 400.
func TestSendNoteClosedRoomBeforePairingChecks(t *testing.T) {
	h, mock := newNoteHandler(t)
	e := echo.New()

	expectTable(mock, 5, 1, 5)
	expectTable(mock, 6, 2, 1)
	expectRoom(mock, 1, false)

	c, rec := jsonCtx(e, http.MethodPost, "/v1/notes",
		`{"from_table_id":5,"to_table_id":6,"message":"oi"}`)
	require.NoError(t, h.SendNote(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendNoteMissingTable(t *testing.T) {
	h, mock := newNoteHandler(t)
	e := echo.New()

	mock.ExpectQuery(`SELECT id, room_id, number FROM tables WHERE id = \?`).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	c, rec := jsonCtx(e, http.MethodPost, "/v1/notes",
		`{"from_table_id":99,"to_table_id":6,"message":"oi"}`)
	require.NoError(t, h.SendNote(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendNoteRejectsBadMessages(t *testing.T) {
	h, mock := newNoteHandler(t)
	e := echo.New()

	cases := []struct {
		name string
		msg  string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"too long", strings.Repeat("a", 141)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expectTable(mock, 5, 1, 5)
			expectTable(mock, 6, 1, 6)
			mock.ExpectQuery(`SELECT id, name, is_active, event_code, created_at FROM rooms WHERE id = \?`).
				WithArgs(uint64(1)).
				WillReturnRows(roomRow(1, true))

			c, rec := jsonCtx(e, http.MethodPost, "/v1/notes",
				`{"from_table_id":5,"to_table_id":6,"message":"`+tc.msg+`"}`)
			require.NoError(t, h.SendNote(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSendNoteAllowsFullLengthAccentedMessage(t *testing.T) {
	h, mock := newNoteHandler(t)
	e := echo.New()

	// 140 two-byte runes: over the limit in bytes, exactly at it in runes.
	msg := strings.Repeat("é", 140)

	expectTable(mock, 5, 1, 5)
	expectTable(mock, 6, 1, 6)
	mock.ExpectQuery(`SELECT id, name, is_active, event_code, created_at FROM rooms WHERE id = \?`).
		WithArgs(uint64(1)).
		WillReturnRows(roomRow(1, true))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notes WHERE from_table_id = \? FOR UPDATE`).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO notes`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT .+ FROM notes WHERE id = \?`).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "room_id", "from_table_id", "to_table_id", "message", "status", "is_anonymous", "created_at",
		}).AddRow(1, 1, 5, 6, msg, repository.NoteStatusSent, false, time.Now()))
	mock.ExpectCommit()

	c, rec := jsonCtx(e, http.MethodPost, "/v1/notes",
		`{"from_table_id":5,"to_table_id":6,"message":"`+msg+`"}`)
	require.NoError(t, h.SendNote(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

// Trimming applies to validation only; the stored text is the submitted one.
func TestSendNotePersistsMessageVerbatim(t *testing.T) {
	h, mock := newNoteHandler(t)
	e := echo.New()

	expectTable(mock, 5, 1, 5)
	expectTable(mock, 6, 1, 6)
	expectRoom(mock, 1, true)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notes WHERE from_table_id = \? FOR UPDATE`).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO notes`).
		WithArgs(uint64(1), uint64(5), uint64(6), "  oi  ", repository.NoteStatusSent, false).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectQuery(`SELECT .+ FROM notes WHERE id = \?`).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "room_id", "from_table_id", "to_table_id", "message", "status", "is_anonymous", "created_at",
		}).AddRow(2, 1, 5, 6, "  oi  ", repository.NoteStatusSent, false, time.Now()))
	mock.ExpectCommit()

	c, rec := jsonCtx(e, http.MethodPost, "/v1/notes",
		`{"from_table_id":5,"to_table_id":6,"message":"  oi  "}`)
	require.NoError(t, h.SendNote(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message":"  oi  "`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendNoteQuotaExceeded(t *testing.T) {
	h, mock := newNoteHandler(t)
	e := echo.New()

	expectTable(mock, 5, 1, 5)
	expectTable(mock, 6, 1, 6)
	mock.ExpectQuery(`SELECT id, name, is_active, event_code, created_at FROM rooms WHERE id = \?`).
		WithArgs(uint64(1)).
		WillReturnRows(roomRow(1, true))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notes WHERE from_table_id = \? FOR UPDATE`).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))
	mock.ExpectRollback()

	c, rec := jsonCtx(e, http.MethodPost, "/v1/notes",
		`{"from_table_id":5,"to_table_id":6,"message":"oi"}`)
	require.NoError(t, h.SendNote(c))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRespondTwiceIsRejected(t *testing.T) {
	h, mock := newNoteHandler(t)
	e := echo.New()

	mock.ExpectExec(`UPDATE notes SET status = \? WHERE id = \? AND status = \?`).
		WithArgs(repository.NoteStatusAccepted, uint64(7), repository.NoteStatusSent).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .+ FROM notes WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "room_id", "from_table_id", "to_table_id", "message", "status", "is_anonymous", "created_at",
		}).AddRow(7, 1, 5, 6, "oi", repository.NoteStatusIgnored, false, time.Now()))

	c, rec := jsonCtx(e, http.MethodPost, "/v1/notes/7/accept", "")
	c.SetParamNames("id")
	c.SetParamValues("7")
	require.NoError(t, h.AcceptNote(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already processed")
}

func TestRespondMissingNote(t *testing.T) {
	h, mock := newNoteHandler(t)
	e := echo.New()

	mock.ExpectExec(`UPDATE notes SET status = \? WHERE id = \? AND status = \?`).
		WithArgs(repository.NoteStatusIgnored, uint64(42), repository.NoteStatusSent).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .+ FROM notes WHERE id = \?`).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	c, rec := jsonCtx(e, http.MethodPost, "/v1/notes/42/ignore", "")
	c.SetParamNames("id")
	c.SetParamValues("42")
	require.NoError(t, h.IgnoreNote(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListInboxUnknownTable(t *testing.T) {
	h, mock := newNoteHandler(t)
	e := echo.New()

	mock.ExpectQuery(`SELECT id, room_id, number FROM tables WHERE id = \?`).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	c, rec := jsonCtx(e, http.MethodGet, "/v1/tables/99/notes/received", "")
	c.SetParamNames("id")
	c.SetParamValues("99")
	require.NoError(t, h.ListInbox(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListInboxEmptyIsJSONArray(t *testing.T) {
	h, mock := newNoteHandler(t)
	e := echo.New()

	expectTable(mock, 5, 1, 5)
	mock.ExpectQuery(`SELECT .+ FROM notes`).
		WithArgs(uint64(5), repository.NoteStatusSent).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "room_id", "from_table_id", "to_table_id", "message", "status", "is_anonymous", "created_at",
		}))

	c, rec := jsonCtx(e, http.MethodGet, "/v1/tables/5/notes/received", "")
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.ListInbox(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}
