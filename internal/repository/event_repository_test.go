package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventRows(id uint64, code string, active bool) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "code", "establishment_id", "start_date", "end_date",
		"number_of_tables", "is_active", "qr_payload", "created_at",
	}).AddRow(id, code, 1, now.Add(-time.Hour), now.Add(time.Hour), 5, active, "https://bilhetinho.app/?code="+code, now)
}

func TestEventGetByCodeIsCaseInsensitive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// The comparison upper-cases in SQL; the lower-case input reaches the
	// query untouched.
	mock.ExpectQuery(`SELECT .+ FROM events WHERE code = UPPER\(\?\)`).
		WithArgs("ab12cd").
		WillReturnRows(eventRows(3, "AB12CD", true))

	repo := NewEventRepo(db)
	e, err := repo.GetByCode(context.Background(), "ab12cd")
	require.NoError(t, err)
	assert.Equal(t, "AB12CD", e.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventDeactivateFlipsEventAndRoom(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT code FROM events WHERE id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("AB12CD"))
	mock.ExpectExec(`UPDATE events SET is_active = 0 WHERE id = \?`).
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE rooms SET is_active = 0 WHERE event_code = \?`).
		WithArgs("AB12CD").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewEventRepo(db)
	require.NoError(t, repo.Deactivate(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventDeactivateMissingEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT code FROM events WHERE id = \?`).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"code"}))
	mock.ExpectRollback()

	repo := NewEventRepo(db)
	err = repo.Deactivate(context.Background(), 99)
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventDeactivateActiveTxUpdatesRoomsFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE rooms rm`).
		WithArgs(uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE events SET is_active = 0 WHERE establishment_id = \? AND is_active = 1`).
		WithArgs(uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewEventRepo(db)
	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.DeactivateActiveTx(context.Background(), tx, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}
