package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The cascade must delete innermost records first so no step ever orphans a
// child of a row already removed.
func TestEstablishmentDeleteCascadeOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM establishments WHERE id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectExec(`DELETE n FROM notes n`).
		WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectExec(`DELETE u FROM users u`).
		WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 8))
	mock.ExpectExec(`DELETE t FROM tables t`).
		WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(`DELETE rm FROM rooms rm`).
		WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM events WHERE establishment_id = \?`).
		WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM admin_users WHERE establishment_id = \?`).
		WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM establishments WHERE id = \?`).
		WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewEstablishmentRepo(db)
	require.NoError(t, repo.DeleteByID(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEstablishmentDeleteUnknownTenant(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM establishments WHERE id = \?`).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	repo := NewEstablishmentRepo(db)
	err = repo.DeleteByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrEstablishmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
