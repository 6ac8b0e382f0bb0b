package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilhetinho/server/internal/config"
	"github.com/bilhetinho/server/internal/repository"
)

func newMasterHandler(t *testing.T) (*MasterHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{BcryptCost: 4}
	return NewMasterHandler(cfg,
		repository.NewEstablishmentRepo(db),
		repository.NewAdminRepo(db),
		repository.NewEventRepo(db)), mock
}

func TestCreateEstablishmentRequiresName(t *testing.T) {
	h, _ := newMasterHandler(t)
	e := echo.New()

	for _, body := range []string{`{}`, `{"name":"   "}`} {
		c, rec := jsonCtx(e, http.MethodPost, "/v1/establishments", body)
		require.NoError(t, h.CreateEstablishment(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestCreateEstablishment(t *testing.T) {
	h, mock := newMasterHandler(t)
	e := echo.New()

	mock.ExpectExec(`INSERT INTO establishments`).
		WithArgs("Bar do Zé").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectQuery(`SELECT id, name, created_at FROM establishments WHERE id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).
			AddRow(3, "Bar do Zé", time.Now()))

	c, rec := jsonCtx(e, http.MethodPost, "/v1/establishments", `{"name":"Bar do Zé"}`)
	require.NoError(t, h.CreateEstablishment(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bar do Zé")
}

func TestCreateAdminUnknownEstablishment(t *testing.T) {
	h, mock := newMasterHandler(t)
	e := echo.New()

	mock.ExpectQuery(`SELECT id, name, created_at FROM establishments WHERE id = \?`).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	c, rec := jsonCtx(e, http.MethodPost, "/v1/admins",
		`{"username":"bar.admin","password":"pw","establishment_id":99}`)
	require.NoError(t, h.CreateAdmin(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAdminDuplicateUsername(t *testing.T) {
	h, mock := newMasterHandler(t)
	e := echo.New()

	mock.ExpectQuery(`SELECT id, name, created_at FROM establishments WHERE id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).
			AddRow(3, "Bar do Zé", time.Now()))
	mock.ExpectExec(`INSERT INTO admin_users`).
		WillReturnError(errDuplicateKey{})

	c, rec := jsonCtx(e, http.MethodPost, "/v1/admins",
		`{"username":"bar.admin","password":"pw","establishment_id":3}`)
	require.NoError(t, h.CreateAdmin(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "username already exists")
}

// errDuplicateKey mimics the MySQL duplicate-entry error surface.
type errDuplicateKey struct{}

func (errDuplicateKey) Error() string {
	return "Error 1062 (23000): Duplicate entry 'bar.admin' for key 'admin_users.username'"
}

func TestDeleteEstablishmentNotFound(t *testing.T) {
	h, mock := newMasterHandler(t)
	e := echo.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM establishments WHERE id = \?`).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	c, rec := jsonCtx(e, http.MethodDelete, "/v1/establishments/99", "")
	c.SetParamNames("id")
	c.SetParamValues("99")
	require.NoError(t, h.DeleteEstablishment(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteAdmin(t *testing.T) {
	h, mock := newMasterHandler(t)
	e := echo.New()

	mock.ExpectExec(`DELETE FROM admin_users WHERE id = \?`).
		WithArgs(uint64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := jsonCtx(e, http.MethodDelete, "/v1/admins/4", "")
	c.SetParamNames("id")
	c.SetParamValues("4")
	require.NoError(t, h.DeleteAdmin(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
