package repository // repository defines data access for tables

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"       // errors for sentinel definitions
)

// Table is a numbered seat-group within a room and the unit note exchange
// is scoped to.  Numbers are contiguous 1..N within a room and immutable
// after bulk creation.
type Table struct {
	ID     uint64 `json:"id"`
	RoomID uint64 `json:"room_id"`
	Number int    `json:"number"`
}

// ErrTableNotFound is returned when a table lookup yields no rows.
var ErrTableNotFound = errors.New("table not found")

// TableRepo provides methods to work with tables in the database.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo constructs a TableRepo with the given DB handle.
func NewTableRepo(db *sql.DB) *TableRepo {
	return &TableRepo{db: db}
}

// CreateBulkTx inserts tables numbered 1..count for a room in a single
// statement on the caller's transaction.
func (r *TableRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, roomID uint64, count int) error {
	if count <= 0 {
		return nil
	}
	query := `INSERT INTO tables (room_id, number) VALUES `
	args := make([]any, 0, count*2)
	for i := 1; i <= count; i++ {
		if i > 1 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, roomID, i)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID retrieves a table by its id.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*Table, error) {
	const q = `SELECT id, room_id, number FROM tables WHERE id = ?`
	var t Table
	err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.RoomID, &t.Number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListByRoom retrieves all tables of a room ordered by number.
func (r *TableRepo) ListByRoom(ctx context.Context, roomID uint64) ([]Table, error) {
	const q = `SELECT id, room_id, number FROM tables WHERE room_id = ? ORDER BY number`
	rows, err := r.db.QueryContext(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.ID, &t.RoomID, &t.Number); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
