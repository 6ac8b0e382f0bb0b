package repository // repository defines data access for room participants

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// User is a participant who joined a table with a nickname.  Users are
// created when a guest joins and are never deleted outside the
// establishment cascade.
type User struct {
	ID        uint64    `json:"id"`
	Nickname  string    `json:"nickname"`
	TableID   uint64    `json:"table_id"`
	RoomID    uint64    `json:"room_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrUserNotFound is returned when a participant lookup fails.
var ErrUserNotFound = errors.New("user not found")

// UserRepo provides persistence for room participants.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo constructs a UserRepo with the given DB handle.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a participant.  On success the ID and creation timestamp
// are populated.
func (r *UserRepo) Create(ctx context.Context, u *User) error {
	const q = `INSERT INTO users (nickname, table_id, room_id) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, u.Nickname, u.TableID, u.RoomID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	const sel = `SELECT id, nickname, table_id, room_id, created_at FROM users WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, u.ID).
		Scan(&u.ID, &u.Nickname, &u.TableID, &u.RoomID, &u.CreatedAt)
}

// GetByID retrieves a participant by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*User, error) {
	const q = `SELECT id, nickname, table_id, room_id, created_at FROM users WHERE id = ?`
	var u User
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&u.ID, &u.Nickname, &u.TableID, &u.RoomID, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ListByTable returns everyone seated at a table, oldest-first.
func (r *UserRepo) ListByTable(ctx context.Context, tableID uint64) ([]User, error) {
	const q = `SELECT id, nickname, table_id, room_id, created_at FROM users WHERE table_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, tableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Nickname, &u.TableID, &u.RoomID, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
