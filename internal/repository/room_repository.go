package repository // repository holds data access logic for domain entities

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"errors"       // errors package allows sentinel error definitions
	"time"
)

// Room is the live messaging space materialized for an event.  Exactly one
// room exists per event, linked by the event's code; its is_active flag
// mirrors the event's.
type Room struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	EventCode string    `json:"event_code"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrRoomNotFound is returned when a room lookup fails.
var ErrRoomNotFound = errors.New("room not found")

// RoomRepo provides methods to create and retrieve rooms.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo constructs a RoomRepo with the given DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// CreateTx inserts a new room on the caller's transaction so room creation
// commits atomically with its event.  On success the ID and DB-default
// fields are populated.
func (r *RoomRepo) CreateTx(ctx context.Context, tx *sql.Tx, rm *Room) error {
	const q = `INSERT INTO rooms (name, is_active, event_code) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, rm.Name, rm.IsActive, rm.EventCode)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rm.ID = uint64(id)
	const sel = `SELECT id, name, is_active, event_code, created_at FROM rooms WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, rm.ID).
		Scan(&rm.ID, &rm.Name, &rm.IsActive, &rm.EventCode, &rm.CreatedAt)
}

// GetByID retrieves a room by its ID.  It returns ErrRoomNotFound when no
// row is found.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*Room, error) {
	const q = `SELECT id, name, is_active, event_code, created_at FROM rooms WHERE id = ?`
	var rm Room
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&rm.ID, &rm.Name, &rm.IsActive, &rm.EventCode, &rm.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &rm, nil
}

// GetByEventCode retrieves the room paired with an event code.  Codes are
// stored upper-case, so the input is upper-cased in SQL before comparison.
func (r *RoomRepo) GetByEventCode(ctx context.Context, code string) (*Room, error) {
	const q = `SELECT id, name, is_active, event_code, created_at FROM rooms WHERE event_code = UPPER(?)`
	var rm Room
	err := r.db.QueryRowContext(ctx, q, code).
		Scan(&rm.ID, &rm.Name, &rm.IsActive, &rm.EventCode, &rm.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &rm, nil
}
