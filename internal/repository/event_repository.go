// Package repository contains data access logic separated from HTTP handlers.
// This file defines the Event model and repository methods.  An Event is a
// time-boxed session owned by one establishment and joined by guests through
// a unique 6-character code.  At most one event per establishment may be
// active at any time; that invariant is enforced by running the
// deactivate-then-insert sequence inside a single transaction.
package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"errors"       // errors is used to define custom error values
	"time"
)

// Event represents an event row.  Codes are stored upper-case and compared
// case-insensitively.  EstablishmentID is nullable: events created before
// multi-tenancy have no owner.
type Event struct {
	ID              uint64    `json:"id"`
	Code            string    `json:"code"`
	EstablishmentID *uint64   `json:"establishment_id"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	NumberOfTables  int       `json:"number_of_tables"`
	IsActive        bool      `json:"is_active"`
	QRPayload       string    `json:"qr_payload"`
	CreatedAt       time.Time `json:"created_at"`
}

// ErrEventNotFound is returned when an event cannot be found in the DB.
var ErrEventNotFound = errors.New("event not found")

// EventRepo encapsulates all database queries related to events.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the provided DB handle.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning multiple repositories (event + room + tables creation).
func (r *EventRepo) DB() *sql.DB {
	return r.db
}

const eventCols = `id, code, establishment_id, start_date, end_date, number_of_tables, is_active, qr_payload, created_at`

func scanEvent(row interface{ Scan(...any) error }, e *Event) error {
	return row.Scan(&e.ID, &e.Code, &e.EstablishmentID, &e.StartDate, &e.EndDate,
		&e.NumberOfTables, &e.IsActive, &e.QRPayload, &e.CreatedAt)
}

// CodeExistsTx reports whether an event with the given code already exists.
// It runs on the provided transaction so the code generator's uniqueness
// check observes the same snapshot as the insert that follows it.
func (r *EventRepo) CodeExistsTx(ctx context.Context, tx *sql.Tx, code string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE code = ?`, code).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateTx inserts a new event using the provided transaction.  The caller
// must commit or roll back.  On success the generated ID and DB-default
// fields are populated on the given Event.
func (r *EventRepo) CreateTx(ctx context.Context, tx *sql.Tx, e *Event) error {
	const q = `INSERT INTO events (code, establishment_id, start_date, end_date, number_of_tables, is_active, qr_payload)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, e.Code, e.EstablishmentID, e.StartDate, e.EndDate,
		e.NumberOfTables, e.IsActive, e.QRPayload)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	const sel = `SELECT ` + eventCols + ` FROM events WHERE id = ?`
	return scanEvent(tx.QueryRowContext(ctx, sel, e.ID), e)
}

// DeactivateActiveTx flips any currently-active event of the establishment
// (and its paired room) to inactive.  Rooms are updated first because the
// pairing join relies on the event still being identifiable by code; both
// statements run on the caller's transaction.
func (r *EventRepo) DeactivateActiveTx(ctx context.Context, tx *sql.Tx, establishmentID uint64) error {
	const qRooms = `UPDATE rooms rm
	                JOIN events e ON e.code = rm.event_code
	                SET rm.is_active = 0
	                WHERE e.establishment_id = ? AND e.is_active = 1`
	if _, err := tx.ExecContext(ctx, qRooms, establishmentID); err != nil {
		return err
	}
	const qEvents = `UPDATE events SET is_active = 0 WHERE establishment_id = ? AND is_active = 1`
	_, err := tx.ExecContext(ctx, qEvents, establishmentID)
	return err
}

// GetByID fetches an event by its ID.  It returns ErrEventNotFound when no
// row matches.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*Event, error) {
	const q = `SELECT ` + eventCols + ` FROM events WHERE id = ?`
	var e Event
	if err := scanEvent(r.db.QueryRowContext(ctx, q, id), &e); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

// GetByCode fetches an event by its access code.  Lookup is
// case-insensitive: stored codes are upper-case, so the input is upper-cased
// in SQL before comparison.
func (r *EventRepo) GetByCode(ctx context.Context, code string) (*Event, error) {
	const q = `SELECT ` + eventCols + ` FROM events WHERE code = UPPER(?)`
	var e Event
	if err := scanEvent(r.db.QueryRowContext(ctx, q, code), &e); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

// ListByEstablishment returns the establishment's events newest-first.
func (r *EventRepo) ListByEstablishment(ctx context.Context, establishmentID uint64) ([]Event, error) {
	const q = `SELECT ` + eventCols + ` FROM events
	           WHERE establishment_id = ?
	           ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, establishmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// EventWithEstablishment pairs an event with its owner's name for the
// master listing.  EstablishmentName is nil for legacy ownerless events.
type EventWithEstablishment struct {
	Event
	EstablishmentName *string `json:"establishment_name"`
}

// ListAll returns events across all establishments newest-first, optionally
// filtered to a single establishment.  Master-level callers only.
func (r *EventRepo) ListAll(ctx context.Context, establishmentID *uint64) ([]EventWithEstablishment, error) {
	q := `SELECT e.id, e.code, e.establishment_id, e.start_date, e.end_date,
	             e.number_of_tables, e.is_active, e.qr_payload, e.created_at, est.name
	      FROM events e
	      LEFT JOIN establishments est ON est.id = e.establishment_id`
	var args []any
	if establishmentID != nil {
		q += ` WHERE e.establishment_id = ?`
		args = append(args, *establishmentID)
	}
	q += ` ORDER BY e.created_at DESC, e.id DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventWithEstablishment
	for rows.Next() {
		var e EventWithEstablishment
		var name sql.NullString
		if err := rows.Scan(&e.ID, &e.Code, &e.EstablishmentID, &e.StartDate, &e.EndDate,
			&e.NumberOfTables, &e.IsActive, &e.QRPayload, &e.CreatedAt, &name); err != nil {
			return nil, err
		}
		if name.Valid {
			n := name.String
			e.EstablishmentName = &n
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Deactivate marks the event and its paired room inactive in one
// transaction.  Guest-facing checks observe the flip immediately: note and
// user creation in the room is denied from the next request on.  Callers
// must have verified tenant ownership beforehand.
func (r *EventRepo) Deactivate(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	var code string
	if err = tx.QueryRowContext(ctx, `SELECT code FROM events WHERE id = ?`, id).Scan(&code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrEventNotFound
		}
		return err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE events SET is_active = 0 WHERE id = ?`, id); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `UPDATE rooms SET is_active = 0 WHERE event_code = ?`, code)
	return err
}
