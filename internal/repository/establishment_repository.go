// Package repository contains data access logic separated from HTTP handlers.
// This file defines the Establishment model and repository methods.  An
// Establishment is a tenant venue owning admin users and events; deleting
// one cascades through everything it owns.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Establishment represents a tenant venue.
type Establishment struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrEstablishmentNotFound is returned when an establishment cannot be found.
var ErrEstablishmentNotFound = errors.New("establishment not found")

// EstablishmentRepo encapsulates all database queries related to
// establishments.
type EstablishmentRepo struct {
	db *sql.DB
}

// NewEstablishmentRepo constructs an EstablishmentRepo with the provided DB
// handle.
func NewEstablishmentRepo(db *sql.DB) *EstablishmentRepo {
	return &EstablishmentRepo{db: db}
}

// Create inserts a new establishment.  On success the ID and creation
// timestamp are populated.
func (r *EstablishmentRepo) Create(ctx context.Context, e *Establishment) error {
	const q = `INSERT INTO establishments (name) VALUES (?)`
	res, err := r.db.ExecContext(ctx, q, e.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	const sel = `SELECT id, name, created_at FROM establishments WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, e.ID).Scan(&e.ID, &e.Name, &e.CreatedAt)
}

// GetByID fetches an establishment by its ID.
func (r *EstablishmentRepo) GetByID(ctx context.Context, id uint64) (*Establishment, error) {
	const q = `SELECT id, name, created_at FROM establishments WHERE id = ?`
	var e Establishment
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&e.ID, &e.Name, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEstablishmentNotFound
		}
		return nil, err
	}
	return &e, nil
}

// ListAll returns all establishments newest-first.
func (r *EstablishmentRepo) ListAll(ctx context.Context) ([]Establishment, error) {
	const q = `SELECT id, name, created_at FROM establishments ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Establishment
	for rows.Next() {
		var e Establishment
		if err := rows.Scan(&e.ID, &e.Name, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByID removes an establishment and every record that descends from
// it.  Deletion runs innermost-first (notes, users, tables, rooms, events,
// admin users, then the establishment itself) within one transaction so a
// partial failure aborts the whole cascade.  Returns
// ErrEstablishmentNotFound when the tenant does not exist.
func (r *EstablishmentRepo) DeleteByID(ctx context.Context, id uint64) error {
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

	var exists uint64
	if err = tx.QueryRowContext(ctx, `SELECT id FROM establishments WHERE id = ?`, id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrEstablishmentNotFound
		}
		return err
	}
	// Notes in rooms of this tenant's events.
	if _, err = tx.ExecContext(ctx,
		`DELETE n FROM notes n
		 JOIN rooms rm ON rm.id = n.room_id
		 JOIN events e ON e.code = rm.event_code
		 WHERE e.establishment_id = ?`, id); err != nil {
		return err
	}
	// Participants in those rooms.
	if _, err = tx.ExecContext(ctx,
		`DELETE u FROM users u
		 JOIN rooms rm ON rm.id = u.room_id
		 JOIN events e ON e.code = rm.event_code
		 WHERE e.establishment_id = ?`, id); err != nil {
		return err
	}
	// Tables in those rooms.
	if _, err = tx.ExecContext(ctx,
		`DELETE t FROM tables t
		 JOIN rooms rm ON rm.id = t.room_id
		 JOIN events e ON e.code = rm.event_code
		 WHERE e.establishment_id = ?`, id); err != nil {
		return err
	}
	// Rooms paired with this tenant's events.
	if _, err = tx.ExecContext(ctx,
		`DELETE rm FROM rooms rm
		 JOIN events e ON e.code = rm.event_code
		 WHERE e.establishment_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM events WHERE establishment_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM admin_users WHERE establishment_id = ?`, id); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM establishments WHERE id = ?`, id)
	return err
}
