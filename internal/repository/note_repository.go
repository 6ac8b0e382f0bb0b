// Package repository contains data access for notes, the short anonymous or
// signed messages exchanged between tables of the same room.  A note's
// status moves exactly once from "sent" to "accepted" or "ignored"; the
// transition is guarded with a conditional UPDATE so concurrent responses
// cannot both succeed.  The per-table send quota is enforced inside a
// transaction with a locking count so concurrent sends from the same table
// cannot overshoot the limit.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Note status values as stored in the notes.status column.
const (
	NoteStatusSent     = "sent"
	NoteStatusAccepted = "accepted"
	NoteStatusIgnored  = "ignored"
)

// Note represents a notes row.
type Note struct {
	ID          uint64    `json:"id"`
	RoomID      uint64    `json:"room_id"`
	FromTableID uint64    `json:"from_table_id"`
	ToTableID   uint64    `json:"to_table_id"`
	Message     string    `json:"message"`
	Status      string    `json:"status"`
	IsAnonymous bool      `json:"is_anonymous"`
	CreatedAt   time.Time `json:"created_at"`
}

// ErrNoteNotFound is returned when a note lookup fails.
var ErrNoteNotFound = errors.New("note not found")

// NoteRepo provides persistence for notes.
type NoteRepo struct {
	db *sql.DB
}

// NewNoteRepo constructs a NoteRepo with the given DB handle.
func NewNoteRepo(db *sql.DB) *NoteRepo {
	return &NoteRepo{db: db}
}

const noteCols = `id, room_id, from_table_id, to_table_id, message, status, is_anonymous, created_at`

func scanNote(row interface{ Scan(...any) error }, n *Note) error {
	return row.Scan(&n.ID, &n.RoomID, &n.FromTableID, &n.ToTableID,
		&n.Message, &n.Status, &n.IsAnonymous, &n.CreatedAt)
}

// Create persists a note with status "sent" after checking the sender
// table's lifetime quota.  Count and insert run in one transaction; the
// locking read serializes concurrent sends from the same table so the quota
// holds strictly.  Returns ErrNoteQuota when the table has already sent
// maxPerTable notes.
func (r *NoteRepo) Create(ctx context.Context, n *Note, maxPerTable int) error {
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

	var sent int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notes WHERE from_table_id = ? FOR UPDATE`, n.FromTableID).Scan(&sent)
	if err != nil {
		return err
	}
	if sent >= maxPerTable {
		err = ErrNoteQuota
		return err
	}

	const q = `INSERT INTO notes (room_id, from_table_id, to_table_id, message, status, is_anonymous)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, n.RoomID, n.FromTableID, n.ToTableID,
		n.Message, NoteStatusSent, n.IsAnonymous)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	const sel = `SELECT ` + noteCols + ` FROM notes WHERE id = ?`
	err = scanNote(tx.QueryRowContext(ctx, sel, n.ID), n)
	return err
}

// GetByID retrieves a note by its id.
func (r *NoteRepo) GetByID(ctx context.Context, id uint64) (*Note, error) {
	const q = `SELECT ` + noteCols + ` FROM notes WHERE id = ?`
	var n Note
	if err := scanNote(r.db.QueryRowContext(ctx, q, id), &n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	return &n, nil
}

// Respond transitions a note from "sent" to the given status.  The UPDATE
// only matches rows still in "sent", so a second response affects zero rows
// and yields ErrConflict; a missing note yields ErrNoteNotFound.  On
// success the updated note is returned.
func (r *NoteRepo) Respond(ctx context.Context, id uint64, status string) (*Note, error) {
	const q = `UPDATE notes SET status = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, status, id, NoteStatusSent)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish missing from already-processed.
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}
	return r.GetByID(ctx, id)
}

// ListByReceiverAndStatus returns notes addressed to a table in the given
// status, newest-first.
func (r *NoteRepo) ListByReceiverAndStatus(ctx context.Context, tableID uint64, status string) ([]Note, error) {
	const q = `SELECT ` + noteCols + ` FROM notes
	           WHERE to_table_id = ? AND status = ?
	           ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q, tableID, status)
}

// ListBySender returns all notes a table has sent regardless of status,
// newest-first.
func (r *NoteRepo) ListBySender(ctx context.Context, tableID uint64) ([]Note, error) {
	const q = `SELECT ` + noteCols + ` FROM notes
	           WHERE from_table_id = ?
	           ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q, tableID)
}

func (r *NoteRepo) list(ctx context.Context, q string, args ...any) ([]Note, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		var n Note
		if err := scanNote(rows, &n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
