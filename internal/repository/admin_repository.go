package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/bilhetinho/server/internal/utils"
)

// AdminUser mirrors the 'admin_users' table.  Usernames are globally
// unique; each admin belongs to exactly one establishment.  The password
// hash never leaves the repository layer.
type AdminUser struct {
	ID              uint64    `json:"id"`
	Username        string    `json:"username"`
	PasswordHash    string    `json:"-"`
	EstablishmentID uint64    `json:"establishment_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// ErrAdminNotFound is returned when an admin lookup fails.
var ErrAdminNotFound = errors.New("admin user not found")

// ErrUsernameExists is returned when an insert hits the unique username
// index.
var ErrUsernameExists = errors.New("username already exists")

// AdminRepo provides persistence for establishment admin users.
type AdminRepo struct {
	db *sql.DB
}

// NewAdminRepo constructs an AdminRepo with the given DB handle.
func NewAdminRepo(db *sql.DB) *AdminRepo {
	return &AdminRepo{db: db}
}

// Create hashes the password and inserts the admin, returning its ID.
func (r *AdminRepo) Create(ctx context.Context, username, password string, establishmentID uint64, cost int) (uint64, error) {
	username = strings.TrimSpace(username)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO admin_users (username, password_hash, establishment_id) VALUES (?, ?, ?)`,
		username, hash, establishmentID)
	if err != nil {
		// MySQL duplicate-key error code embedded in the message.
		if strings.Contains(err.Error(), "1062") {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches an admin by username for login.
func (r *AdminRepo) GetByUsername(ctx context.Context, username string) (*AdminUser, error) {
	const q = `SELECT id, username, password_hash, establishment_id, created_at
	           FROM admin_users WHERE username = ? LIMIT 1`
	var a AdminUser
	err := r.db.QueryRowContext(ctx, q, strings.TrimSpace(username)).
		Scan(&a.ID, &a.Username, &a.PasswordHash, &a.EstablishmentID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return &a, nil
}

// AdminWithEstablishment pairs an admin with its establishment's name for
// master listings.
type AdminWithEstablishment struct {
	AdminUser
	EstablishmentName string `json:"establishment_name"`
}

// List returns admins newest-first, optionally filtered by establishment.
func (r *AdminRepo) List(ctx context.Context, establishmentID *uint64) ([]AdminWithEstablishment, error) {
	q := `SELECT a.id, a.username, a.establishment_id, a.created_at, e.name
	      FROM admin_users a
	      JOIN establishments e ON e.id = a.establishment_id`
	var args []any
	if establishmentID != nil {
		q += ` WHERE a.establishment_id = ?`
		args = append(args, *establishmentID)
	}
	q += ` ORDER BY a.created_at DESC, a.id DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AdminWithEstablishment
	for rows.Next() {
		var a AdminWithEstablishment
		if err := rows.Scan(&a.ID, &a.Username, &a.EstablishmentID, &a.CreatedAt, &a.EstablishmentName); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByID removes an admin user.  Events owned by the admin's
// establishment are untouched; only the tenant cascade removes those.
func (r *AdminRepo) DeleteByID(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admin_users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAdminNotFound
	}
	return nil
}
