package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grantline/grantline/internal/domain"
)

// PGDirectory loads accounts from Postgres. The store holds the working
// copy; the table is the durable one, since password hashes never travel
// through JSON snapshots.
type PGDirectory struct {
	pool *pgxpool.Pool
}

// NewDirectory constructs a PGDirectory.
func NewDirectory(pool *pgxpool.Pool) *PGDirectory {
	return &PGDirectory{pool: pool}
}

// LoadAll fetches every account.
func (d *PGDirectory) LoadAll(ctx context.Context) ([]domain.User, error) {
	if d == nil || d.pool == nil {
		return nil, nil
	}
	rows, err := d.pool.Query(ctx,
		`SELECT id, email, name, role, unit_id, assigned_project_ids, password_hash, is_active, created_at
		 FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	defer rows.Close()
	var out []domain.User
	for rows.Next() {
		var u domain.User
		var unitID *string
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &unitID, &u.AssignedProjectIDs, &u.PasswordHash, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, err
		}
		if unitID != nil {
			u.UnitID = *unitID
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Insert stores a new account.
func (d *PGDirectory) Insert(ctx context.Context, u domain.User) error {
	if d == nil || d.pool == nil {
		return errors.New("user directory not initialised")
	}
	var unitID *string
	if u.UnitID != "" {
		unitID = &u.UnitID
	}
	_, err := d.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, role, unit_id, assigned_project_ids, password_hash, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (email) DO NOTHING`,
		u.ID, u.Email, u.Name, u.Role, unitID, u.AssignedProjectIDs, u.PasswordHash, u.IsActive, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}
