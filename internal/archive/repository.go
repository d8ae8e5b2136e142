// Package archive persists dataset snapshots to Postgres so the in-memory
// store survives restarts.
package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grantline/grantline/internal/interchange"
	"github.com/grantline/grantline/internal/shared"
)

// Repository stores exchange documents as jsonb rows.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save inserts a snapshot. The checksum covers the data section only, so an
// unchanged dataset is written once no matter how often the snapshot job
// fires; duplicates report success.
func (r *Repository) Save(ctx context.Context, doc interchange.Document) error {
	if r == nil || r.pool == nil {
		return errors.New("archive repository not initialised")
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	data, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("encode snapshot data: %w", err)
	}
	sum := sha256.Sum256(data)
	_, err = r.pool.Exec(ctx,
		`INSERT INTO snapshots (checksum, taken_at, document) VALUES ($1, $2, $3)`,
		hex.EncodeToString(sum[:]), doc.ExportDate, payload)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_snapshots_checksum" {
			return nil
		}
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot document.
func (r *Repository) Latest(ctx context.Context) (interchange.Document, error) {
	if r == nil || r.pool == nil {
		return interchange.Document{}, errors.New("archive repository not initialised")
	}
	var payload []byte
	err := r.pool.QueryRow(ctx,
		`SELECT document FROM snapshots ORDER BY taken_at DESC, id DESC LIMIT 1`).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return interchange.Document{}, fmt.Errorf("%w: no snapshot", shared.ErrNotFound)
	}
	if err != nil {
		return interchange.Document{}, fmt.Errorf("load snapshot: %w", err)
	}
	var doc interchange.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return interchange.Document{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return doc, nil
}

// Prune drops snapshots older than the retention window, keeping the newest
// row regardless.
func (r *Repository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("archive repository not initialised")
	}
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM snapshots WHERE taken_at < $1 AND id <> (SELECT id FROM snapshots ORDER BY taken_at DESC, id DESC LIMIT 1)`,
		olderThan)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
