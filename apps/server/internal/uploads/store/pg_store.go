package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tilsley/repopush/apps/server/internal/uploads"
)

// Compile-time check: *PGStore implements uploads.HistoryStore.
var _ uploads.HistoryStore = (*PGStore)(nil)

// PGStore implements uploads.HistoryStore using PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a new PGStore. The schema comes from pgmigrations.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Save inserts an upload record.
func (s *PGStore) Save(ctx context.Context, r uploads.Record) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO uploads (id, owner, repo_name, url, private, files_collected, files_published, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.Owner, r.RepoName, r.URL, r.Private, r.FilesCollected, r.FilesPublished, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

// List returns up to limit records, newest first.
func (s *PGStore) List(ctx context.Context, limit int) ([]uploads.Record, error) {
	query := `SELECT id::text, owner, repo_name, url, private, files_collected, files_published, created_at
		 FROM uploads ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (uploads.Record, error) {
		var r uploads.Record
		err := row.Scan(&r.ID, &r.Owner, &r.RepoName, &r.URL, &r.Private,
			&r.FilesCollected, &r.FilesPublished, &r.CreatedAt)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan uploads: %w", err)
	}
	return out, nil
}
