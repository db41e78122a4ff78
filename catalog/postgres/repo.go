// Package postgres implements the catalog interface using PostgreSQL
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ptrevino/mediashelf"
	"github.com/ptrevino/mediashelf/catalog/internal"
)

type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewRepo(pool *pgxpool.Pool, tables mediashelf.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, tableName: tables.Entries}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repo) Get(ctx context.Context, key string) (mediashelf.Entry, error) {
	query := fmt.Sprintf(`
		SELECT id, key, namespace, size_bytes, created_at, updated_at
		FROM %s
		WHERE key = $1
	`, r.tableName)

	var e mediashelf.Entry
	err := r.pool.QueryRow(ctx, query, key).Scan(
		&e.ID, &e.Key, &e.Namespace, &e.SizeBytes, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mediashelf.Entry{}, mediashelf.ErrNotFound
		}
		return mediashelf.Entry{}, fmt.Errorf("get: %w", err)
	}

	return e, nil
}

func (r *Repo) Upsert(ctx context.Context, in mediashelf.EntryInput) (mediashelf.Entry, bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, namespace, size_bytes)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET namespace = EXCLUDED.namespace,
			size_bytes = EXCLUDED.size_bytes,
			updated_at = NOW()
		RETURNING id, key, namespace, size_bytes, created_at, updated_at,
			(xmax = 0) AS inserted
	`, r.tableName)

	var e mediashelf.Entry
	var inserted bool

	err := r.pool.QueryRow(ctx, query, in.Key, in.Namespace, in.SizeBytes).Scan(
		&e.ID, &e.Key, &e.Namespace, &e.SizeBytes, &e.CreatedAt, &e.UpdatedAt, &inserted,
	)
	if err != nil {
		return mediashelf.Entry{}, false, fmt.Errorf("upsert: %w", err)
	}

	return e, inserted, nil
}

func (r *Repo) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE key = $1
	`, r.tableName)

	result, err := r.pool.Exec(ctx, query, key)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete: %w", mediashelf.ErrNotFound)
	}

	return nil
}

func (r *Repo) List(ctx context.Context, q mediashelf.ListQuery) (mediashelf.ListResult, error) {
	cursor, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return mediashelf.ListResult{}, fmt.Errorf("list: %w", err)
	}

	escapedPrefix := internal.EscapeLikePattern(q.KeyPrefix)

	var query string
	var args []any

	if q.Cursor == "" {
		query = fmt.Sprintf(`
			SELECT id, key, namespace, size_bytes, created_at, updated_at
			FROM %s
			WHERE key LIKE $1 || '%%'
			ORDER BY created_at, key
			LIMIT $2
		`, r.tableName)
		args = []any{escapedPrefix, q.Limit + 1}
	} else {
		query = fmt.Sprintf(`
			SELECT id, key, namespace, size_bytes, created_at, updated_at
			FROM %s
			WHERE key LIKE $1 || '%%' AND (created_at, key) > ($2, $3)
			ORDER BY created_at, key
			LIMIT $4
		`, r.tableName)
		args = []any{escapedPrefix, cursor.CreatedAt, cursor.Key, q.Limit + 1}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return mediashelf.ListResult{}, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	items := make([]mediashelf.Entry, 0, q.Limit)
	for rows.Next() {
		var e mediashelf.Entry
		if err := rows.Scan(&e.ID, &e.Key, &e.Namespace, &e.SizeBytes, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return mediashelf.ListResult{}, fmt.Errorf("list: scan: %w", err)
		}
		items = append(items, e)
	}

	if err := rows.Err(); err != nil {
		return mediashelf.ListResult{}, fmt.Errorf("list: rows: %w", err)
	}

	var nextCursor string
	if len(items) > q.Limit {
		// Cursor points to the last item of the current page
		lastItem := items[q.Limit-1]
		nextCursor = internal.EncodeCursor(lastItem.CreatedAt, lastItem.Key)
		items = items[:q.Limit]
	}

	return mediashelf.ListResult{Items: items, NextCursor: nextCursor}, nil
}

func (r *Repo) Count(ctx context.Context, prefix string) (int64, error) {
	escapedPrefix := internal.EscapeLikePattern(prefix)

	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s WHERE key LIKE $1 || '%%'
	`, r.tableName)

	var count int64
	if err := r.pool.QueryRow(ctx, query, escapedPrefix).Scan(&count); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}

	return count, nil
}
