// Package sqlite implements the catalog interface using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ptrevino/mediashelf"
	"github.com/ptrevino/mediashelf/catalog/internal"
)

type Repo struct {
	db        *sql.DB
	tableName string
}

func NewRepo(db *sql.DB, tables mediashelf.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{db: db, tableName: tables.Entries}, nil
}

func (r *Repo) Get(ctx context.Context, key string) (mediashelf.Entry, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, key, namespace, size_bytes, created_at, updated_at
		FROM %s
		WHERE key = ?`, r.tableName)

	var e mediashelf.Entry
	var idStr string
	var createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&idStr, &e.Key, &e.Namespace, &e.SizeBytes, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mediashelf.Entry{}, mediashelf.ErrNotFound
		}
		return mediashelf.Entry{}, fmt.Errorf("get: %w", err)
	}

	e.ID, err = uuid.Parse(idStr)
	if err != nil {
		return mediashelf.Entry{}, fmt.Errorf("get: parse uuid: %w", err)
	}

	e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return mediashelf.Entry{}, fmt.Errorf("get: parse created_at: %w", err)
	}

	e.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return mediashelf.Entry{}, fmt.Errorf("get: parse updated_at: %w", err)
	}

	return e, nil
}

func (r *Repo) Upsert(ctx context.Context, in mediashelf.EntryInput) (mediashelf.Entry, bool, error) {
	// Check if entry exists first to determine if this is an insert or update
	var existingID string
	checkQuery := fmt.Sprintf(`SELECT id FROM %s WHERE key = ?`, r.tableName) //nolint:gosec // table name is validated
	err := r.db.QueryRowContext(ctx, checkQuery, in.Key).Scan(&existingID)
	isInsert := errors.Is(err, sql.ErrNoRows)
	if err != nil && !isInsert {
		return mediashelf.Entry{}, false, fmt.Errorf("upsert: check existing: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	var e mediashelf.Entry

	if isInsert {
		newID := uuid.New()
		insertQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`INSERT INTO %s (id, key, namespace, size_bytes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`, r.tableName)

		_, err = r.db.ExecContext(ctx, insertQuery,
			newID.String(), in.Key, in.Namespace, in.SizeBytes, now, now,
		)
		if err != nil {
			return mediashelf.Entry{}, false, fmt.Errorf("upsert: insert: %w", err)
		}

		e.ID = newID
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, now)
	} else {
		updateQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`UPDATE %s
			SET namespace = ?, size_bytes = ?, updated_at = ?
			WHERE key = ?`, r.tableName)

		_, err = r.db.ExecContext(ctx, updateQuery,
			in.Namespace, in.SizeBytes, now, in.Key,
		)
		if err != nil {
			return mediashelf.Entry{}, false, fmt.Errorf("upsert: update: %w", err)
		}

		e.ID, _ = uuid.Parse(existingID)

		// Get the original created_at
		var createdAt string
		createdQuery := fmt.Sprintf(`SELECT created_at FROM %s WHERE key = ?`, r.tableName) //nolint:gosec // table name is validated
		if err := r.db.QueryRowContext(ctx, createdQuery, in.Key).Scan(&createdAt); err != nil {
			return mediashelf.Entry{}, false, fmt.Errorf("upsert: get created_at: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	}

	e.Key = in.Key
	e.Namespace = in.Namespace
	e.SizeBytes = in.SizeBytes
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, now)

	return e, isInsert, nil
}

func (r *Repo) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`DELETE FROM %s WHERE key = ?`, r.tableName)

	result, err := r.db.ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete: rows affected: %w", err)
	}

	if rowsAffected == 0 {
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
			WHERE key LIKE ? || '%%' ESCAPE '\'
			ORDER BY created_at, key
			LIMIT ?
		`, r.tableName)
		args = []any{escapedPrefix, q.Limit + 1}
	} else {
		query = fmt.Sprintf(`
			SELECT id, key, namespace, size_bytes, created_at, updated_at
			FROM %s
			WHERE key LIKE ? || '%%' ESCAPE '\' AND (created_at, key) > (?, ?)
			ORDER BY created_at, key
			LIMIT ?
		`, r.tableName)
		args = []any{escapedPrefix, cursor.CreatedAt.Format(time.RFC3339Nano), cursor.Key, q.Limit + 1}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return mediashelf.ListResult{}, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]mediashelf.Entry, 0, q.Limit)
	for rows.Next() {
		var e mediashelf.Entry
		var idStr, createdAt, updatedAt string

		if scanErr := rows.Scan(&idStr, &e.Key, &e.Namespace, &e.SizeBytes, &createdAt, &updatedAt); scanErr != nil {
			return mediashelf.ListResult{}, fmt.Errorf("list: scan: %w", scanErr)
		}

		var parseErr error
		e.ID, parseErr = uuid.Parse(idStr)
		if parseErr != nil {
			return mediashelf.ListResult{}, fmt.Errorf("list: parse uuid: %w", parseErr)
		}

		e.CreatedAt, parseErr = time.Parse(time.RFC3339Nano, createdAt)
		if parseErr != nil {
			return mediashelf.ListResult{}, fmt.Errorf("list: parse created_at: %w", parseErr)
		}

		e.UpdatedAt, parseErr = time.Parse(time.RFC3339Nano, updatedAt)
		if parseErr != nil {
			return mediashelf.ListResult{}, fmt.Errorf("list: parse updated_at: %w", parseErr)
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

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT COUNT(*) FROM %s WHERE key LIKE ? || '%%' ESCAPE '\'`, r.tableName)

	var count int64
	if err := r.db.QueryRowContext(ctx, query, escapedPrefix).Scan(&count); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}

	return count, nil
}
