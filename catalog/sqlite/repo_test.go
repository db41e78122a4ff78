package sqlite_test

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptrevino/mediashelf"
	"github.com/ptrevino/mediashelf/catalog/sqlite"

	_ "modernc.org/sqlite"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestRepo creates a repo with a unique table name for test isolation
func setupTestRepo(t *testing.T) *sqlite.Repo {
	t.Helper()

	ctx := context.Background()

	tableName := fmt.Sprintf("entries_%s", getRandomString(t))
	tables := mediashelf.Tables{Entries: tableName}

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err, "failed to open")
	// One connection keeps every query on the same in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	err = sqlite.Migrate(ctx, db, tables)
	require.NoError(t, err, "failed to migrate")

	err = sqlite.ValidateSchema(ctx, db, tables)
	require.NoError(t, err, "failed to validate schema")

	repo, err := sqlite.NewRepo(db, tables)
	require.NoError(t, err, "failed to create repo")

	return repo
}

func TestNewRepo_InvalidTableName(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = sqlite.NewRepo(db, mediashelf.Tables{Entries: "Bad-Name"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid entries table name")
}

func TestRepo_Upsert_Insert(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	entry, inserted, err := repo.Upsert(ctx, mediashelf.EntryInput{
		Key:       "book/novel.epub",
		Namespace: "book",
		SizeBytes: 1024,
	})
	require.NoError(t, err)

	assert.True(t, inserted, "first upsert should insert")
	assert.NotEqual(t, uuid.Nil, entry.ID, "id should be set")
	assert.Equal(t, "book/novel.epub", entry.Key)
	assert.Equal(t, "book", entry.Namespace)
	assert.Equal(t, int64(1024), entry.SizeBytes)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.False(t, entry.UpdatedAt.IsZero())
}

func TestRepo_Upsert_Update(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	first, inserted, err := repo.Upsert(ctx, mediashelf.EntryInput{
		Key:       "audio/track.mp3",
		Namespace: "audio",
		SizeBytes: 100,
	})
	require.NoError(t, err)
	require.True(t, inserted)

	second, inserted, err := repo.Upsert(ctx, mediashelf.EntryInput{
		Key:       "audio/track.mp3",
		Namespace: "audio",
		SizeBytes: 250,
	})
	require.NoError(t, err)

	assert.False(t, inserted, "second upsert should update")
	assert.Equal(t, first.ID, second.ID, "id should be stable across upserts")
	assert.Equal(t, int64(250), second.SizeBytes)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt), "created_at should be preserved")
}

func TestRepo_Get_Success(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	want, _, err := repo.Upsert(ctx, mediashelf.EntryInput{
		Key:       "image/pic.png",
		Namespace: "image",
		SizeBytes: 42,
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "image/pic.png")
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Key, got.Key)
	assert.Equal(t, want.Namespace, got.Namespace)
	assert.Equal(t, want.SizeBytes, got.SizeBytes)
}

func TestRepo_Get_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Get(context.Background(), "book/missing.epub")
	require.ErrorIs(t, err, mediashelf.ErrNotFound)
}

func TestRepo_Delete(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, _, err := repo.Upsert(ctx, mediashelf.EntryInput{
		Key:       "video/abc/clip.mp4",
		Namespace: "video",
		SizeBytes: 9000,
	})
	require.NoError(t, err)

	err = repo.Delete(ctx, "video/abc/clip.mp4")
	require.NoError(t, err)

	_, err = repo.Get(ctx, "video/abc/clip.mp4")
	require.ErrorIs(t, err, mediashelf.ErrNotFound)

	err = repo.Delete(ctx, "video/abc/clip.mp4")
	require.ErrorIs(t, err, mediashelf.ErrNotFound)
}

func TestRepo_List_Pagination(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	keys := []string{"book/a.epub", "book/b.epub", "book/c.epub", "book/d.epub", "book/e.epub"}
	for _, key := range keys {
		_, _, err := repo.Upsert(ctx, mediashelf.EntryInput{Key: key, Namespace: "book", SizeBytes: 1})
		require.NoError(t, err)
	}

	var collected []string
	cursor := ""
	pages := 0

	for {
		result, err := repo.List(ctx, mediashelf.ListQuery{Limit: 2, Cursor: cursor})
		require.NoError(t, err)

		for _, item := range result.Items {
			collected = append(collected, item.Key)
		}

		pages++
		require.LessOrEqual(t, pages, 5, "pagination should terminate")

		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	assert.Equal(t, 3, pages)
	assert.ElementsMatch(t, keys, collected)
}

func TestRepo_List_PrefixFilter(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	seed := map[string]string{
		"book/file_a.epub": "book",
		"book/fileXa.epub": "book",
		"audio/track.mp3":  "audio",
	}
	for key, ns := range seed {
		_, _, err := repo.Upsert(ctx, mediashelf.EntryInput{Key: key, Namespace: ns, SizeBytes: 1})
		require.NoError(t, err)
	}

	result, err := repo.List(ctx, mediashelf.ListQuery{KeyPrefix: "book/", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)

	// Underscore in the prefix must match literally, not as a wildcard.
	result, err = repo.List(ctx, mediashelf.ListQuery{KeyPrefix: "book/file_", Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "book/file_a.epub", result.Items[0].Key)
}

func TestRepo_List_InvalidCursor(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.List(context.Background(), mediashelf.ListQuery{Limit: 10, Cursor: "not-a-cursor!!!"})
	require.Error(t, err)
}

func TestRepo_Count(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for _, key := range []string{"book/a.epub", "book/b.epub", "image/c.png"} {
		ns, _ := mediashelf.KeyNamespace(key)
		_, _, err := repo.Upsert(ctx, mediashelf.EntryInput{Key: key, Namespace: string(ns), SizeBytes: 1})
		require.NoError(t, err)
	}

	total, err := repo.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	books, err := repo.Count(ctx, "book/")
	require.NoError(t, err)
	assert.Equal(t, int64(2), books)
}
