package mediashelf

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Entry is a catalog record for one object in the backing store. The
// catalog is reconciled against the store by the scan command; it never
// sits on the streaming path.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Key       string    `json:"key"`
	Namespace string    `json:"namespace"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntryInput carries the fields a scan derives from the store listing.
type EntryInput struct {
	Key       string
	Namespace string
	SizeBytes int64
}

// ListQuery selects a page of catalog entries.
type ListQuery struct {
	// KeyPrefix filters entries to keys starting with the prefix.
	// Empty matches everything.
	KeyPrefix string
	// Limit is the page size.
	Limit int
	// Cursor resumes a previous listing. Empty starts from the beginning.
	Cursor string
}

// ListResult is one page of catalog entries.
type ListResult struct {
	Items []Entry `json:"items"`
	// NextCursor is empty when this is the last page.
	NextCursor string `json:"next_cursor,omitempty"`
}

// Catalog records which objects the library knows about.
type Catalog interface {
	// Get returns the entry for a key.
	//
	// Parameters:
	//   - ctx: context for the query
	//   - key: full storage key including the namespace prefix
	//
	// Returns the entry, or ErrNotFound if the key isn't cataloged.
	Get(ctx context.Context, key string) (Entry, error)

	// Upsert inserts or refreshes the entry for in.Key.
	//
	// Returns the stored entry and whether it was newly inserted.
	Upsert(ctx context.Context, in EntryInput) (Entry, bool, error)

	// Delete removes the entry for a key.
	//
	// Returns ErrNotFound if the key isn't cataloged.
	Delete(ctx context.Context, key string) error

	// List returns a page of entries ordered by creation time then key.
	List(ctx context.Context, q ListQuery) (ListResult, error)

	// Count returns how many entries have keys under prefix.
	Count(ctx context.Context, prefix string) (int64, error)
}

// Tables holds configurable table names for the catalog backends.
type Tables struct {
	Entries string `mapstructure:"entries"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Entries == "" {
		return errors.New("validate tables: entries table name cannot be empty")
	}

	if !IsValidTableName(t.Entries) {
		return fmt.Errorf("validate tables: invalid entries table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Entries)
	}

	return nil
}
