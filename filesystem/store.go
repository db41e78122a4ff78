// Package filesystem provides a local-directory object store backend for
// mediashelf. File access is sandboxed through os.Root so a key handling
// bug cannot escape the storage directory, and ranged reads are served with
// seek plus a limited reader.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"github.com/ptrevino/mediashelf"
)

// Store serves objects from a local directory. It implements the read side
// of the object store contract; objects are placed into the directory out
// of band (by the library manager, or seeded directly in tests), so there
// is no write path here.
type Store struct {
	root *os.Root
}

// NewStore creates a Store rooted at the given directory.
// The root provides sandboxed file operations preventing path traversal.
func NewStore(root *os.Root) *Store {
	return &Store{root: root}
}

// Head probes file metadata. The filesystem records no content type, so
// ObjectMeta.ContentType is always empty and callers fall back to
// extension-based resolution.
func (s *Store) Head(ctx context.Context, key string) (mediashelf.ObjectMeta, error) {
	if err := ctx.Err(); err != nil {
		return mediashelf.ObjectMeta{}, err
	}

	info, err := s.root.Stat(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return mediashelf.ObjectMeta{}, mediashelf.ErrNotFound
		}
		return mediashelf.ObjectMeta{}, fmt.Errorf("stat file: %w", err)
	}

	if info.IsDir() {
		return mediashelf.ObjectMeta{}, mediashelf.ErrNotFound
	}

	return mediashelf.ObjectMeta{Size: info.Size()}, nil
}

// Open opens a file for reading, restricted to rng when non-nil. The
// returned reader observes cancellation of ctx between chunks. Returns
// mediashelf.ErrNotFound if the file does not exist.
func (s *Store) Open(ctx context.Context, key string, rng *mediashelf.ByteRange) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, mediashelf.ErrNotFound
		}
		return nil, fmt.Errorf("open file: %w", err)
	}

	if rng == nil {
		return &objectReader{ctx: ctx, r: f, c: f}, nil
	}

	if _, err := f.Seek(rng.Start, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("seek to range start: %w", err)
	}

	return &objectReader{ctx: ctx, r: io.LimitReader(f, rng.Length()), c: f}, nil
}

// objectReader bounds reads to the requested interval and checks the
// context between chunks so a canceled stream stops promptly.
type objectReader struct {
	ctx context.Context
	r   io.Reader
	c   io.Closer
}

func (r *objectReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

func (r *objectReader) Close() error {
	return r.c.Close()
}

// Exists reports whether a regular file is present at key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := s.root.Stat(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat file: %w", err)
	}

	return !info.IsDir(), nil
}

// PresignUpload is not supported: a local directory is not independently
// reachable by clients.
func (s *Store) PresignUpload(_ context.Context, _, _ string, _ time.Duration) (string, error) {
	return "", mediashelf.ErrPresignNotSupported
}

// PresignDownload is not supported: a local directory is not independently
// reachable by clients.
func (s *Store) PresignDownload(_ context.Context, _ string, _ time.Duration) (string, error) {
	return "", mediashelf.ErrPresignNotSupported
}

// Walk recursively visits every file under prefix, calling fn with the
// slash-separated key and file size.
func (s *Store) Walk(ctx context.Context, prefix string, fn func(key string, size int64) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.walkDir(ctx, ".", prefix, fn); err != nil {
		return fmt.Errorf("walk storage: %w", err)
	}

	return nil
}

func (s *Store) walkDir(ctx context.Context, dir, prefix string, fn func(key string, size int64) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), dir)
	if err != nil {
		return err
	}

	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return err
		}

		// fs.FS paths are always slash separated, which matches key syntax.
		entryPath := path.Join(dir, entry.Name())

		if entry.IsDir() {
			if err := s.walkDir(ctx, entryPath, prefix, fn); err != nil {
				return err
			}
			continue
		}

		if prefix != "" && !strings.HasPrefix(entryPath, prefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		if err := fn(entryPath, info.Size()); err != nil {
			return err
		}
	}

	return nil
}

// Delete removes a file. Returns mediashelf.ErrNotFound if the file does
// not exist.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.root.Remove(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return mediashelf.ErrNotFound
		}
		return fmt.Errorf("could not delete file: %w", err)
	}
	return nil
}
