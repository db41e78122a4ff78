// Package s3 provides an ObjectStore backed by any S3-compatible service
// (MinIO, AWS S3, Garage) through the MinIO Go client.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ptrevino/mediashelf"
)

// Config holds the connection settings for an S3-compatible store.
type Config struct {
	// Endpoint is the store address as host:port, without scheme.
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	// PathStyle forces path-style bucket addressing, required by most
	// self-hosted stores.
	PathStyle bool `mapstructure:"path_style"`
	// MaxIdleConns and MaxConnsPerHost size the shared connection pool.
	// MaxConnsPerHost is the process-wide concurrency bound toward the
	// store; zero means unlimited.
	MaxIdleConns    int `mapstructure:"max_idle_conns"`
	MaxConnsPerHost int `mapstructure:"max_conns_per_host"`
}

// Store serves objects from an S3-compatible backing store.
type Store struct {
	client *minio.Client
	bucket string
}

// NewStore creates a Store for the configured bucket. It does not contact
// the store; call Ping to verify connectivity and bucket existence.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
	}

	lookup := minio.BucketLookupAuto
	if cfg.PathStyle {
		lookup = minio.BucketLookupPath
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		Transport:    transport,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// Ping verifies the store is reachable and the bucket exists.
func (s *Store) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !ok {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}

// Head probes object metadata with a single HEAD round-trip.
func (s *Store) Head(ctx context.Context, key string) (mediashelf.ObjectMeta, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return mediashelf.ObjectMeta{}, s.mapErr("stat object", err)
	}

	return mediashelf.ObjectMeta{Size: info.Size, ContentType: info.ContentType}, nil
}

// Open fetches the object content, restricted to rng when non-nil.
// GetObject is lazy, so Stat forces the first round-trip here: handle
// acquisition completes before Open returns, and later reads ride the
// already-open response governed by ctx.
func (s *Store) Open(ctx context.Context, key string, rng *mediashelf.ByteRange) (io.ReadCloser, error) {
	opts := minio.GetObjectOptions{}
	if rng != nil {
		if err := opts.SetRange(rng.Start, rng.End); err != nil {
			return nil, fmt.Errorf("set range: %w", err)
		}
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, opts)
	if err != nil {
		return nil, s.mapErr("get object", err)
	}

	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, s.mapErr("get object", err)
	}

	return obj, nil
}

// Exists reports whether an object is present in the bucket.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		mapped := s.mapErr("stat object", err)
		if errors.Is(mapped, mediashelf.ErrNotFound) {
			return false, nil
		}
		return false, mapped
	}
	return true, nil
}

// PresignUpload mints a URL for a direct PUT to the store. When a content
// type is given it is part of the signature, so the store rejects uploads
// sending a different one.
func (s *Store) PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	var (
		u   *url.URL
		err error
	)

	if contentType == "" {
		u, err = s.client.PresignedPutObject(ctx, s.bucket, key, ttl)
	} else {
		headers := http.Header{}
		headers.Set("Content-Type", contentType)
		u, err = s.client.PresignHeader(ctx, http.MethodPut, s.bucket, key, ttl, url.Values{}, headers)
	}
	if err != nil {
		return "", fmt.Errorf("presign upload: %w", err)
	}

	return u.String(), nil
}

// PresignDownload mints a URL for a direct GET from the store.
func (s *Store) PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}

	return u.String(), nil
}

// Walk lists every object under prefix, calling fn with key and size.
func (s *Store) Walk(ctx context.Context, prefix string, fn func(key string, size int64) error) error {
	// Cancel the listing goroutine if fn aborts the walk early.
	lctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range s.client.ListObjects(lctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return fmt.Errorf("list objects: %w", s.mapErr("list objects", obj.Err))
		}
		if err := fn(obj.Key, obj.Size); err != nil {
			return err
		}
	}

	return ctx.Err()
}

// Delete removes an object. S3 deletes are idempotent, so existence is
// checked first to honor the ErrNotFound contract.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		return s.mapErr("stat object", err)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return s.mapErr("remove object", err)
	}

	return nil
}

// mapErr translates client errors to the store contract: context errors
// pass through untouched so callers can classify timeouts, 404s become
// ErrNotFound, everything else is wrapped with the failing operation.
func (s *Store) mapErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if resp := minio.ToErrorResponse(err); resp.StatusCode == http.StatusNotFound {
		return mediashelf.ErrNotFound
	}

	return fmt.Errorf("%s: %w", op, err)
}
