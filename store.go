package mediashelf

import (
	"context"
	"io"
	"time"
)

// ObjectMeta describes an object in the backing store as reported by a
// metadata probe. The gateway obtains it once per request and treats it as
// immutable for that request's lifetime.
type ObjectMeta struct {
	// Size is the object size in bytes.
	Size int64
	// ContentType is the MIME type recorded by the store, or empty when
	// the store reports none.
	ContentType string
}

// ObjectStore defines the interface to the backing object store holding
// media binaries. Implementations exist for S3-compatible stores (s3
// package) and a sandboxed local directory (filesystem package).
//
// All methods accept a context for cancellation and timeout control.
// Implementations must translate their backend's missing-object error to
// ErrNotFound and must respect context cancellation; the gateway relies on
// cancellation to abort in-flight reads when a client disconnects or a
// transfer stalls.
type ObjectStore interface {
	// Head probes object metadata without fetching content.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - key: The storage key to probe
	//
	// Returns:
	//   - ObjectMeta: Size and content type as known to the store
	//   - error: ErrNotFound if the object doesn't exist, or other store errors
	//
	// Head and a later Open are separate upstream calls: an object
	// replaced between them can make the probed size disagree with the
	// fetched bytes. This read-skew is documented, not synchronized away.
	Head(ctx context.Context, key string) (ObjectMeta, error)

	// Open returns a reader over the object's content. A non-nil rng
	// restricts the reader to that inclusive byte interval.
	//
	// Parameters:
	//   - ctx: Context governing the handle's whole lifetime
	//   - key: The storage key to fetch
	//   - rng: Optional byte interval; nil fetches the full object
	//
	// Returns:
	//   - io.ReadCloser: Streaming reader over the (ranged) content
	//   - error: ErrNotFound if the object doesn't exist, or other store errors
	//
	// Implementations must complete handle acquisition (the initial
	// upstream round-trip) before returning, and the returned reader's
	// Read calls must observe cancellation of ctx. The caller is
	// responsible for closing the reader.
	Open(ctx context.Context, key string, rng *ByteRange) (io.ReadCloser, error)

	// Exists reports whether an object is present in the store.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - key: The storage key to check
	//
	// Returns:
	//   - bool: true if the object exists
	//   - error: Any store error other than the object being absent
	Exists(ctx context.Context, key string) (bool, error)

	// PresignUpload mints a time-limited URL a client can PUT object bytes
	// to directly, bypassing the gateway.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - key: The storage key the upload will create
	//   - contentType: MIME type the client must send, may be empty
	//   - ttl: How long the URL stays valid
	//
	// Returns:
	//   - string: The presigned URL
	//   - error: ErrPresignNotSupported if the backend cannot mint URLs
	PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)

	// PresignDownload mints a time-limited URL a client can GET the object
	// from directly, bypassing the gateway.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - key: The storage key to read
	//   - ttl: How long the URL stays valid
	//
	// Returns:
	//   - string: The presigned URL
	//   - error: ErrPresignNotSupported if the backend cannot mint URLs
	PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Walk visits every object under the given key prefix in unspecified
	// order, calling fn with each key and size. A non-nil error from fn
	// stops the walk and is returned. Used by reconciliation tooling, not
	// by the request path.
	Walk(ctx context.Context, prefix string, fn func(key string, size int64) error) error

	// Delete removes an object from the store. Returns ErrNotFound if the
	// object doesn't exist.
	Delete(ctx context.Context, key string) error
}
