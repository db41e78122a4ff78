package mediashelf

import "errors"

var (
	// ErrNotFound is returned when an object is not found in the backing store
	ErrNotFound = errors.New("not found")
	// ErrInvalidKey is returned when storage key validation fails
	ErrInvalidKey = errors.New("invalid storage key")
	// ErrMalformedRange is returned when a Range header cannot be parsed;
	// callers degrade to a full-object response
	ErrMalformedRange = errors.New("malformed range")
	// ErrRangeNotSatisfiable is returned when a parsed range starts at or
	// beyond the object size
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
	// ErrUpstreamTimeout is returned when a store call exceeds its deadline
	ErrUpstreamTimeout = errors.New("upstream timeout")
	// ErrStoreUnavailable is returned when no backing store is configured
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrPresignNotSupported is returned by stores that cannot mint presigned URLs
	ErrPresignNotSupported = errors.New("presigned urls not supported")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
)
