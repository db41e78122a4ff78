// Package mediashelf provides the core types for a personal media library's
// streaming gateway: namespace-scoped storage keys, HTTP byte-range
// resolution, content-type fallback, and the object store contract.
//
// Mediashelf serves book, audio, video, and image binaries out of a backing
// object store to browser clients without exposing the store directly. The
// gateway proxies bytes (with Range support for seeking) or hands out
// presigned URLs when the store is independently reachable.
//
// # Key Components
//
//   - Namespace: Media category with key prefix and cache policy
//   - ValidKey: Pure storage-key validation, run before any store access
//   - ParseRange: Range header resolution against a known object size
//   - ObjectStore: Interface to the backing store (S3-compatible, filesystem)
//   - ObjectMeta / ByteRange: Per-request probe result and byte interval
//
// # Validation Before I/O
//
// Storage keys are validated as pure strings before any upstream call:
//
//	if !mediashelf.ValidKey(key, mediashelf.NamespaceVideo) {
//	    // answer 400, the store is never contacted
//	}
//
// # Range Resolution
//
//	rng, err := mediashelf.ParseRange(r.Header.Get("Range"), meta.Size)
//	switch {
//	case errors.Is(err, mediashelf.ErrRangeNotSatisfiable): // 416
//	case errors.Is(err, mediashelf.ErrMalformedRange):      // degrade to 200
//	}
//
// See the http package for the streaming gateway and REST API, the s3 and
// filesystem packages for store implementations, and the catalog package
// for the library catalog used by reconciliation tooling.
package mediashelf
