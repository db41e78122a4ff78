// Package http provides the HTTP surface of the mediashelf streaming
// gateway.
//
// The gateway serves media objects from a backing object store over GET
// requests, relaying bytes in fixed-size chunks so no object is ever
// buffered whole. Every media request moves through the same sequence:
// key validation, a bounded metadata probe, Range header evaluation, a
// bounded data handle fetch, then the streaming copy loop.
//
// # Features
//
//   - Namespace-scoped media routes (/media/<namespace>/...) with key
//     validation before any store call
//   - Single-range requests (bytes=start-end) answered with 206 and
//     Content-Range; unsatisfiable ranges answered with 416; malformed
//     ranges degraded to a full 200 response
//   - Separate deadlines for the metadata probe and data handle
//     acquisition, surfaced as 504 when exceeded
//   - An idle watchdog that tears down streams moving no bytes
//   - Presign endpoints minting direct-to-store upload and download URLs
//   - Prometheus metrics and structured request logging
//   - JSON error responses
//   - Configurable CORS support
//
// # Usage
//
// Create a handler with a Config and an object store:
//
//	store, err := s3.NewStore(s3cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	handler, err := http.NewHandler(&http.Config{}, store)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	router := handler.Router()
//	http.ListenAndServe(":8080", router)
//
// A zero Config gets production defaults for every timeout. The server
// wrapping the router must not set its own WriteTimeout; long downloads
// are bounded by the idle watchdog instead of a fixed wall-clock limit.
//
// # Streaming lifecycle
//
// Each in-flight stream shares one cancellation across the idle
// watchdog, the fetch deadline, and the client connection. Whichever
// fires first cancels the stream's context; the copy loop reads the
// cause back to classify the outcome as completed, aborted, or failed.
package http
