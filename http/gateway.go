package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ptrevino/mediashelf"
)

// streamState tracks where a session is in its lifecycle. The first five
// states are transient; the last three are terminal and become the
// outcome label on the session metrics.
type streamState int

const (
	stateValidating streamState = iota
	stateProbingMetadata
	stateParsingRange
	stateFetching
	stateStreaming
	stateCompleted
	stateAborted
	stateFailed
)

func (s streamState) String() string {
	switch s {
	case stateValidating:
		return "validating"
	case stateProbingMetadata:
		return "probing_metadata"
	case stateParsingRange:
		return "parsing_range"
	case stateFetching:
		return "fetching"
	case stateStreaming:
		return "streaming"
	case stateCompleted:
		return "completed"
	case stateAborted:
		return "aborted"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// probeMetadata wraps the HEAD probe in its own deadline. Expiry of that
// deadline becomes ErrUpstreamTimeout; cancellation of the parent context
// passes through untouched so the caller can tell the two apart.
func probeMetadata(ctx context.Context, store mediashelf.ObjectStore, key string, timeout time.Duration) (mediashelf.ObjectMeta, error) {
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	meta, err := store.Head(pctx, key)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return mediashelf.ObjectMeta{}, mediashelf.ErrUpstreamTimeout
		}
		return mediashelf.ObjectMeta{}, err
	}

	return meta, nil
}

// openObject bounds data handle acquisition. The deadline fires into the
// shared cancel so a hung acquisition tears the whole session down; once
// Open returns the timer is stopped and the transfer itself is governed
// only by the watchdog.
func openObject(ctx context.Context, cancel context.CancelCauseFunc, store mediashelf.ObjectStore, key string, rng *mediashelf.ByteRange, timeout time.Duration) (io.ReadCloser, error) {
	timer := time.AfterFunc(timeout, func() { cancel(errFetchTimeout) })
	defer timer.Stop()

	rc, err := store.Open(ctx, key, rng)
	if err != nil {
		if errors.Is(context.Cause(ctx), errFetchTimeout) {
			return nil, mediashelf.ErrUpstreamTimeout
		}
		return nil, err
	}

	return rc, nil
}

// streamSession serves one media request. Sessions are created per
// request and never shared.
type streamSession struct {
	h   *Handler
	ns  mediashelf.Namespace
	key string

	state     streamState
	bytesSent int64
}

func (h *Handler) handleMedia(ns mediashelf.Namespace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.store == nil {
			WriteError(w, http.StatusServiceUnavailable, "store_unavailable", "No object store configured")
			return
		}

		key, ok := strings.CutPrefix(r.URL.Path, "/media/")
		if !ok {
			WriteError(w, http.StatusBadRequest, "invalid_key", "Invalid storage key")
			return
		}

		s := &streamSession{h: h, ns: ns, key: key}
		s.serve(w, r)
	}
}

func (s *streamSession) serve(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := slog.With(
		"request_id", requestIDFrom(r.Context()),
		"namespace", string(s.ns),
		"key", s.key,
	)

	defer func() {
		s.h.metrics.streamOutcomes.WithLabelValues(string(s.ns), s.state.String()).Inc()
		s.h.metrics.streamDuration.WithLabelValues(string(s.ns)).Observe(time.Since(start).Seconds())
	}()

	s.state = stateValidating
	if !mediashelf.ValidKey(s.key, s.ns) {
		s.state = stateFailed
		WriteError(w, http.StatusBadRequest, "invalid_key", "Invalid storage key")
		return
	}

	// One cancellation signal shared by the idle watchdog, the fetch
	// deadline, and the client connection. Whoever fires first wins;
	// everyone else finds the context already dead.
	ctx, cancel := context.WithCancelCause(r.Context())
	defer cancel(nil)

	s.state = stateProbingMetadata
	meta, err := probeMetadata(ctx, s.h.store, s.key, s.h.cfg.MetadataTimeout)
	if err != nil {
		s.writeUpstreamError(w, log, "probe", ctx, err)
		return
	}

	s.state = stateParsingRange
	rangeHeader := r.Header.Get("Range")
	rng, err := mediashelf.ParseRange(rangeHeader, meta.Size)
	partial := rangeHeader != "" && err == nil
	switch {
	case errors.Is(err, mediashelf.ErrRangeNotSatisfiable):
		s.state = stateFailed
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", meta.Size))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return
	case errors.Is(err, mediashelf.ErrMalformedRange):
		// Malformed ranges degrade to the full object.
		rng = mediashelf.FullRange(meta.Size)
		partial = false
	case err != nil:
		s.state = stateFailed
		HandleError(w, err)
		return
	}

	var openRange *mediashelf.ByteRange
	status := http.StatusOK
	length := meta.Size
	if partial {
		openRange = &rng
		status = http.StatusPartialContent
		length = rng.Length()
	}

	s.state = stateFetching
	rc, err := openObject(ctx, cancel, s.h.store, s.key, openRange, s.h.cfg.FetchTimeout)
	if err != nil {
		s.writeUpstreamError(w, log, "fetch", ctx, err)
		return
	}
	closeReader := func() { _ = rc.Close() }

	s.writeHeaders(w, meta, rng, partial, length)
	w.WriteHeader(status)

	s.state = stateStreaming
	s.h.metrics.streamsActive.Inc()
	defer s.h.metrics.streamsActive.Dec()

	wd := newWatchdog(s.h.cfg.WatchdogInterval, s.h.cfg.IdleTimeout, cancel)
	defer wd.Stop()

	rctrl := http.NewResponseController(w)
	buf := make([]byte, streamChunkSize)

	for {
		if ctx.Err() != nil {
			s.finishInterrupted(log, ctx, nil)
			closeReader()
			return
		}

		n, rerr := rc.Read(buf)
		if n > 0 {
			wd.Touch()
			// A client that stops reading stalls the write; the
			// deadline turns that stall into a write error on the
			// same idle budget the watchdog enforces upstream.
			_ = rctrl.SetWriteDeadline(time.Now().Add(s.h.cfg.IdleTimeout))
			if _, werr := w.Write(buf[:n]); werr != nil {
				s.state = stateAborted
				log.Info("stream aborted",
					"reason", "client write failed",
					"bytes_sent", s.bytesSent,
					"error", werr,
				)
				closeReader()
				return
			}
			s.bytesSent += int64(n)
			s.h.metrics.streamBytes.WithLabelValues(string(s.ns)).Add(float64(n))
			_ = rctrl.Flush()
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			s.finishInterrupted(log, ctx, rerr)
			closeReader()
			return
		}
	}

	closeReader()

	if s.bytesSent != length {
		// HEAD and GET may observe different object generations; the
		// mismatch surfaces here as a short body.
		s.state = stateFailed
		log.Warn("stream truncated by upstream",
			"bytes_sent", s.bytesSent,
			"expected", length,
		)
		return
	}

	s.state = stateCompleted
	log.Info("stream completed", "bytes_sent", s.bytesSent, "status", status)
}

func (s *streamSession) writeHeaders(w http.ResponseWriter, meta mediashelf.ObjectMeta, rng mediashelf.ByteRange, partial bool, length int64) {
	w.Header().Set("Content-Type", mediashelf.ContentTypeFor(meta.ContentType, s.key))
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Cache-Control", s.ns.CacheControl())
	w.Header().Set("Content-Length", strconv.FormatInt(length, 10))

	if s.ns == mediashelf.NamespaceVideo {
		if name, ok := mediashelf.VideoFilename(s.key); ok {
			disposition := mime.FormatMediaType("inline", map[string]string{"filename": name})
			w.Header().Set("Content-Disposition", disposition)
		}
	}

	if partial {
		w.Header().Set("Content-Range", rng.ContentRange(meta.Size))
	}
}

// writeUpstreamError maps probe and fetch failures onto the response.
// Nothing has been written yet when this runs, so a status line is still
// possible.
func (s *streamSession) writeUpstreamError(w http.ResponseWriter, log *slog.Logger, stage string, ctx context.Context, err error) {
	switch {
	case errors.Is(err, mediashelf.ErrUpstreamTimeout):
		s.state = stateFailed
		log.Warn("upstream timeout", "stage", stage)
		WriteError(w, http.StatusGatewayTimeout, "upstream_timeout", "Object store did not respond in time")
	case errors.Is(err, mediashelf.ErrNotFound):
		s.state = stateFailed
		log.Info("object not found", "stage", stage)
		WriteError(w, http.StatusNotFound, "not_found", "Object not found")
	case ctx.Err() != nil:
		// The client went away while we were waiting on the store.
		s.state = stateAborted
	default:
		s.state = stateFailed
		log.Error("upstream request failed", "stage", stage, "error", err)
		WriteError(w, http.StatusNotFound, "not_found", "Object not found")
	}
}

// finishInterrupted classifies a stream that ended before the body was
// fully written. The response cannot be amended at this point; the
// truncated body itself signals the failure to the client.
func (s *streamSession) finishInterrupted(log *slog.Logger, ctx context.Context, rerr error) {
	switch cause := context.Cause(ctx); {
	case errors.Is(cause, errStreamIdle):
		s.state = stateFailed
		log.Warn("stream closed by watchdog",
			"reason", "idle timeout",
			"bytes_sent", s.bytesSent,
		)
	case errors.Is(cause, errFetchTimeout):
		s.state = stateFailed
		log.Warn("data handle acquired after deadline", "bytes_sent", s.bytesSent)
	case ctx.Err() != nil:
		s.state = stateAborted
		log.Info("stream aborted",
			"reason", "client disconnected",
			"bytes_sent", s.bytesSent,
		)
	default:
		s.state = stateFailed
		log.Error("stream interrupted", "error", rerr, "bytes_sent", s.bytesSent)
	}
}
