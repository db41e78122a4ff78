package http

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// watchdog closes a stream whose client has stopped making progress.
// Touch records activity; a ticker goroutine compares the last activity
// timestamp against the idle threshold and cancels the shared stream
// context when it is exceeded. The cancellation races with client
// disconnects into the same context, so teardown stays single-path.
type watchdog struct {
	idleTimeout time.Duration
	cancel      context.CancelCauseFunc

	lastActivity atomic.Int64 // unix nanos

	stopOnce sync.Once
	done     chan struct{}
}

func newWatchdog(interval, idleTimeout time.Duration, cancel context.CancelCauseFunc) *watchdog {
	w := &watchdog{
		idleTimeout: idleTimeout,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	w.Touch()

	go w.run(interval)

	return w
}

func (w *watchdog) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			last := time.Unix(0, w.lastActivity.Load())
			if time.Since(last) > w.idleTimeout {
				w.cancel(errStreamIdle)
				return
			}
		case <-w.done:
			return
		}
	}
}

// Touch records stream activity, pushing the idle deadline out.
func (w *watchdog) Touch() {
	w.lastActivity.Store(time.Now().UnixNano())
}

// Stop reaps the watchdog goroutine. Safe to call more than once.
func (w *watchdog) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}
