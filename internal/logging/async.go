package logging

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// AsyncHandler wraps an slog.Handler with a buffered channel and worker pool.
type AsyncHandler struct {
	inner   slog.Handler
	ch      chan slog.Record
	wg      *sync.WaitGroup
	dropped *atomic.Int64

	mu     *sync.RWMutex
	closed *bool

	// ctx is passed to the inner handler and cancelled when Close gives up
	// waiting, which aborts in-flight deliveries.
	ctx          context.Context
	cancel       context.CancelFunc
	closeTimeout time.Duration
}

// NewAsyncHandler creates an AsyncHandler with the given channel capacity and worker count.
// Close waits at most remoteTimeout for the queue to drain.
func NewAsyncHandler(inner slog.Handler, chanSize, workers int) *AsyncHandler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &AsyncHandler{
		inner:        inner,
		ch:           make(chan slog.Record, chanSize),
		wg:           &sync.WaitGroup{},
		dropped:      &atomic.Int64{},
		mu:           &sync.RWMutex{},
		closed:       new(bool),
		ctx:          ctx,
		cancel:       cancel,
		closeTimeout: remoteTimeout,
	}
	for range workers {
		h.wg.Add(1)
		go h.drain()
	}
	return h
}

func (h *AsyncHandler) drain() {
	defer h.wg.Done()
	for rec := range h.ch {
		if h.ctx.Err() != nil {
			h.dropped.Add(1)
			continue
		}
		_ = h.inner.Handle(h.ctx, rec)
	}
}

// Enabled delegates to the inner handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues the record. Drops if the channel is full or closed.
func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if *h.closed {
		h.dropped.Add(1)
		return nil
	}
	select {
	case h.ch <- rec.Clone():
	default:
		h.dropped.Add(1)
	}
	return nil
}

// WithAttrs returns a handler sharing the same channel.
//
// Records queued through it are still handled by the root inner handler, so
// the attrs are attached to each record on the way in.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &attrAsync{AsyncHandler: h, attrs: attrs}
}

// WithGroup is not supported by the remote sink; the group name is dropped.
func (h *AsyncHandler) WithGroup(string) slog.Handler {
	return h
}

// DroppedCount returns the number of dropped records.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.dropped.Load()
}

// Close stops accepting records and waits for the workers to drain. After
// closeTimeout the in-flight delivery is cancelled and the records still
// queued are dropped, so a slow sink cannot hold up exit.
func (h *AsyncHandler) Close() error {
	h.mu.Lock()
	if *h.closed {
		h.mu.Unlock()
		return nil
	}
	*h.closed = true
	close(h.ch)
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(h.closeTimeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		h.cancel()
		<-done
	}
	h.cancel()
	return nil
}

type attrAsync struct {
	*AsyncHandler
	attrs []slog.Attr
}

func (a *attrAsync) Handle(ctx context.Context, rec slog.Record) error {
	rec = rec.Clone()
	rec.AddAttrs(a.attrs...)
	return a.AsyncHandler.Handle(ctx, rec)
}

func (a *attrAsync) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr(nil), a.attrs...), attrs...)
	return &attrAsync{AsyncHandler: a.AsyncHandler, attrs: merged}
}

func (a *attrAsync) WithGroup(string) slog.Handler { return a }
