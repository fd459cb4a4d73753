// Package bridge hands updates from synchronous HTTP handlers to a
// long-lived runtime.
//
// The runtime goroutine performs provider initialization and signals
// readiness. Submit then routes each update into a bounded per-key FIFO
// queue drained by a dedicated worker: updates for one chat are processed
// strictly in submission order, while distinct chats proceed in parallel.
// Submit blocks for at most the hand-off timeout; an update is either
// accepted into its chat's queue or refused with a retryable error. It is
// never accepted and then dropped, so a 200 answered to the transport
// always means the update will be processed.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Denis16-blip/store-checklist-bot/internal/metrics"
)

var (
	// ErrNotReady is returned by Submit before initialization has completed
	// or after the runtime has stopped. The caller should answer with a
	// retryable status; the inbound transport retries on its own.
	ErrNotReady = errors.New("bridge: runtime not ready")
	// ErrBusy is returned when the hand-off timed out because the chat's
	// queue stayed full. Retryable, same as ErrNotReady.
	ErrBusy = errors.New("bridge: hand-off timed out")
)

const (
	// defaultQueueSize bounds one chat's backlog. A chat that fills it gets
	// ErrBusy and the transport retries, instead of stalling other chats.
	defaultQueueSize     = 32
	defaultSubmitTimeout = 2 * time.Second
)

// Bridge owns the runtime goroutine, the per-chat workers and the hand-off
// into them.
type Bridge[T any] struct {
	// Init runs on the runtime goroutine before readiness is signalled.
	// Initialization failure keeps the bridge not ready and is retained for
	// diagnostics; it never crashes the process.
	Init func(ctx context.Context) error
	// Handle processes one update. Invocations sharing a key are sequential.
	Handle func(ctx context.Context, u T)
	// Key groups updates whose processing order must be preserved.
	Key func(u T) int64
	// QueueSize and SubmitTimeout override the defaults; tests shrink them.
	QueueSize     int
	SubmitTimeout time.Duration
	Log           zerolog.Logger

	mu      sync.Mutex
	running bool
	lastErr error
	workers map[int64]chan T
	runCtx  context.Context

	wg sync.WaitGroup

	ready atomic.Bool
	alive atomic.Bool
}

// Start spawns the runtime goroutine. It is idempotent: if the runtime is
// already live, Start is a no-op. After a failure it can be called again to
// retry.
func (b *Bridge[T]) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return
	}
	b.running = true
	b.runCtx = ctx
	b.workers = make(map[int64]chan T)
	go b.run(ctx)
}

// Ready reports whether the runtime accepts work.
func (b *Bridge[T]) Ready() bool { return b.ready.Load() }

// Alive reports whether the runtime goroutine is running.
func (b *Bridge[T]) Alive() bool { return b.alive.Load() }

// LastErr returns the most recent runtime error, or nil.
func (b *Bridge[T]) LastErr() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// Submit enqueues an update for processing. It is safe to call from any
// goroutine and blocks for at most the hand-off timeout. On ErrNotReady or
// ErrBusy the update was not accepted and the transport is expected to
// retry; nil means the update sits in its chat's queue and will be handled.
func (b *Bridge[T]) Submit(u T) error {
	if !b.ready.Load() {
		return ErrNotReady
	}
	w := b.workerFor(b.Key(u))
	if w == nil {
		return ErrNotReady
	}
	timeout := b.SubmitTimeout
	if timeout <= 0 {
		timeout = defaultSubmitTimeout
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case w <- u:
		return nil
	case <-t.C:
		return ErrBusy
	}
}

// workerFor returns the queue for key, spawning its worker on first use.
// Returns nil after the runtime has shut down.
func (b *Bridge[T]) workerFor(key int64) chan T {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.workers == nil {
		return nil
	}
	w, ok := b.workers[key]
	if !ok {
		size := b.QueueSize
		if size <= 0 {
			size = defaultQueueSize
		}
		w = make(chan T, size)
		b.workers[key] = w
		b.wg.Add(1)
		go b.worker(b.runCtx, w)
	}
	return w
}

func (b *Bridge[T]) setErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastErr = err
}

// run is the runtime goroutine: init, signal readiness, then wait for
// shutdown.
func (b *Bridge[T]) run(ctx context.Context) {
	b.alive.Store(true)
	defer func() {
		if r := recover(); r != nil {
			b.setErr(fmt.Errorf("runtime panic: %v", r))
			b.Log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("runtime crashed")
		}
		b.ready.Store(false)
		b.mu.Lock()
		// Workers are signalled through ctx; the queues are never closed, so
		// a Submit racing shutdown parks on a full orphaned queue and times
		// out instead of panicking.
		b.workers = nil
		b.mu.Unlock()
		b.wg.Wait()
		b.alive.Store(false)
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
	}()

	if b.Init != nil {
		if err := b.Init(ctx); err != nil {
			b.setErr(fmt.Errorf("runtime init: %w", err))
			b.Log.Error().Err(err).Msg("runtime initialization failed")
			return
		}
	}
	b.setErr(nil)
	b.ready.Store(true)
	b.Log.Info().Msg("runtime ready")

	<-ctx.Done()
}

func (b *Bridge[T]) worker(ctx context.Context, ch <-chan T) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-ch:
			b.handleOne(ctx, u)
		}
	}
}

// handleOne runs the handler with panic isolation: one malformed update
// must not take down the runtime.
func (b *Bridge[T]) handleOne(ctx context.Context, u T) {
	defer func() {
		if r := recover(); r != nil {
			metrics.HandlerPanics.Inc()
			b.Log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered panic in update handler")
		}
	}()
	b.Handle(ctx, u)
}
