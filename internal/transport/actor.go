package transport

import (
	"context"
	"errors"
	"log/slog"
)

// ErrSessionQueueFull is returned when a session has too many pending events.
var ErrSessionQueueFull = errors.New("session queue full")

type task struct {
	name string
	fn   func(ctx context.Context) error
}

// actor applies a session's inbound events one at a time, in arrival order.
type actor struct {
	sessionID string
	queue     chan task
	logger    *slog.Logger
}

func newActor(sessionID string, size int, logger *slog.Logger) *actor {
	if size <= 0 {
		size = 32
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &actor{sessionID: sessionID, queue: make(chan task, size), logger: logger}
}

// submit queues fn without blocking.
func (a *actor) submit(name string, fn func(ctx context.Context) error) error {
	select {
	case a.queue <- task{name: name, fn: fn}:
		return nil
	default:
		return ErrSessionQueueFull
	}
}

// run drains the queue until ctx ends. onFailure is called for a task that
// panicked or returned an error while the session was live; the actor keeps
// running.
func (a *actor) run(ctx context.Context, onFailure func(name string)) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-a.queue:
			a.apply(ctx, t, onFailure)
		}
	}
}

func (a *actor) apply(ctx context.Context, t task, onFailure func(name string)) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Event handler panicked", "session_id", a.sessionID, "event", t.name, "panic", r)
			if onFailure != nil {
				onFailure(t.name)
			}
		}
	}()
	if err := t.fn(ctx); err != nil && ctx.Err() == nil {
		a.logger.Warn("Event handler failed", "session_id", a.sessionID, "event", t.name, "error", err)
		if onFailure != nil {
			onFailure(t.name)
		}
	}
}
