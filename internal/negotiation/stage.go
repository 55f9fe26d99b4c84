package negotiation

import (
	"context"
	"time"
)

type outcome int

const (
	stageDone outcome = iota
	stageFailed
	stageAborted
)

type callResult[T any] struct {
	value T
	err   error
}

// callWithTimeout bounds fn by d even when fn ignores its context.
func callWithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	ch := make(chan callResult[T], 1)
	go func() {
		v, err := fn(ctx)
		ch <- callResult[T]{v, err}
	}()
	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// sleep waits d or until ctx ends. It reports whether ctx is still live.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// stage describes one staged exchange.
type stage[T any] struct {
	call     func(context.Context) (T, error)
	fallback func(error) T // nil: failures end the stage as stageFailed
	steps    func(T) []string
}

// runStage starts the agent call together with negotiation_start, waits out
// the lead-in, then paces the reported steps and closes with
// negotiation_complete. The session context ends the stage early.
func runStage[T any](ctx context.Context, x *exchange, st stage[T]) (T, outcome) {
	var zero T
	e := x.engine
	if !x.emit(ctx, EventNegotiationStart, StageStart{NegotiationID: x.negotiationID, ServiceType: x.service, Timestamp: e.opts.Now()}) {
		return zero, stageAborted
	}

	ch := make(chan callResult[T], 1)
	go func() {
		v, err := callWithTimeout(ctx, e.opts.AgentTimeout, st.call)
		ch <- callResult[T]{v, err}
	}()

	if !sleep(ctx, e.opts.Pacing.LeadIn) {
		return zero, stageAborted
	}
	var res callResult[T]
	select {
	case res = <-ch:
	case <-ctx.Done():
		return zero, stageAborted
	}

	value, result := res.value, stageDone
	if res.err != nil {
		if ctx.Err() != nil {
			return zero, stageAborted
		}
		e.logger.Warn("Agent call failed", "session_id", x.sessionID, "negotiation_id", x.negotiationID, "service_type", x.service, "error", res.err)
		if st.fallback == nil {
			result = stageFailed
		} else {
			value = st.fallback(res.err)
		}
	}

	var steps []string
	if result == stageDone {
		steps = st.steps(value)
	}
	for i, msg := range steps {
		if i > 0 && !sleep(ctx, e.opts.Pacing.Step) {
			return zero, stageAborted
		}
		if !x.emit(ctx, EventNegotiationUpdate, ProgressUpdate{NegotiationID: x.negotiationID, Step: i + 1, Message: msg, Timestamp: e.opts.Now()}) {
			return zero, stageAborted
		}
	}
	if !sleep(ctx, e.opts.Pacing.Settle) {
		return zero, stageAborted
	}
	if !x.emit(ctx, EventNegotiationComplete, StageComplete{ServiceID: x.negotiationID}) {
		return zero, stageAborted
	}
	return value, result
}

func stepsOr(steps, fallback []string) []string {
	if len(steps) == 0 {
		return fallback
	}
	return steps
}
