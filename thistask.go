package colib

import "context"

// Go has no per-OS-thread pointer that survives a goroutine's suspension
// points (and installing one would be unsafe, since a goroutine may be
// rescheduled to a different OS thread across any blocking call). The
// idiomatic substitute, used project-wide, is to carry the this_task
// accessors of spec §5's "Thread-local task context" note as values on
// the context.Context threaded through every task body, following the
// convention of context.WithValue keys.

type taskCtxKey struct{}

// taskCtx is installed into a task body's context.Context before it
// starts running and is what TaskID/TaskName/TaskStopToken/TaskLogger
// read back out.
type taskCtx struct {
	id      uint64
	name    string
	token   StopToken
	source  *StopSource
	logger  Logger
	reactor Reactor
}

func withTaskCtx(parent context.Context, tc *taskCtx) context.Context {
	return context.WithValue(parent, taskCtxKey{}, tc)
}

func taskCtxFrom(ctx context.Context) *taskCtx {
	tc, _ := ctx.Value(taskCtxKey{}).(*taskCtx)
	return tc
}

// TaskID returns the running task's stable numeric id, or 0 if ctx was
// not derived from a task body's context.
func TaskID(ctx context.Context) uint64 {
	if tc := taskCtxFrom(ctx); tc != nil {
		return tc.id
	}
	return 0
}

// TaskName returns the running task's human-readable name, or "" if
// unset or ctx is not a task context.
func TaskName(ctx context.Context) string {
	if tc := taskCtxFrom(ctx); tc != nil {
		return tc.name
	}
	return ""
}

// TaskStopToken returns the running task's cancellation token, the zero
// StopToken (never requested) if ctx is not a task context.
func TaskStopToken(ctx context.Context) StopToken {
	if tc := taskCtxFrom(ctx); tc != nil {
		return tc.token
	}
	return StopToken{}
}

// TaskLogger returns the structured logger bound to the running task
// (the scheduler's configured logger, by default), or DefaultLogger() if
// ctx is not a task context.
func TaskLogger(ctx context.Context) Logger {
	if tc := taskCtxFrom(ctx); tc != nil && tc.logger != nil {
		return tc.logger
	}
	return DefaultLogger()
}

// TaskReactor returns the running task's scheduler's Reactor, or nil if
// ctx is not a task context. Bind it onto a Deadline (Deadline.
// WithReactor) before a timed wait so the wait's timer is armed on the
// scheduler's own timer heap (§4.12) instead of a bare time.Timer; see
// TaskSleepFor/TaskSleepUntil for the common case.
func TaskReactor(ctx context.Context) Reactor {
	if tc := taskCtxFrom(ctx); tc != nil {
		return tc.reactor
	}
	return nil
}
