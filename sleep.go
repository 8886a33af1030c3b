package colib

import (
	"context"
	"time"
)

// SleepFor suspends for d, optionally interruptible by token. It is a
// thin adapter over an ephemeral Event whose WaitDeadline is awaited
// (§4.11): a plain timeout is the success case, so SleepFor returns nil
// unless interrupted via token, in which case it returns ErrCancel.
//
// SleepFor has no task context to draw a Reactor from, so its timer is
// always a bare time.Timer — the standalone counterpart of
// BlockingWait, for use outside any running Scheduler. A task body
// should prefer TaskSleepFor, which arms its timer on the scheduler's
// own reactor.
func SleepFor(d time.Duration, token ...StopToken) error {
	return sleepUntilDeadline(Timeout(d, token...))
}

// SleepUntil suspends until the absolute time t, optionally interruptible
// by token. See SleepFor's doc comment on its standalone (non-reactor)
// timer; prefer TaskSleepUntil from within a task body.
func SleepUntil(t time.Time, token ...StopToken) error {
	return sleepUntilDeadline(At(t, token...))
}

// TaskSleepFor is SleepFor for use inside a task body: it draws both the
// cancellation token and the Reactor to arm its timer on from ctx (per
// TaskStopToken/TaskReactor), so the wait is driven by the scheduler's
// own timer heap (§4.12) rather than a bare time.Timer.
func TaskSleepFor(ctx context.Context, d time.Duration) error {
	deadline := Timeout(d, TaskStopToken(ctx))
	if r := TaskReactor(ctx); r != nil {
		deadline = deadline.WithReactor(r)
	}
	return sleepUntilDeadline(deadline)
}

// TaskSleepUntil is SleepUntil for use inside a task body; see
// TaskSleepFor.
func TaskSleepUntil(ctx context.Context, t time.Time) error {
	deadline := At(t, TaskStopToken(ctx))
	if r := TaskReactor(ctx); r != nil {
		deadline = deadline.WithReactor(r)
	}
	return sleepUntilDeadline(deadline)
}

func sleepUntilDeadline(d Deadline) error {
	err := NewEvent().WaitDeadline(d)
	if err == ErrTimeout {
		return nil
	}
	return err
}
