package colib

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// Task is an independently schedulable unit of work, per §4.2: a stable
// id, a name, a stop source, and a join handle backed by a completion
// Event. Per the spec's destructor policy, a Task must be either joined
// (its Join/JoinDeadline observed to return) or explicitly Detached
// before its last reference is dropped; this implementation enforces
// that as a diagnostic only (a logged warning via a runtime finalizer),
// matching the "implementers may promote to a hard error" latitude.
type Task struct {
	id         uint64
	name       string
	scheduler  *Scheduler
	stopSource *StopSource
	done       *Event

	mu       sync.Mutex
	joined   bool
	detached bool
	err      error
}

// NewTask constructs and immediately schedules body as a new Task on s.
// The constructor allocates task storage (id, stop source, completion
// event), registers it with s, and enqueues the initial continuation on
// s's ready queue — body itself runs on its own goroutine once that
// continuation is drained, carrying a context.Context that resolves the
// this_task accessors (TaskID, TaskName, TaskStopToken, TaskLogger).
func NewTask(s *Scheduler, body func(ctx context.Context) error, opts ...TaskOption) *Task {
	cfg := defaultTaskConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	t := &Task{
		id:         s.allocTaskID(),
		name:       cfg.name,
		scheduler:  s,
		stopSource: NewStopSource(),
		done:       NewEvent(),
	}
	s.taskStarted()
	runtime.SetFinalizer(t, (*Task).finalizeCheck)
	s.ready(func() { go t.run(body) })
	return t
}

// run executes body on its own goroutine (the Go-native substrate for a
// suspendable task body, per SPEC_FULL.md §0) and, once it returns,
// hands the task's completion transition back to the scheduler's ready
// queue rather than applying it inline. This keeps the state change any
// Join/JoinDeadline waiter observes — t.err, t.done.Notify(),
// taskFinished()'s liveTasks accounting, and the error-path log line —
// confined to the single goroutine draining Scheduler.Run, the same
// goroutine that dispatched the task's initial continuation. The task
// body itself still runs concurrently with everything else (see
// DESIGN.md's Task entry for why that is a deliberate, reconciled scope
// limit rather than a full continuation-passing rewrite).
func (t *Task) run(body func(ctx context.Context) error) {
	ctx := withTaskCtx(context.Background(), &taskCtx{
		id:      t.id,
		name:    t.name,
		token:   t.stopSource.Token(),
		source:  t.stopSource,
		logger:  t.scheduler.cfg.logger,
		reactor: t.scheduler.cfg.reactor,
	})

	err := t.runCapturingPanic(ctx, body)

	t.scheduler.ready(func() {
		t.mu.Lock()
		t.err = err
		t.mu.Unlock()
		t.done.Notify()
		t.scheduler.taskFinished()

		if err != nil {
			t.scheduler.cfg.logger.Warn().
				Str("task", t.name).
				Int("task_id", int(t.id)).
				Err(err).
				Log("task finished with error")
		}
	})
}

func (t *Task) runCapturingPanic(ctx context.Context, body func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewStatusError(CodeOther, fmt.Sprintf("colib: task panicked: %v", r))
		}
	}()
	return body(ctx)
}

// ID returns the task's stable numeric id.
func (t *Task) ID() uint64 { return t.id }

// Name returns the task's human-readable name, "" if unset.
func (t *Task) Name() string { return t.name }

// Join awaits completion, unbounded and uninterruptible. Idempotent:
// multiple goroutines may Join the same Task and all observe its result.
func (t *Task) Join() error { return t.JoinDeadline(Forever) }

// JoinDeadline awaits completion, honoring d. Returns the task's own
// result (nil, or the error/panic it finished with) on success; ErrCancel
// or ErrTimeout if interrupted first.
func (t *Task) JoinDeadline(d Deadline) error {
	// Each call waits on its own Event, fed by t.done closing, so a
	// timed-out or cancelled join leaves t.done untouched for other joiners.
	w := NewEvent()
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-t.done.ch:
			w.Notify()
		case <-stop:
		}
	}()
	if err := w.WaitDeadline(d); err != nil {
		return err
	}
	t.mu.Lock()
	t.joined = true
	err := t.err
	t.mu.Unlock()
	return err
}

// Detach relinquishes the join obligation: the task runs to completion on
// its own, and its eventual result is discarded (though still logged on
// error, per the scheduler's error-path logging).
func (t *Task) Detach() {
	t.mu.Lock()
	t.detached = true
	t.mu.Unlock()
}

// RequestStop signals cooperative cancellation to the task.
func (t *Task) RequestStop() { t.stopSource.RequestStop() }

// GetStopSource returns the task's stop source.
func (t *Task) GetStopSource() *StopSource { return t.stopSource }

// GetStopToken returns a token observing the task's stop source.
func (t *Task) GetStopToken() StopToken { return t.stopSource.Token() }

// IsJoined reports whether a Join/JoinDeadline call on this Task has
// already observed its completion.
func (t *Task) IsJoined() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.joined
}

// IsDone reports whether the task's body has returned, independent of
// whether anyone has joined or detached it yet.
func (t *Task) IsDone() bool {
	return t.done.Status() != eventInit && t.done.Status() != eventWaiting
}

func (t *Task) finalizeCheck() {
	t.mu.Lock()
	joined, detached := t.joined, t.detached
	t.mu.Unlock()
	if !joined && !detached {
		t.scheduler.cfg.logger.Warn().
			Str("task", t.name).
			Int("task_id", int(t.id)).
			Log("task handle dropped without Join or Detach")
	}
}
