package colib

import (
	"sync"
	"sync/atomic"
	"time"
)

// eventStatus is the Event state machine of spec §4.5, collapsed onto a
// single atomically-synchronized representation (see DESIGN.md: the
// single-threaded/thread-safe split does not survive translation to
// goroutines, since every task body runs concurrently with every other).
type eventStatus int32

const (
	eventInit eventStatus = iota
	eventWaiting
	eventOK
	eventCancel
	eventTimeout
)

// Event is the one-shot, interruptible notification primitive of §4.5.
// Exactly one terminal transition ever succeeds; Notify reports whether
// it was the one that did. At most one goroutine may Wait at a time.
type Event struct {
	status atomic.Int32
	ch     chan struct{} // closed exactly once, on the first terminal transition
	once   sync.Once
}

// NewEvent constructs an Event in the init state.
func NewEvent() *Event {
	e := &Event{ch: make(chan struct{})}
	e.status.Store(int32(eventInit))
	return e
}

func (e *Event) close() { e.once.Do(func() { close(e.ch) }) }

// Notify effects the init|waiting → ok transition. Returns true iff this
// call performed it; later calls always return false.
func (e *Event) Notify() bool {
	if e.status.CompareAndSwap(int32(eventInit), int32(eventOK)) {
		e.close()
		return true
	}
	if e.status.CompareAndSwap(int32(eventWaiting), int32(eventOK)) {
		e.close()
		return true
	}
	return false
}

// cancel effects the waiting → cancel transition (used by the
// StopCallback wired up inside WaitDeadline). Returns true iff it fired.
func (e *Event) cancel() bool {
	if e.status.CompareAndSwap(int32(eventWaiting), int32(eventCancel)) {
		e.close()
		return true
	}
	return false
}

// timeout effects the waiting → timeout transition (used by the deadline
// timer wired up inside WaitDeadline). Returns true iff it fired.
func (e *Event) timeout() bool {
	if e.status.CompareAndSwap(int32(eventWaiting), int32(eventTimeout)) {
		e.close()
		return true
	}
	return false
}

// Status reports the current terminal/non-terminal state.
func (e *Event) Status() eventStatus { return eventStatus(e.status.Load()) }

// Wait suspends unbounded, with no cancellation, until Notify. It is a
// logic error to call Wait (any variant) concurrently from two
// goroutines on the same Event.
func (e *Event) Wait() {
	e.status.CompareAndSwap(int32(eventInit), int32(eventWaiting))
	<-e.ch
}

// WaitDeadline waits for notification, honoring the deadline's timeout
// and cancellation token. Returns nil on the ok transition, ErrCancel if
// the token triggered first, ErrTimeout if the deadline elapsed first.
// Fast paths (§4.5): a deadline already expired, or a token already
// triggered, short-circuit without suspending.
func (e *Event) WaitDeadline(d Deadline) error {
	if d.Token().StopRequested() {
		if e.status.CompareAndSwap(int32(eventInit), int32(eventCancel)) {
			e.close()
		} else if e.Status() == eventOK {
			return nil
		}
		return ErrCancel
	}
	if ms, ok := d.Milliseconds(); ok && ms <= 0 {
		if e.status.CompareAndSwap(int32(eventInit), int32(eventTimeout)) {
			e.close()
		} else if e.Status() == eventOK {
			return nil
		}
		return ErrTimeout
	}

	e.status.CompareAndSwap(int32(eventInit), int32(eventWaiting))

	// Arm the deadline's timer. When d carries a bound Reactor (set via
	// Deadline.WithReactor, the path task bodies use through
	// TaskReactor(ctx)), the timer is the scheduler's own timer heap
	// (§4.12's ArmTimer), fired on that reactor's RunOnce goroutine.
	// With no bound reactor (standalone use, outside any running
	// Scheduler) a bare time.Timer is the only option, since nothing
	// would ever call RunOnce to fire a reactor-armed one.
	var timerC <-chan time.Time
	var armed TimerHandle
	if ms, ok := d.Milliseconds(); ok {
		if r := d.Reactor(); r != nil {
			armed = r.ArmTimer(ms, func() { e.timeout() })
		} else {
			timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
			defer timer.Stop()
			timerC = timer.C
		}
	}
	if armed != nil {
		defer armed.Cancel()
	}

	cancelFn := StopCallback(d.Token(), func() { e.cancel() })
	defer cancelFn()

	if armed != nil {
		<-e.ch
	} else {
		select {
		case <-e.ch:
		case <-timerC:
			e.timeout()
			<-e.ch
		}
	}

	switch eventStatus(e.status.Load()) {
	case eventCancel:
		return ErrCancel
	case eventTimeout:
		return ErrTimeout
	default:
		return nil
	}
}

// BlockingWait parks the calling OS thread until Notify, bridging a
// non-scheduler worker with the runtime (§4.5's blocking_wait,
// thread-safe variant only — here, unconditionally, since Event is
// always thread-safe in this implementation).
func (e *Event) BlockingWait() { e.Wait() }

// BlockingWaitTimeout parks for at most d, returning true iff notified
// before the timeout elapsed.
func (e *Event) BlockingWaitTimeout(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-e.ch:
		return true
	case <-t.C:
		return false
	}
}
