package colib

import (
	"container/heap"
	"sync"
	"time"
)

// Reactor is the L0 contract of spec §4.12/§6: the only capabilities the
// core requires of the OS-facing layer are a run-loop step with a
// timeout, a monotonic millisecond timer, and a cross-thread wakeup
// handle. Concrete I/O transports (TCP, etc.) are out of core scope and
// may be layered on top of a Reactor implementation by a collaborator.
type Reactor interface {
	// RunOnce blocks for up to maxBlock waiting for a timer to fire or a
	// wake to arrive, then runs any expired timer callbacks on the
	// calling goroutine. It returns true if any timer fired or a wake was
	// observed.
	RunOnce(maxBlock time.Duration) (didWork bool)

	// ArmTimer schedules fn to run, on the reactor's RunOnce goroutine,
	// no earlier than ms milliseconds from now. The returned handle's
	// Cancel may be called at most once, from any goroutine.
	ArmTimer(ms int64, fn func()) TimerHandle

	// Wake returns the cross-thread wake handle: calling its Send from
	// any goroutine causes a blocked RunOnce to return promptly.
	Wake() WakeHandle

	// Close releases the reactor's resources. RunOnce must not be called
	// again afterwards.
	Close() error
}

// TimerHandle lets a caller cancel a previously armed timer.
type TimerHandle interface {
	// Cancel prevents a not-yet-fired timer from firing. It is a no-op if
	// the timer already fired or was already cancelled.
	Cancel()
}

// WakeHandle is the reactor's cross-thread wakeup primitive (spec §4.12c).
type WakeHandle interface {
	// Send is safe to call from any goroutine, including concurrently
	// with RunOnce or with other Send calls.
	Send()
	Close() error
}

// wakeHandle is the internal extension of WakeHandle used by timerReactor
// to block RunOnce until woken or a duration elapses. Platform-specific
// files (reactor_unix.go, reactor_other.go) supply newWakeHandle.
type wakeHandle interface {
	WakeHandle
	// wait blocks until Send is observed or d elapses (d < 0 means
	// unbounded), returning true iff a Send was observed.
	wait(d time.Duration) bool
}

// timerEntry is one scheduled callback, ordered by its fire time.
type timerEntry struct {
	at       time.Time
	fn       func()
	cancelled bool
	index    int // heap index, maintained by container/heap
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

type timerHandle struct {
	entry *timerEntry
	r     *timerReactor
}

func (h *timerHandle) Cancel() {
	r := h.r
	r.mu.Lock()
	defer r.mu.Unlock()
	if h.entry.index < 0 {
		return
	}
	h.entry.cancelled = true
	heap.Remove(&r.timers, h.entry.index)
}

// timerReactor is the reference Reactor: a container/heap timer queue
// guarded by a mutex, blocking via a platform wake handle. It is grounded
// on eventloop.Loop's timerHeap (loop.go) and its wake-pipe design
// (wakeup_linux.go), simplified to the timer+wake subset the core spec
// requires (concrete fd/I/O readiness polling is an out-of-scope external
// collaborator, per spec §1).
type timerReactor struct {
	mu     sync.Mutex
	timers timerHeap
	wake   wakeHandle
	closed bool
}

// NewReactor constructs the reference Reactor implementation.
func NewReactor() (Reactor, error) {
	wake, err := newWakeHandle()
	if err != nil {
		return nil, err
	}
	r := &timerReactor{wake: wake}
	heap.Init(&r.timers)
	return r, nil
}

func (r *timerReactor) ArmTimer(ms int64, fn func()) TimerHandle {
	if ms < 0 {
		ms = 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e := &timerEntry{at: time.Now().Add(time.Duration(ms) * time.Millisecond), fn: fn}
	heap.Push(&r.timers, e)
	return &timerHandle{entry: e, r: r}
}

func (r *timerReactor) Wake() WakeHandle { return r.wake }

func (r *timerReactor) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return r.wake.Close()
}

// RunOnce blocks until the earlier of: the next timer due, maxBlock
// elapsing, or a wake arriving; then drains every expired timer.
func (r *timerReactor) RunOnce(maxBlock time.Duration) bool {
	r.mu.Lock()
	wait := maxBlock
	if len(r.timers) > 0 {
		until := time.Until(r.timers[0].at)
		if until < 0 {
			until = 0
		}
		if wait < 0 || until < wait {
			wait = until
		}
	}
	r.mu.Unlock()

	woken := r.wake.wait(wait)

	r.mu.Lock()
	now := time.Now()
	var fired []func()
	for len(r.timers) > 0 && !r.timers[0].at.After(now) {
		e := heap.Pop(&r.timers).(*timerEntry)
		if e.cancelled {
			continue
		}
		fired = append(fired, e.fn)
	}
	r.mu.Unlock()

	for _, fn := range fired {
		fn()
	}
	return woken || len(fired) > 0
}
