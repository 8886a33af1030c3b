package colib

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-catrate"
)

// Standard scheduler errors, grounded on eventloop's sentinel-error style
// (eventloop/loop.go's ErrLoop* vars).
var (
	ErrSchedulerRunning = errors.New("colib: scheduler is already running")
	ErrSchedulerClosed  = errors.New("colib: scheduler is closed")
)

// readyHandle is a queued coroutine continuation: a plain callback run on
// the scheduler's goroutine during a ready-queue drain.
type readyHandle func()

// Scheduler is the L1 owner of §4.1: a FIFO ready queue plus a reactor
// handle. Exactly one goroutine (the one that calls Run) ever drains the
// queue or steps the reactor; Ready may be called from any goroutine.
type Scheduler struct {
	cfg *schedulerConfig

	mu      sync.Mutex
	queue   []readyHandle
	running bool
	closed  bool

	liveTasks  atomic.Int64
	nextTaskID atomic.Uint64

	overload *catrate.Limiter
}

// NewScheduler constructs a Scheduler. By default it owns a *timerReactor
// built by NewReactor(); pass WithReactor to supply a different one (e.g.
// a fake, for deterministic tests).
func NewScheduler(opts ...Option) (*Scheduler, error) {
	cfg := defaultSchedulerConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.reactor == nil {
		r, err := NewReactor()
		if err != nil {
			return nil, err
		}
		cfg.reactor = r
	}
	s := &Scheduler{
		cfg:      cfg,
		overload: catrate.NewLimiter(map[time.Duration]int{cfg.overloadWindow: cfg.overloadMaxPerWin}),
	}
	return s, nil
}

// Reactor exposes the scheduler's reactor handle to L0-aware primitives
// (timers, the deadline machinery, I/O collaborators), per §4.1's
// reactor_handle().
func (s *Scheduler) Reactor() Reactor { return s.cfg.reactor }

// ready enqueues a coroutine continuation. Safe to call from any
// goroutine, per §4.1's cross-thread ready() contract: it always nudges
// the reactor's wake handle, which is a cheap no-op coalesce (see
// wakeHandle.Send) when Run is already awake draining the queue.
func (s *Scheduler) ready(h readyHandle) {
	s.mu.Lock()
	s.queue = append(s.queue, h)
	s.mu.Unlock()
	s.cfg.reactor.Wake().Send()
}

// allocTaskID returns a fresh, monotonically increasing task id.
func (s *Scheduler) allocTaskID() uint64 { return s.nextTaskID.Add(1) }

func (s *Scheduler) taskStarted() { s.liveTasks.Add(1) }

// taskFinished records a task's completion and wakes Run's reactor step
// so it promptly re-checks the idle (termination) condition, rather than
// blocking up to the next armed timer (or forever, if none).
func (s *Scheduler) taskFinished() {
	s.liveTasks.Add(-1)
	s.cfg.reactor.Wake().Send()
}

// Run executes the main loop until the ready queue is empty and every
// task has completed. The reactor is not consulted for idleness: timers
// still armed on it do not keep Run going once no task is live.
// Run must not be called re-entrantly, nor concurrently from two
// goroutines.
func (s *Scheduler) Run() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	if s.running {
		s.mu.Unlock()
		return ErrSchedulerRunning
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	for {
		drained := s.drainReady()
		s.mu.Lock()
		idle := len(s.queue) == 0 && s.liveTasks.Load() == 0
		s.mu.Unlock()
		if idle {
			return nil
		}
		maxBlock := time.Duration(-1)
		if drained > 0 {
			// more ready work may already be pending; don't block.
			maxBlock = 0
		}
		s.cfg.reactor.RunOnce(maxBlock)
	}
}

// drainReady resumes every handle queued so far, in FIFO order, per
// §4.1's ready-queue invariant (enqueued at most once between
// resumptions). Handles queued by a resumed continuation are picked up
// by a subsequent drainReady call, never the current one, matching the
// "wake becomes visible only on a subsequent drain iteration" ordering
// rule.
func (s *Scheduler) drainReady() int {
	s.mu.Lock()
	batch := s.queue
	s.queue = nil
	if len(batch) > s.cfg.overloadThreshold {
		if _, ok := s.overload.Allow("ready-queue-overload"); ok {
			s.cfg.logger.Warn().Int("queue_len", len(batch)).Log("ready queue exceeded overload threshold")
		}
	}
	s.mu.Unlock()

	for _, h := range batch {
		h()
	}
	return len(batch)
}

// Close releases the scheduler's reactor. Close must be called after Run
// returns; calling it while Run is active is a programming error.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.cfg.reactor.Close()
}
