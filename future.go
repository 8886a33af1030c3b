package colib

import "sync"

// futureState is the shared, reference-counted state behind a Promise and
// its Future handles, per §4.10.
type futureState[T any] struct {
	mu       sync.Mutex
	done     bool
	value    T
	err      error
	waiters  WaiterQueue
	finalize sync.Once
}

// Promise produces at most one value (or error) for a shared futureState;
// GetFuture hands out observer handles. The zero Promise is not usable;
// construct with NewPromise.
type Promise[T any] struct {
	state *futureState[T]
}

// Future observes a Promise's eventual value.
type Future[T any] struct {
	state *futureState[T]
}

// NewPromise constructs a fresh Promise with no observers yet.
func NewPromise[T any]() Promise[T] {
	return Promise[T]{state: &futureState[T]{}}
}

// GetFuture returns a Future observing this Promise. May be called more
// than once; every Future observes the same shared state.
func (p Promise[T]) GetFuture() Future[T] {
	return Future[T]{state: p.state}
}

// SetValue resolves the shared state with v, waking every waiting Future.
// Calling SetValue or SetException a second time raises ErrOther, per
// §4.10.
func (p Promise[T]) SetValue(v T) error {
	return p.resolve(v, nil)
}

// SetException resolves the shared state with err, waking every waiting
// Future. Calling SetValue or SetException a second time raises
// ErrOther.
func (p Promise[T]) SetException(err error) error {
	if err == nil {
		err = ErrOther
	}
	return p.resolve(*new(T), err)
}

func (p Promise[T]) resolve(v T, err error) error {
	p.state.mu.Lock()
	if p.state.done {
		p.state.mu.Unlock()
		return ErrOther
	}
	p.state.done = true
	p.state.value = v
	p.state.err = err
	p.state.mu.Unlock()
	p.state.waiters.NotifyAll()
	return nil
}

// Break resolves the shared state to ErrBroken if it was never set,
// matching the promise-dropped-without-set-value rule of §4.10. The
// reference implementation does this in the promise's destructor; Go has
// no destructors, so callers that may abandon a Promise without setting
// it (e.g. on an early-return error path) should `defer p.Break()`. It is
// a no-op if the state is already resolved.
func (p Promise[T]) Break() {
	p.state.finalize.Do(func() {
		p.state.mu.Lock()
		if p.state.done {
			p.state.mu.Unlock()
			return
		}
		p.state.done = true
		p.state.err = ErrBroken
		p.state.mu.Unlock()
		p.state.waiters.NotifyAll()
	})
}

// Get suspends unbounded until the Promise resolves, returning its value
// or error.
func (f Future[T]) Get() (T, error) {
	return f.GetDeadline(Forever)
}

// GetDeadline is as Get, but interruptible by d.
func (f Future[T]) GetDeadline(d Deadline) (T, error) {
	var zero T
	f.state.mu.Lock()
	if f.state.done {
		v, err := f.state.value, f.state.err
		f.state.mu.Unlock()
		return v, err
	}
	waitErr := f.state.waiters.WaitDeadlineLocked(&f.state.mu, d)
	if waitErr != nil {
		f.state.mu.Unlock()
		return zero, waitErr
	}
	v, err := f.state.value, f.state.err
	f.state.mu.Unlock()
	return v, err
}
