package colib

import (
	"sync"
	"time"
)

// Channel is the bounded channel of §4.9: a ring buffer of fixed
// capacity, a closed flag, and separate producer/consumer waiter queues.
// The single-threaded/thread-safe split of the spec collapses to one
// always-mutex-guarded implementation (see DESIGN.md); BlockingPush and
// BlockingPop remain as the explicit OS-thread-parking escape hatch of
// spec §5.
type Channel[T any] struct {
	mu        sync.Mutex
	buf       []T
	head      int
	size      int
	closed    bool
	producers WaiterQueue
	consumers WaiterQueue
}

// NewChannel constructs a Channel with the given fixed capacity. A
// capacity of 0 (rendezvous channels) is out of scope, per spec §4.9's
// Non-goals; capacity must be >= 1.
func NewChannel[T any](capacity int) *Channel[T] {
	if capacity < 1 {
		panic("colib: channel capacity must be >= 1")
	}
	return &Channel[T]{buf: make([]T, capacity)}
}

func (c *Channel[T]) full() bool  { return c.size == len(c.buf) }
func (c *Channel[T]) empty() bool { return c.size == 0 }

func (c *Channel[T]) pushLocked(v T) {
	tail := (c.head + c.size) % len(c.buf)
	c.buf[tail] = v
	c.size++
}

func (c *Channel[T]) popLocked() T {
	var zero T
	v := c.buf[c.head]
	c.buf[c.head] = zero
	c.head = (c.head + 1) % len(c.buf)
	c.size--
	return v
}

// TryPush attempts a non-suspending push. Returns ErrClosed if closed,
// ErrFull if no space, nil on success (waking one consumer).
func (c *Channel[T]) TryPush(v T) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.full() {
		c.mu.Unlock()
		return ErrFull
	}
	c.pushLocked(v)
	c.mu.Unlock()
	c.consumers.NotifyOne()
	return nil
}

// Push suspends until space is available, the channel closes, or d
// elapses.
func (c *Channel[T]) Push(v T, d Deadline) error {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return ErrClosed
		}
		if !c.full() {
			c.pushLocked(v)
			c.mu.Unlock()
			c.consumers.NotifyOne()
			return nil
		}
		err := c.producers.WaitDeadlineLocked(&c.mu, d)
		c.mu.Unlock()
		if err != nil {
			return err
		}
		// woken: loop to re-check state (closed may have raced in).
	}
}

// BlockingPush parks the calling OS thread until space, close, or
// timeout, bridging a non-scheduler worker with the channel (spec §5's
// "only permissible OS-thread block" operations). It is Push with a
// Timeout deadline built from timeout; timeout<0 means unbounded.
func (c *Channel[T]) BlockingPush(v T, timeout time.Duration) error {
	d := Forever
	if timeout >= 0 {
		d = Timeout(timeout)
	}
	return c.Push(v, d)
}

// TryPop attempts a non-suspending pop. Returns ErrClosed if empty and
// closed, ErrEmpty if empty and open, otherwise the value (waking one
// producer).
func (c *Channel[T]) TryPop() (T, error) {
	var zero T
	c.mu.Lock()
	if c.empty() {
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return zero, ErrClosed
		}
		return zero, ErrEmpty
	}
	v := c.popLocked()
	c.mu.Unlock()
	c.producers.NotifyOne()
	return v, nil
}

// Pop suspends until an element is available, the channel closes and
// drains, or d elapses.
func (c *Channel[T]) Pop(d Deadline) (T, error) {
	var zero T
	for {
		c.mu.Lock()
		if !c.empty() {
			v := c.popLocked()
			c.mu.Unlock()
			c.producers.NotifyOne()
			return v, nil
		}
		if c.closed {
			c.mu.Unlock()
			return zero, ErrClosed
		}
		err := c.consumers.WaitDeadlineLocked(&c.mu, d)
		c.mu.Unlock()
		if err != nil {
			// A stranded element must not go un-signalled: re-notify the
			// consumer queue so a buffered push racing with this
			// cancellation still wakes some other consumer, per §4.9.
			c.consumers.NotifyOne()
			return zero, err
		}
	}
}

// BlockingPop parks the calling OS thread until an element, close, or
// timeout. timeout<0 means unbounded.
func (c *Channel[T]) BlockingPop(timeout time.Duration) (T, error) {
	d := Forever
	if timeout >= 0 {
		d = Timeout(timeout)
	}
	return c.Pop(d)
}

// Close idempotently closes the channel, waking every producer and
// consumer. Producers then see ErrClosed; consumers drain any buffered
// elements before seeing ErrClosed, per §4.9's ordering guarantee.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	c.producers.NotifyAll()
	c.consumers.NotifyAll()
}

// Len reports the number of buffered elements.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Cap reports the fixed capacity.
func (c *Channel[T]) Cap() int { return len(c.buf) }

// IsClosed reports whether Close has been called.
func (c *Channel[T]) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
