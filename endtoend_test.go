package colib

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario 1: sleep-then-notify. Task A sleeps 50ms then notifies an
// event; task B waits on it with a 100ms deadline. B must observe ok (its
// wait ended before the deadline); the elapsed time measured once B is
// joined must lie in [50ms, 150ms).
func TestScenarioSleepThenNotify(t *testing.T) {
	s := newTestScheduler(t)
	e := NewEvent()
	start := time.Now()

	a := NewTask(s, func(ctx context.Context) error {
		return TaskSleepFor(ctx, 50*time.Millisecond)
	})
	var waitErr error
	b := NewTask(s, func(ctx context.Context) error {
		waitErr = e.WaitDeadline(Timeout(100 * time.Millisecond).WithReactor(TaskReactor(ctx)))
		return nil
	})
	go func() {
		require.NoError(t, a.Join())
		e.Notify()
	}()

	require.NoError(t, b.Join())
	elapsed := time.Since(start)
	require.NoError(t, waitErr)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, 150*time.Millisecond)
}

// Scenario 2: cancel before deadline. Task A sleeps 25ms then requests
// stop; task B waits on a fresh event with a 100ms deadline carrying A's
// token. B must observe ErrCancel; the elapsed time measured once both
// are joined must lie in [20ms, 80ms).
func TestScenarioCancelBeforeDeadline(t *testing.T) {
	s := newTestScheduler(t)
	src := NewStopSource()
	e := NewEvent()
	start := time.Now()

	a := NewTask(s, func(ctx context.Context) error {
		if err := TaskSleepFor(ctx, 25*time.Millisecond); err != nil {
			return err
		}
		src.RequestStop()
		return nil
	})
	var waitErr error
	b := NewTask(s, func(ctx context.Context) error {
		waitErr = e.WaitDeadline(At(time.Now().Add(100*time.Millisecond), src.Token()).WithReactor(TaskReactor(ctx)))
		return nil
	})

	require.NoError(t, a.Join())
	require.NoError(t, b.Join())

	elapsed := time.Since(start)
	assert.Equal(t, ErrCancel, waitErr)
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
	assert.Less(t, elapsed, 80*time.Millisecond)
}

// Scenario 3: channel producer/consumer. Capacity-3 channel, producer
// pushes 0..9 and closes; two consumers race to drain it. Every item is
// observed by exactly one consumer, with no duplicates or drops.
func TestScenarioChannelProducerConsumer(t *testing.T) {
	ch := NewChannel[int](3)

	go func() {
		for i := 0; i < 10; i++ {
			require.NoError(t, ch.Push(i, Forever))
		}
		ch.Close()
	}()

	var mu sync.Mutex
	seen := make(map[int]int)
	var wg sync.WaitGroup

	consume := func(sleep time.Duration) {
		defer wg.Done()
		for {
			v, err := ch.Pop(Forever)
			if err != nil {
				require.Equal(t, ErrClosed, err)
				return
			}
			mu.Lock()
			seen[v]++
			mu.Unlock()
			time.Sleep(sleep)
		}
	}
	wg.Add(2)
	go consume(10 * time.Millisecond)
	go consume(5 * time.Millisecond)
	wg.Wait()

	require.Len(t, seen, 10)
	for i := 0; i < 10; i++ {
		assert.Equal(t, 1, seen[i], "item %d must be observed exactly once", i)
	}
}

// Scenario 4: mutex three-way. Three tasks each lock, sleep 11ms, unlock.
// Total elapsed must be at least 33ms (serialized), and the mutex ends
// unlocked.
func TestScenarioMutexThreeWay(t *testing.T) {
	s := newTestScheduler(t)
	m := NewMutex()
	start := time.Now()

	var tasks []*Task
	for i := 0; i < 3; i++ {
		tasks = append(tasks, NewTask(s, func(ctx context.Context) error {
			m.Lock()
			defer m.Unlock()
			return SleepFor(11 * time.Millisecond)
		}))
	}
	for _, task := range tasks {
		require.NoError(t, task.Join())
	}

	assert.GreaterOrEqual(t, time.Since(start), 33*time.Millisecond)
	assert.False(t, m.IsLocked())
}

// Scenario 5: promise broken. A future observes ErrBroken if its promise
// is dropped (here: explicitly Break()'d) without ever being set.
func TestScenarioPromiseBroken(t *testing.T) {
	p := NewPromise[int]()
	f := p.GetFuture()
	p.Break()
	_, err := f.Get()
	assert.Equal(t, ErrBroken, err)
}

// Scenario 6: cross-thread event. Many events, each notified from its own
// OS-thread-style goroutine after a short delay; every wait observes ok.
func TestScenarioCrossThreadEvents(t *testing.T) {
	const n = 1000
	events := make([]*Event, n)
	for i := range events {
		events[i] = NewEvent()
	}
	for _, e := range events {
		e := e
		go func() {
			time.Sleep(2 * time.Millisecond)
			e.Notify()
		}()
	}

	var wg sync.WaitGroup
	wg.Add(n)
	for _, e := range events {
		e := e
		go func() {
			defer wg.Done()
			e.Wait()
			assert.Equal(t, eventOK, e.Status())
		}()
	}
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("not every event observed ok in time")
	}
}
