package colib

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventNotifyThenWaitReturnsImmediately(t *testing.T) {
	e := NewEvent()
	assert.True(t, e.Notify())
	e.Wait() // must not block
}

func TestEventWaitThenNotify(t *testing.T) {
	e := NewEvent()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.Wait()
	}()
	time.Sleep(10 * time.Millisecond)
	assert.True(t, e.Notify())
	wg.Wait()
}

func TestEventNotifyIdempotence(t *testing.T) {
	// I3: at most one Notify call ever returns true.
	e := NewEvent()
	results := make(chan bool, 8)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- e.Notify()
		}()
	}
	wg.Wait()
	close(results)
	trueCount := 0
	for r := range results {
		if r {
			trueCount++
		}
	}
	assert.Equal(t, 1, trueCount)
}

func TestEventWaitDeadlineTimeoutFastPath(t *testing.T) {
	e := NewEvent()
	err := e.WaitDeadline(At(time.Now().Add(-time.Second)))
	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestEventWaitDeadlineCancelFastPath(t *testing.T) {
	src := NewStopSource()
	src.RequestStop()
	e := NewEvent()
	err := e.WaitDeadline(Cancel(src.Token()))
	assert.True(t, errors.Is(err, ErrCancel))
}

func TestEventWaitDeadlineTimesOut(t *testing.T) {
	e := NewEvent()
	err := e.WaitDeadline(Timeout(10 * time.Millisecond))
	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestEventWaitDeadlineCancelledByToken(t *testing.T) {
	src := NewStopSource()
	e := NewEvent()
	done := make(chan error, 1)
	go func() { done <- e.WaitDeadline(At(time.Now().Add(time.Hour), src.Token())) }()
	time.Sleep(10 * time.Millisecond)
	src.RequestStop()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, ErrCancel))
	case <-time.After(time.Second):
		t.Fatal("WaitDeadline did not observe cancellation")
	}
}

func TestEventWaitDeadlineNotifiedBeforeDeadline(t *testing.T) {
	e := NewEvent()
	go func() {
		time.Sleep(5 * time.Millisecond)
		e.Notify()
	}()
	err := e.WaitDeadline(Timeout(time.Second))
	require.NoError(t, err)
}

func TestEventMonotonicStatus(t *testing.T) {
	// I1/I2: exactly one terminal transition, status never regresses.
	e := NewEvent()
	assert.Equal(t, eventInit, e.Status())
	e.Notify()
	assert.Equal(t, eventOK, e.Status())
	assert.False(t, e.cancel())
	assert.False(t, e.timeout())
	assert.Equal(t, eventOK, e.Status())
}
