package colib

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutexTryLock(t *testing.T) {
	m := NewMutex()
	assert.True(t, m.TryLock())
	assert.False(t, m.TryLock())
	assert.True(t, m.IsLocked())
	m.Unlock()
	assert.False(t, m.IsLocked())
}

func TestMutexLockBlocksUntilUnlock(t *testing.T) {
	m := NewMutex()
	m.Lock()
	acquired := make(chan struct{})
	go func() {
		m.Lock()
		close(acquired)
	}()
	select {
	case <-acquired:
		t.Fatal("second Lock must not succeed while held")
	case <-time.After(20 * time.Millisecond):
	}
	m.Unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Lock never acquired after Unlock")
	}
}

func TestMutexMutualExclusionUnderContention(t *testing.T) {
	// I4: at most one holder at a time.
	m := NewMutex()
	counter := 0
	var wg sync.WaitGroup
	const n = 50
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Lock()
			defer m.Unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, n, counter)
}

func TestMutexLockDeadlineTimesOut(t *testing.T) {
	m := NewMutex()
	m.Lock()
	err := m.LockDeadline(Timeout(10 * time.Millisecond))
	assert.Equal(t, ErrTimeout, err)
}

func TestMutexLockDeadlineCancelled(t *testing.T) {
	m := NewMutex()
	m.Lock()
	src := NewStopSource()
	errCh := make(chan error, 1)
	go func() { errCh <- m.LockDeadline(At(time.Now().Add(time.Hour), src.Token())) }()
	time.Sleep(10 * time.Millisecond)
	src.RequestStop()
	require.Equal(t, ErrCancel, <-errCh)
}

func TestMutexUnlockHandsOffToWaiter(t *testing.T) {
	m := NewMutex()
	m.Lock()
	order := make(chan int, 2)
	go func() {
		m.Lock()
		order <- 1
		m.Unlock()
	}()
	time.Sleep(10 * time.Millisecond) // ensure the goroutine is queued
	m.Unlock()
	select {
	case v := <-order:
		assert.Equal(t, 1, v)
	case <-time.After(time.Second):
		t.Fatal("hand-off never observed")
	}
}
