//go:build !unix

package colib

import "time"

// chanWakeHandle is the non-unix fallback wake handle: a buffered channel
// only, no OS file descriptor. Behaviorally identical to unixWakeHandle.
type chanWakeHandle struct {
	ch chan struct{}
}

func newWakeHandle() (wakeHandle, error) {
	return &chanWakeHandle{ch: make(chan struct{}, 1)}, nil
}

func (w *chanWakeHandle) Send() {
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

func (w *chanWakeHandle) wait(d time.Duration) bool {
	var timerC <-chan time.Time
	if d >= 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		timerC = t.C
	}
	select {
	case <-w.ch:
		return true
	case <-timerC:
		return false
	}
}

func (w *chanWakeHandle) Close() error { return nil }
