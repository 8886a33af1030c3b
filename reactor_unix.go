//go:build unix

package colib

import (
	"encoding/binary"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// unixWakeHandle backs the reactor's cross-thread wakeup with an eventfd,
// grounded on eventloop/wakeup_linux.go's createWakeFd. The actual
// blocking wait is done on a buffered channel rather than a real
// poll/epoll of the fd (I/O readiness polling is an out-of-core
// collaborator per spec §1); the eventfd is written/read so the fd stays
// a faithful, inspectable wake primitive for anything layered on top
// (e.g. a collaborator that does poll this fd directly alongside its own
// descriptors).
type unixWakeHandle struct {
	ch        chan struct{}
	fd        int
	closeOnce sync.Once
}

func newWakeHandle() (wakeHandle, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &unixWakeHandle{ch: make(chan struct{}, 1), fd: fd}, nil
}

func (w *unixWakeHandle) Send() {
	select {
	case w.ch <- struct{}{}:
	default:
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, _ = unix.Write(w.fd, buf[:])
}

func (w *unixWakeHandle) wait(d time.Duration) bool {
	var timerC <-chan time.Time
	if d >= 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		timerC = t.C
	}
	select {
	case <-w.ch:
		w.drain()
		return true
	case <-timerC:
		return false
	}
}

func (w *unixWakeHandle) drain() {
	var buf [8]byte
	for {
		if _, err := unix.Read(w.fd, buf[:]); err != nil {
			return
		}
	}
}

func (w *unixWakeHandle) Close() (err error) {
	w.closeOnce.Do(func() {
		err = unix.Close(w.fd)
	})
	return
}
