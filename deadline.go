package colib

import (
	"math"
	"time"
)

// Deadline is an immutable carrier of zero-or-one deadline (an absolute
// monotonic time, or a duration resolved at construction time) and
// zero-or-one cancellation token, per spec §4.4. The zero value means
// "wait forever, uninterruptible", matching a default-constructed
// co::until in include/co/until.hpp.
type Deadline struct {
	at      time.Time // zero Time means "no time limit"
	hasTime bool
	token   StopToken
	reactor Reactor
}

// At returns a Deadline that expires at t, optionally interruptible by
// token. Passing a zero StopToken{} disables cancellation.
func At(t time.Time, token ...StopToken) Deadline {
	d := Deadline{at: t, hasTime: true}
	if len(token) > 0 {
		d.token = token[0]
	}
	return d
}

// WithReactor binds r as the Reactor a timed wait derived from d should
// arm its timer on (per §4.12), instead of parking a bare time.Timer.
// Task bodies obtain their scheduler's reactor via TaskReactor(ctx) and
// bind it here; a Deadline with no bound reactor still works exactly as
// before, backed by time.Timer — the legitimate fallback for deadlines
// used outside any running Scheduler (e.g. the BlockingWait bridge, or
// tests that exercise a primitive standalone).
func (d Deadline) WithReactor(r Reactor) Deadline {
	d.reactor = r
	return d
}

// Reactor returns the bound Reactor, or nil if none was bound.
func (d Deadline) Reactor() Reactor { return d.reactor }

// Timeout returns a Deadline that expires after d, resolved to an
// absolute time immediately (consistent with spec §4.4's timeout(duration)
// factory).
func Timeout(d time.Duration, token ...StopToken) Deadline {
	return At(time.Now().Add(d), token...)
}

// Cancel returns a Deadline with no time limit, interruptible only by
// token.
func Cancel(token StopToken) Deadline {
	return Deadline{token: token}
}

// Forever is the zero-value Deadline: no time limit, no cancellation.
var Forever = Deadline{}

// Token returns the deadline's cancellation token, the zero StopToken if
// none was set.
func (d Deadline) Token() StopToken { return d.token }

// HasTimeLimit reports whether the deadline carries an absolute time.
func (d Deadline) HasTimeLimit() bool { return d.hasTime }

// Milliseconds returns the remaining time until the deadline, clamped to
// a representable int64, or ok=false if the deadline is unbounded. A
// returned value <= 0 means the deadline has already expired and the
// caller must not suspend, per spec §4.4/§8 boundary behavior.
func (d Deadline) Milliseconds() (ms int64, ok bool) {
	if !d.hasTime {
		return 0, false
	}
	remaining := time.Until(d.at)
	f := float64(remaining) / float64(time.Millisecond)
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64, true
	case f <= math.MinInt64:
		return math.MinInt64, true
	default:
		return int64(f), true
	}
}

// Expired reports whether the deadline's time limit, if any, has already
// passed.
func (d Deadline) Expired() bool {
	ms, ok := d.Milliseconds()
	return ok && ms <= 0
}
