package colib

import "sync"

// stopState is the shared, reference-counted state behind a StopSource and
// its StopTokens. Grounded on include/co/stop_token.hpp's stop_state: a
// flag plus a list of registered callbacks, invoked synchronously and
// exactly once by RequestStop.
type stopState struct {
	mu        sync.Mutex
	requested bool
	callbacks map[*stopCallbackNode]struct{}
	nextID    uint64
}

func newStopState() *stopState {
	return &stopState{callbacks: make(map[*stopCallbackNode]struct{})}
}

func (s *stopState) requestStop() {
	s.mu.Lock()
	if s.requested {
		s.mu.Unlock()
		return
	}
	s.requested = true
	// snapshot under lock, run callbacks outside the lock so a callback
	// may itself register/unregister without self-deadlocking.
	nodes := make([]*stopCallbackNode, 0, len(s.callbacks))
	for n := range s.callbacks {
		nodes = append(nodes, n)
	}
	s.mu.Unlock()

	for _, n := range nodes {
		n.fn()
	}
}

func (s *stopState) stopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requested
}

type stopCallbackNode struct {
	fn func()
}

// register returns true if fn was queued for later invocation, or false if
// it was already invoked inline because a stop was already requested.
func (s *stopState) register(node *stopCallbackNode) bool {
	s.mu.Lock()
	if s.requested {
		s.mu.Unlock()
		node.fn()
		return false
	}
	s.callbacks[node] = struct{}{}
	s.mu.Unlock()
	return true
}

func (s *stopState) unregister(node *stopCallbackNode) {
	s.mu.Lock()
	delete(s.callbacks, node)
	s.mu.Unlock()
}

// StopToken is a read-only observer handle into a cancellation flag. Its
// zero value never reports a requested stop, matching
// impl::dummy_stop_token in include/co/stop_token.hpp.
type StopToken struct {
	state *stopState
}

// StopRequested reports whether the owning StopSource has had RequestStop
// called.
func (t StopToken) StopRequested() bool {
	if t.state == nil {
		return false
	}
	return t.state.stopRequested()
}

// StopSource owns the cancellation flag behind one or more StopTokens.
type StopSource struct {
	state *stopState
}

// NewStopSource constructs a fresh, not-yet-requested StopSource.
func NewStopSource() *StopSource {
	return &StopSource{state: newStopState()}
}

// Token returns a StopToken observing this source.
func (s *StopSource) Token() StopToken {
	return StopToken{state: s.state}
}

// RequestStop atomically sets the stop flag and invokes every callback
// registered via StopCallback, in registration order is not guaranteed
// (map iteration), matching the "callbacks run, in some order, exactly
// once" contract of spec §5.
func (s *StopSource) RequestStop() {
	s.state.requestStop()
}

// StopRequested reports whether RequestStop has been called.
func (s *StopSource) StopRequested() bool {
	return s.state.stopRequested()
}

// StopCallback registers fn to run when token's stop is requested. If the
// stop has already been requested, fn runs inline, synchronously, before
// StopCallback returns — matching stop_callback's constructor in
// include/co/stop_token.hpp. The returned cancel function must be called
// once fn is no longer needed (e.g. once the awaiting operation resumes),
// to unregister it; it is safe to call multiple times.
func StopCallback(token StopToken, fn func()) (cancel func()) {
	if token.state == nil {
		return func() {}
	}
	node := &stopCallbackNode{fn: fn}
	registered := token.state.register(node)
	if !registered {
		return func() {}
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			token.state.unregister(node)
		})
	}
}
