package geo

import "sync/atomic"

// Session scopes one user-initiated acquisition to the view that started it.
// After Abandon, a late-arriving fix is discarded instead of mutating state
// the view no longer owns.
type Session struct {
	abandoned atomic.Bool
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Abandon() {
	s.abandoned.Store(true)
}

func (s *Session) Active() bool {
	return !s.abandoned.Load()
}

// Deliver invokes fn with the fix unless the session was abandoned. Returns
// whether fn ran.
func (s *Session) Deliver(fix Fix, fn func(Fix)) bool {
	if s.abandoned.Load() {
		return false
	}
	fn(fix)
	return true
}

// SubmitGuard makes a submit action idempotent while an acquisition (or the
// submission it gates) is in flight: TryBegin fails until End is called.
type SubmitGuard struct {
	busy atomic.Bool
}

func (sg *SubmitGuard) TryBegin() bool {
	return sg.busy.CompareAndSwap(false, true)
}

func (sg *SubmitGuard) End() {
	sg.busy.Store(false)
}
