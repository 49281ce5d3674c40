package epoch

import "io"

// Scope is a participant's presence in one epoch bucket.
//
// A Scope is created by Enter (and variants) and ends with Release, which
// decrements the bucket the participant was counted into exactly once.
// Treat a Scope like a lock token: release it on every exit path,
// typically
//
//	scope := state.Enter()
//	defer scope.Release()
//
// A Scope is exclusive to its creator and must not be copied or shared.
// Releasing the same Scope twice corrupts the participant counters;
// releasing the zero Scope is a no-op.
//
// Scopes are reentrant in the counting sense: a goroutine may hold any
// number of nested Scopes of the same State, each adding and removing one
// count independently.
type Scope struct {
	state *State
	index uint32
}

// Enter registers the caller as a participant in the current global epoch
// and returns the Scope counting it.
//
// Entry is wait-free and cannot fail. No reclamation is attempted; use
// EnterCollect or EnterClean to combine entry with an advance attempt.
func (s *State) Enter() Scope {
	g := s.global.Load() % 3
	s.entries[g].counter.Add(1)
	return Scope{state: s, index: g}
}

// EnterCollect enters the current epoch and then attempts one epoch
// advance, returning whatever became reclaimable as a RecycleBin.
//
// With drainAll false only the rotated-out bucket is collected; with
// drainAll true the stale remainder of the bucket the global epoch moved
// to is collected as well. When no advance is possible the bin is empty.
// The caller decides where the bin is drained: inline, on a background
// goroutine via Queue or CleanAsync, or not at all.
func (s *State) EnterCollect(drainAll bool) (Scope, *RecycleBin) {
	scope := s.Enter()
	head := s.advance(scope.index, drainAll)
	return scope, newBin(head)
}

// EnterClean enters the current epoch, attempts one advance and invokes
// any reclaimed callbacks inline before returning.
//
// Callback failures are aggregated per the RecycleBin.Clean policy. When
// the returned error is non-nil the Scope has already been released and
// the zero Scope is returned; the caller must not use or release it.
func (s *State) EnterClean(drainAll, stopOnFirstError bool) (Scope, error) {
	scope, bin := s.EnterCollect(drainAll)
	if err := bin.Clean(stopOnFirstError); err != nil {
		scope.Release()
		return Scope{}, err
	}
	return scope, nil
}

// Defer schedules f to run after the current global epoch has been
// rotated out. Reports ErrNilCallback for a nil f.
func (s Scope) Defer(f func()) error {
	if f == nil {
		return ErrNilCallback
	}
	s.state.push(&node{kind: kindFunc, fn: f})
	return nil
}

// DeferArg schedules f(arg). Keeping the argument in the node rather than
// a closure saves the closure allocation on hot reclamation paths.
// Reports ErrNilCallback for a nil f.
func (s Scope) DeferArg(f func(any), arg any) error {
	if f == nil {
		return ErrNilCallback
	}
	s.state.push(&node{kind: kindArgFunc, argFn: f, arg: arg})
	return nil
}

// DeferRun schedules r.Run(). Reports ErrNilCallback for a nil r.
func (s Scope) DeferRun(r Runnable) error {
	if r == nil {
		return ErrNilCallback
	}
	s.state.push(&node{kind: kindRunnable, run: r})
	return nil
}

// DeferClose schedules c.Close(); its error, if any, surfaces through the
// aggregation of the draining RecycleBin. Reports ErrNilCallback for a
// nil c.
func (s Scope) DeferClose(c io.Closer) error {
	if c == nil {
		return ErrNilCallback
	}
	s.state.push(&node{kind: kindCloser, clo: c})
	return nil
}

// Release removes the participant count this Scope holds. It never
// panics. Releasing twice corrupts the counters; releasing the zero
// Scope does nothing.
func (s Scope) Release() {
	if s.state == nil {
		return
	}
	s.state.entries[s.index].counter.Add(-1)
}
