// Package epoch implements epoch-based reclamation (EBR) for lock-free
// data structures.
//
// EBR lets many goroutines traverse shared data without per-node locks or
// reference counting: destructive clean-ups are deferred, and invoked only
// once no participant can still be observing the state they destroy.
//
// The algorithm rotates a ring of exactly three epoch buckets. While the
// global epoch is E, participants entering the State are counted into
// bucket E and deferred callbacks accumulate on bucket E's stack. The
// global epoch advances from E to E.next only when both neighbouring
// buckets hold zero participants; a successful advance detaches the
// rotated-out bucket's callbacks, which by then are two rotations old and
// provably unobservable.
//
// Three buckets are sufficient because a participant only ever counts
// itself into the epoch it observed on entry, and advancement requires
// both neighbours empty: a callback deferred in epoch E cannot run before
// the global epoch has rotated past E.next.
//
// Typical use:
//
//	var shared atomic.Pointer[nodeT]
//	state := epoch.New()
//
//	// Reader:
//	scope := state.Enter()
//	n := shared.Load() // safe to dereference while the scope is held
//	...
//	scope.Release()
//
//	// Writer, after unlinking old:
//	scope, bin := state.EnterCollect(false)
//	scope.Defer(func() { recycle(old) })
//	scope.Release()
//	bin.Clean(false) // invoke whatever became reclaimable
//
// Entry and exit are wait-free; only reclamation attempts loop, and then
// only for a single CAS. A State is an independent instance, not a
// process-wide singleton: unrelated data structures should use unrelated
// States so their reclamation traffic does not interfere.
package epoch

import (
	"errors"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// ErrActiveParticipants is reported by UnsafeClean when at least one Scope
// is still counted into an epoch bucket.
var ErrActiveParticipants = errors.New("epoch: active participants present")

// entry is one of the three rotating epoch buckets.
//
// prev and next hold the ring indices as data rather than computing them
// on each use: the advance path is then a straight-line sequence of loads.
// The padding keeps each bucket's counter and stack head on their own
// cache line so participant traffic in one epoch does not false-share
// with its neighbours.
type entry struct {
	prev    uint32
	next    uint32
	counter atomic.Int64
	top     atomic.Pointer[node]
	_       cpu.CacheLinePad
}

// State is an epoch-based reclamation manager.
//
// A State must not be copied after first use. Create instances with New;
// the zero State has an uninitialized ring.
type State struct {
	global  atomic.Uint32
	entries [3]entry
}

// New creates an initialized State with the three-bucket ring wired as a
// cycle: entries[i].next = (i+1) mod 3, entries[i].prev = (i+2) mod 3.
func New() *State {
	s := &State{}
	for i := uint32(0); i < 3; i++ {
		s.entries[i].next = (i + 1) % 3
		s.entries[i].prev = (i + 2) % 3
	}
	return s
}

// GlobalEpoch returns the current global epoch index (0, 1, or 2).
// Diagnostic only; the value may rotate immediately after the load.
func (s *State) GlobalEpoch() uint32 {
	return s.global.Load()
}

// Participants returns the participant count of bucket i. Diagnostic only.
func (s *State) Participants(i uint32) int64 {
	return s.entries[i%3].counter.Load()
}

// push adds a callback node to the bucket of the current global epoch.
//
// The global index is sampled once: if an advance races the push, the node
// lands in the bucket that was global at sample time, which delays its
// reclamation by at most one rotation. That slop is accepted — a node must
// only be associated with an epoch no earlier than the deferrer's view.
func (s *State) push(n *node) {
	e := &s.entries[s.global.Load()%3]
	for {
		top := e.top.Load()
		n.next = top
		if e.top.CompareAndSwap(top, n) {
			return
		}
	}
}

// advance attempts a single rotation of the global epoch as observed by a
// participant counted into bucket observed.
//
// The participant's own presence in entries[observed] never blocks the
// attempt: only the two neighbouring counters are sampled. On a successful
// CAS the rotated-out bucket (observed.prev) is detached into the returned
// list. With drainAll, the stale leftovers of the bucket the global index
// just moved to are detached as well — anything found there predates the
// rotation by a full cycle, modulo the same one-rotation slop the Defer
// race already accepts.
//
// Any failure — a live neighbour or a lost CAS — returns an empty list;
// the next participant to attempt reclamation retries the rotation.
func (s *State) advance(observed uint32, drainAll bool) *node {
	e := &s.entries[observed%3]
	if s.entries[e.prev].counter.Load() != 0 || s.entries[e.next].counter.Load() != 0 {
		return nil
	}
	if !s.global.CompareAndSwap(observed, e.next) {
		return nil
	}
	detached := s.entries[e.prev].top.Swap(nil)
	if drainAll {
		if extra := s.entries[e.next].top.Swap(nil); extra != nil {
			detached = concat(detached, extra)
		}
	}
	return detached
}

// UnsafeClean drains all three buckets unconditionally and invokes every
// deferred callback inline.
//
// Precondition: no goroutine is inside any Scope of this State. If any
// bucket still counts a participant the call fails with
// ErrActiveParticipants and nothing is drained. Callback failures follow
// the RecycleBin.Clean aggregation policy. Calling UnsafeClean on an
// empty State is a no-op.
func (s *State) UnsafeClean(stopOnFirstError bool) error {
	for i := range s.entries {
		if s.entries[i].counter.Load() != 0 {
			return ErrActiveParticipants
		}
	}
	var head *node
	for i := range s.entries {
		head = concat(head, s.entries[i].top.Swap(nil))
	}
	return newBin(head).Clean(stopOnFirstError)
}

// concat joins two detached stacks. Invocation order of deferred
// callbacks carries no guarantee, so a simple head-walk splice suffices.
func concat(a, b *node) *node {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	tail := a
	for tail.next != nil {
		tail = tail.next
	}
	tail.next = b
	return a
}
