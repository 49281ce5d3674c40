// Package spinlock implements a cache-friendly reader-writer spin lock
// with optimistic-read stamping.
//
// The lock packs its entire mutual-exclusion state into a single 32-bit
// word so every acquire is a CAS on it and every release is one atomic
// add (readers) or one plain store (writer):
//
//	state == 0            unlocked
//	state == n, n > 0     n active readers
//	state == math.MinInt32   writer held
//
// A second 32-bit word, version, is incremented on every transition into
// the writer regime and never decremented. Readers that only need a
// consistent view of protected data can skip acquisition entirely:
// OptimisticRead samples the version, the caller reads the data, and
// Validate confirms that no writer intervened. Reader traffic never
// invalidates a stamp — readers do not mutate protected state.
//
// The lock is not reentrant and grants no fairness: a continuously
// contended writer can be starved by readers and vice versa. All acquire
// loops use a bounded spin that escalates to yielding and then sleeping,
// so a blocked acquirer does not burn a core indefinitely on
// over-subscribed machines.
//
// The zero RWSpinLock is unlocked and ready to use. An RWSpinLock must
// not be copied after first use.
package spinlock

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/sys/cpu"

	"github.com/kolkov/synckit/internal/backoff"
)

// writerState is the sentinel stored in state while a writer holds the lock.
const writerState = math.MinInt32

// maxReaders is the largest representable reader count.
const maxReaders = math.MaxInt32

// ErrTooManyReaders is reported when a read acquisition would overflow the
// reader counter. Unreachable under sane workloads, but checked rather than
// silently wrapping the count into the writer regime.
var ErrTooManyReaders = errors.New("spinlock: reader count overflow")

// RWSpinLock is a busy-waiting reader-writer lock with a write-version
// counter for optimistic reads.
//
// The two hot words are padded onto their own cache line so an RWSpinLock
// embedded next to the data it protects does not false-share with it.
type RWSpinLock struct {
	state   atomic.Int32
	version atomic.Uint32
	_       cpu.CacheLinePad
}

// Stamp is an immutable snapshot of the lock's write version, taken by
// OptimisticRead. The zero Stamp is invalid.
type Stamp struct {
	version uint32
	valid   bool
}

// Valid reports whether the stamp was captured while no writer held the
// lock. An invalid stamp never validates.
func (s Stamp) Valid() bool { return s.valid }

// Version returns the write version captured by the stamp. Meaningful only
// for valid stamps.
func (s Stamp) Version() uint32 { return s.version }

// tryRLock attempts a single reader acquisition.
//
// Returns (true, nil) on success, (false, nil) when a writer holds the
// lock, and (false, ErrTooManyReaders) at counter saturation.
func (l *RWSpinLock) tryRLock() (bool, error) {
	for {
		s := l.state.Load()
		if s == writerState {
			return false, nil
		}
		if s == maxReaders {
			return false, ErrTooManyReaders
		}
		if l.state.CompareAndSwap(s, s+1) {
			return true, nil
		}
	}
}

// RLock acquires the lock for reading, spinning until no writer holds it.
// Multiple readers hold the lock simultaneously.
//
// Panics with ErrTooManyReaders if the reader count would overflow.
func (l *RWSpinLock) RLock() {
	var b backoff.Backoff
	for {
		ok, err := l.tryRLock()
		if err != nil {
			panic(err)
		}
		if ok {
			return
		}
		b.Spin()
	}
}

// TryRLock attempts to acquire the lock for reading without spinning.
//
// Panics with ErrTooManyReaders if the reader count would overflow;
// false means writer contention, never a masked overflow.
func (l *RWSpinLock) TryRLock() bool {
	ok, err := l.tryRLock()
	if err != nil {
		panic(err)
	}
	return ok
}

// TryRLockFor acquires the lock for reading, giving up after d.
// A zero or negative duration makes a single attempt.
func (l *RWSpinLock) TryRLockFor(d time.Duration) bool {
	deadline := time.Now().Add(d)
	var b backoff.Backoff
	for {
		ok, err := l.tryRLock()
		if err != nil {
			panic(err)
		}
		if ok {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		b.Spin()
	}
}

// RLockContext acquires the lock for reading, polling ctx at every
// iteration. Returns ctx.Err() if cancelled, ErrTooManyReaders on counter
// saturation; the lock state is untouched on failure.
func (l *RWSpinLock) RLockContext(ctx context.Context) error {
	var b backoff.Backoff
	for {
		ok, err := l.tryRLock()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		b.Spin()
	}
}

// RUnlock releases one reader hold.
//
// Calling RUnlock without a matching RLock is undefined behaviour: no
// runtime check guards the decrement.
func (l *RWSpinLock) RUnlock() {
	l.state.Add(-1)
}

// tryLock attempts a single writer acquisition, bumping the version on
// success.
func (l *RWSpinLock) tryLock() bool {
	if l.state.CompareAndSwap(0, writerState) {
		l.version.Add(1)
		return true
	}
	return false
}

// Lock acquires the lock for writing, spinning until it is unlocked.
func (l *RWSpinLock) Lock() {
	var b backoff.Backoff
	for !l.tryLock() {
		b.Spin()
	}
}

// TryLock attempts to acquire the lock for writing without spinning.
func (l *RWSpinLock) TryLock() bool {
	return l.tryLock()
}

// TryLockFor acquires the lock for writing, giving up after d.
// A zero or negative duration makes a single attempt.
func (l *RWSpinLock) TryLockFor(d time.Duration) bool {
	deadline := time.Now().Add(d)
	var b backoff.Backoff
	for {
		if l.tryLock() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		b.Spin()
	}
}

// LockContext acquires the lock for writing, polling ctx at every
// iteration. Returns ctx.Err() if cancelled; the lock state is untouched
// on failure.
func (l *RWSpinLock) LockContext(ctx context.Context) error {
	var b backoff.Backoff
	for {
		if l.tryLock() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		b.Spin()
	}
}

// Unlock releases the writer hold. A plain store suffices: the writer is
// the sole owner, so no other mutation can race the transition to
// unlocked.
func (l *RWSpinLock) Unlock() {
	l.state.Store(0)
}

// tryUpgrade attempts a single reader-to-writer upgrade.
func (l *RWSpinLock) tryUpgrade() bool {
	if l.state.CompareAndSwap(1, writerState) {
		l.version.Add(1)
		return true
	}
	return false
}

// Upgrade converts a read hold into the write hold, spinning until the
// caller is the only reader left.
//
// The caller must hold exactly one read count; upgrading while other
// readers are active simply waits for them to drain. Two goroutines
// upgrading the same lock concurrently deadlock, as each waits for the
// other's read count — use TryUpgrade or UpgradeContext when that can
// happen.
func (l *RWSpinLock) Upgrade() {
	var b backoff.Backoff
	for !l.tryUpgrade() {
		b.Spin()
	}
}

// TryUpgrade attempts the reader-to-writer upgrade without spinning.
// It succeeds only when the caller's read count is the sole hold.
func (l *RWSpinLock) TryUpgrade() bool {
	return l.tryUpgrade()
}

// TryUpgradeFor upgrades to the write hold, giving up after d.
// A zero or negative duration makes a single attempt.
func (l *RWSpinLock) TryUpgradeFor(d time.Duration) bool {
	deadline := time.Now().Add(d)
	var b backoff.Backoff
	for {
		if l.tryUpgrade() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		b.Spin()
	}
}

// UpgradeContext upgrades to the write hold, polling ctx at every
// iteration. Returns ctx.Err() if cancelled; the caller's read hold is
// untouched on failure.
func (l *RWSpinLock) UpgradeContext(ctx context.Context) error {
	var b backoff.Backoff
	for {
		if l.tryUpgrade() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		b.Spin()
	}
}

// Downgrade converts the write hold into a single read hold. Like Unlock,
// a plain store suffices.
func (l *RWSpinLock) Downgrade() {
	l.state.Store(1)
}

// OptimisticRead captures a stamp of the current write version.
//
// If a writer holds the lock at sample time the stamp is invalid and will
// never validate. Otherwise the caller may read the protected data and
// then confirm via Validate that no writer intervened.
//
// The version is loaded before the state so a writer that enters between
// the two loads invalidates the stamp either way: it either flips the
// state (invalid now) or bumps the version (fails Validate later).
func (l *RWSpinLock) OptimisticRead() Stamp {
	v := l.version.Load()
	if l.state.Load() == writerState {
		return Stamp{}
	}
	return Stamp{version: v, valid: true}
}

// Validate reports whether no writer has entered the lock since the stamp
// was captured. Invalid stamps never validate. Reader activity does not
// affect the outcome.
func (l *RWSpinLock) Validate(s Stamp) bool {
	return s.valid && l.version.Load() == s.version
}

// Readers returns the instantaneous reader count, or 0 when unlocked or
// writer-held. Intended for diagnostics and tests; the value may be stale
// by the time the caller observes it.
func (l *RWSpinLock) Readers() int32 {
	if s := l.state.Load(); s > 0 {
		return s
	}
	return 0
}

// WriterHeld reports whether a writer currently holds the lock.
// Diagnostic only; inherently racy.
func (l *RWSpinLock) WriterHeld() bool {
	return l.state.Load() == writerState
}
