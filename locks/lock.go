// Package locks provides a unified, value-shaped facade over the lock
// primitives a program composes: an exclusive monitor (sync.Mutex), the
// reader, writer and upgradeable-reader sides of a spinlock.RWSpinLock,
// and a counting Semaphore.
//
// A Lock is a small comparable value — a pointer to the underlying
// primitive, a one-byte variant discriminant and an ownership flag — so
// heterogeneous locks can travel through one acquire/release contract:
//
//	l := locks.ForWriter(&rw)
//	h := l.Acquire()
//	defer h.Release()
//
// Acquisition returns a Holder, a scoped release token that dispatches
// the correct release for the variant and is idempotent after the first
// Release. The zero Lock is the None variant: every acquire trivially
// succeeds with an empty Holder and every release is a no-op, which makes
// None a useful sentinel where locking is conditional.
//
// Two Locks are equal (==) iff they wrap the same primitive instance with
// the same variant and ownership flag; comparison is pointer identity,
// never structural, and Locks may key maps.
package locks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kolkov/synckit/internal/backoff"
	"github.com/kolkov/synckit/spinlock"
)

// ErrTimeout is reported by timed acquisitions that exceed their deadline.
var ErrTimeout = errors.New("locks: acquisition timed out")

// ErrNilTarget is the panic value of constructors handed a nil primitive.
var ErrNilTarget = errors.New("locks: nil lock target")

// Variant identifies the acquire/release semantics a Lock dispatches to.
type Variant uint8

const (
	// None is the sentinel variant of the zero Lock; acquisition always
	// succeeds with an empty Holder.
	None Variant = iota

	// Monitor wraps a sync.Mutex.
	Monitor

	// Reader wraps the read side of an RWSpinLock.
	Reader

	// Writer wraps the write side of an RWSpinLock.
	Writer

	// UpgradeableReader wraps the read side of an RWSpinLock entered in
	// the upgrade position: the holder may upgrade through the underlying
	// lock while admitted.
	UpgradeableReader

	// CountingSemaphore wraps a Semaphore.
	CountingSemaphore
)

// String returns the variant name for diagnostics.
func (v Variant) String() string {
	switch v {
	case None:
		return "None"
	case Monitor:
		return "Monitor"
	case Reader:
		return "Reader"
	case Writer:
		return "Writer"
	case UpgradeableReader:
		return "UpgradeableReader"
	case CountingSemaphore:
		return "CountingSemaphore"
	default:
		return "Unknown"
	}
}

// Lock is the unified facade value. The zero Lock is the None variant.
//
// A Lock does not own its primitive unless produced by one of the New*
// constructors; Close disposes the primitive only for owners.
type Lock struct {
	target  any
	variant Variant
	owner   bool
}

// ForMutex wraps an existing mutex as a Monitor lock. Panics with
// ErrNilTarget on a nil mutex.
func ForMutex(mu *sync.Mutex) Lock {
	if mu == nil {
		panic(ErrNilTarget)
	}
	return Lock{target: mu, variant: Monitor}
}

// NewMonitor creates a Monitor lock owning a fresh mutex.
func NewMonitor() Lock {
	return Lock{target: new(sync.Mutex), variant: Monitor, owner: true}
}

// ForReader wraps the read side of rw. Panics with ErrNilTarget on nil.
func ForReader(rw *spinlock.RWSpinLock) Lock {
	if rw == nil {
		panic(ErrNilTarget)
	}
	return Lock{target: rw, variant: Reader}
}

// ForWriter wraps the write side of rw. Panics with ErrNilTarget on nil.
func ForWriter(rw *spinlock.RWSpinLock) Lock {
	if rw == nil {
		panic(ErrNilTarget)
	}
	return Lock{target: rw, variant: Writer}
}

// ForUpgradeableReader wraps the upgradeable read side of rw. Panics with
// ErrNilTarget on nil.
func ForUpgradeableReader(rw *spinlock.RWSpinLock) Lock {
	if rw == nil {
		panic(ErrNilTarget)
	}
	return Lock{target: rw, variant: UpgradeableReader}
}

// ForSemaphore wraps an existing semaphore. Panics with ErrNilTarget on
// nil.
func ForSemaphore(s *Semaphore) Lock {
	if s == nil {
		panic(ErrNilTarget)
	}
	return Lock{target: s, variant: CountingSemaphore}
}

// NewSemaphoreLock creates a CountingSemaphore lock owning a fresh
// semaphore admitting count holders. Reports ErrNonPositiveCount for
// count < 1.
func NewSemaphoreLock(count int) (Lock, error) {
	s, err := NewSemaphore(count)
	if err != nil {
		return Lock{}, err
	}
	return Lock{target: s, variant: CountingSemaphore, owner: true}, nil
}

// Variant returns the lock's discriminant.
func (l Lock) Variant() Variant { return l.variant }

// Owned reports whether Close disposes the underlying primitive.
func (l Lock) Owned() bool { return l.owner }

func (l Lock) mutex() *sync.Mutex       { return l.target.(*sync.Mutex) }
func (l Lock) rw() *spinlock.RWSpinLock { return l.target.(*spinlock.RWSpinLock) }
func (l Lock) semaphore() *Semaphore    { return l.target.(*Semaphore) }

// Acquire blocks until the underlying primitive admits the caller and
// returns the Holder releasing it.
//
// For CountingSemaphore the call panics with ErrSemaphoreClosed if the
// semaphore has been closed; use the Try/Timeout/Context forms to observe
// revocation as a value.
func (l Lock) Acquire() Holder {
	switch l.variant {
	case Monitor:
		l.mutex().Lock()
	case Reader, UpgradeableReader:
		l.rw().RLock()
	case Writer:
		l.rw().Lock()
	case CountingSemaphore:
		if err := l.semaphore().Acquire(); err != nil {
			panic(err)
		}
	}
	return l.holder()
}

// TryAcquire attempts acquisition without blocking. On failure the
// returned Holder is empty.
func (l Lock) TryAcquire() (Holder, bool) {
	switch l.variant {
	case None:
		return Holder{}, true
	case Monitor:
		if !l.mutex().TryLock() {
			return Holder{}, false
		}
	case Reader, UpgradeableReader:
		if !l.rw().TryRLock() {
			return Holder{}, false
		}
	case Writer:
		if !l.rw().TryLock() {
			return Holder{}, false
		}
	case CountingSemaphore:
		ok, err := l.semaphore().TryAcquire()
		if err != nil || !ok {
			return Holder{}, false
		}
	}
	return l.holder(), true
}

// AcquireTimeout attempts acquisition within d. On expiry it reports
// ErrTimeout and the returned Holder is empty. A zero or negative d
// checks current availability only.
func (l Lock) AcquireTimeout(d time.Duration) (Holder, error) {
	switch l.variant {
	case None:
		return Holder{}, nil
	case Monitor:
		if !l.lockMutexFor(d) {
			return Holder{}, ErrTimeout
		}
	case Reader, UpgradeableReader:
		if !l.rw().TryRLockFor(d) {
			return Holder{}, ErrTimeout
		}
	case Writer:
		if !l.rw().TryLockFor(d) {
			return Holder{}, ErrTimeout
		}
	case CountingSemaphore:
		if err := l.semaphore().AcquireTimeout(d); err != nil {
			return Holder{}, err
		}
	}
	return l.holder(), nil
}

// TryAcquireTimeout is the non-throwing form of AcquireTimeout: the
// boolean reports success and every failure yields the empty Holder.
func (l Lock) TryAcquireTimeout(d time.Duration) (Holder, bool) {
	h, err := l.AcquireTimeout(d)
	return h, err == nil
}

// AcquireContext blocks until admitted or ctx is done, in which case it
// reports ctx.Err() and the returned Holder is empty.
func (l Lock) AcquireContext(ctx context.Context) (Holder, error) {
	switch l.variant {
	case None:
		return Holder{}, nil
	case Monitor:
		if err := l.lockMutexContext(ctx); err != nil {
			return Holder{}, err
		}
	case Reader, UpgradeableReader:
		if err := l.rw().RLockContext(ctx); err != nil {
			return Holder{}, err
		}
	case Writer:
		if err := l.rw().LockContext(ctx); err != nil {
			return Holder{}, err
		}
	case CountingSemaphore:
		if err := l.semaphore().AcquireContext(ctx); err != nil {
			return Holder{}, err
		}
	}
	return l.holder(), nil
}

// lockMutexFor polls TryLock with progressive backoff until d elapses.
// sync.Mutex offers no native timed wait, so the facade spins the same
// policy the spin lock uses.
func (l Lock) lockMutexFor(d time.Duration) bool {
	mu := l.mutex()
	deadline := time.Now().Add(d)
	var b backoff.Backoff
	for {
		if mu.TryLock() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		b.Spin()
	}
}

// lockMutexContext polls TryLock with progressive backoff until ctx is
// done.
func (l Lock) lockMutexContext(ctx context.Context) error {
	mu := l.mutex()
	var b backoff.Backoff
	for {
		if mu.TryLock() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		b.Spin()
	}
}

// holder builds the release token for a successful acquisition.
func (l Lock) holder() Holder {
	if l.variant == None {
		return Holder{}
	}
	return Holder{target: l.target, variant: l.variant}
}

// Close disposes the underlying primitive iff this Lock owns it; for
// non-owners and for variants whose primitive needs no disposal it is a
// no-op. Only an owned semaphore has teardown: its waiters unblock and
// later acquires fail with ErrSemaphoreClosed.
func (l Lock) Close() error {
	if !l.owner {
		return nil
	}
	if s, ok := l.target.(*Semaphore); ok {
		return s.Close()
	}
	return nil
}
