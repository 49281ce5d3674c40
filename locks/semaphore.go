package locks

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrNonPositiveCount is reported by NewSemaphore for a count < 1.
	ErrNonPositiveCount = errors.New("locks: semaphore count must be positive")

	// ErrSemaphoreClosed is reported by acquisition attempts on a closed
	// Semaphore.
	ErrSemaphoreClosed = errors.New("locks: semaphore is closed")
)

// Semaphore is a counting semaphore over a buffered channel of permits.
//
// The channel doubles as the wait queue: an acquire receives a permit, a
// release returns it, and the runtime's channel scheduling provides the
// blocking and wake-up. Close revokes the semaphore — waiters are released
// and every subsequent acquire fails with ErrSemaphoreClosed.
type Semaphore struct {
	permits chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewSemaphore creates a semaphore admitting up to count concurrent
// holders. Reports ErrNonPositiveCount for count < 1.
func NewSemaphore(count int) (*Semaphore, error) {
	if count < 1 {
		return nil, ErrNonPositiveCount
	}
	s := &Semaphore{
		permits: make(chan struct{}, count),
		done:    make(chan struct{}),
	}
	for i := 0; i < count; i++ {
		s.permits <- struct{}{}
	}
	return s, nil
}

// Acquire takes one permit, blocking until one is available.
// Fails with ErrSemaphoreClosed once Close has been called.
func (s *Semaphore) Acquire() error {
	select {
	case <-s.done:
		return ErrSemaphoreClosed
	default:
	}
	select {
	case <-s.permits:
		return nil
	case <-s.done:
		return ErrSemaphoreClosed
	}
}

// TryAcquire takes a permit only if one is immediately available.
func (s *Semaphore) TryAcquire() (bool, error) {
	select {
	case <-s.done:
		return false, ErrSemaphoreClosed
	default:
	}
	select {
	case <-s.permits:
		return true, nil
	default:
		return false, nil
	}
}

// AcquireTimeout takes a permit, giving up after d. A zero or negative
// duration degrades to TryAcquire. Returns ErrTimeout on expiry.
func (s *Semaphore) AcquireTimeout(d time.Duration) error {
	if d <= 0 {
		ok, err := s.TryAcquire()
		if err != nil {
			return err
		}
		if !ok {
			return ErrTimeout
		}
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-s.done:
		return ErrSemaphoreClosed
	default:
	}
	select {
	case <-s.permits:
		return nil
	case <-s.done:
		return ErrSemaphoreClosed
	case <-t.C:
		return ErrTimeout
	}
}

// AcquireContext takes a permit, honouring ctx cancellation.
func (s *Semaphore) AcquireContext(ctx context.Context) error {
	select {
	case <-s.done:
		return ErrSemaphoreClosed
	default:
	}
	select {
	case <-s.permits:
		return nil
	case <-s.done:
		return ErrSemaphoreClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns one permit. Releasing more permits than were acquired
// is undefined behaviour; the excess permit is dropped silently when the
// channel is full.
func (s *Semaphore) Release() {
	select {
	case s.permits <- struct{}{}:
	default:
	}
}

// Close revokes the semaphore. Waiters unblock with ErrSemaphoreClosed
// and later acquires fail the same way. Close is idempotent; releases
// after Close are harmless no-ops.
func (s *Semaphore) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
