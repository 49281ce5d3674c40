// Package backoff implements the progressive spin-wait policy shared by
// every acquire loop in synckit.
//
// The policy escalates in three stages:
//
//  1. Busy spinning for a small, bounded number of iterations. This keeps
//     the waiter on-CPU when the owner is about to release (the common case
//     under low contention).
//  2. Yielding the processor via runtime.Gosched(). The goroutine stays
//     runnable but lets others make progress.
//  3. Sleeping with exponentially growing durations, starting at 50µs and
//     capped at 500ms. This bounds CPU burn on over-subscribed machines
//     where the owner may not be scheduled for a while.
//
// The stage thresholds and sleep constants are deliberately conservative;
// callers that need a different policy should spin their own loop.
package backoff

import (
	"runtime"
	"time"
)

const (
	// spinLimit is the number of busy iterations before yielding.
	spinLimit = 16

	// yieldLimit is the attempt count at which yielding gives way to
	// sleeping: attempts spinLimit through yieldLimit-1 call Gosched.
	yieldLimit = 32

	startingSleep = 50 * time.Microsecond
	maxSleep      = 500 * time.Millisecond
	sleepFactor   = 2
)

// Backoff tracks the escalation state of one acquire loop.
//
// The zero value is ready to use. A Backoff must not be shared between
// goroutines.
type Backoff struct {
	attempt int
	sleep   time.Duration
}

// Spin performs one wait step and escalates the policy for the next call.
func (b *Backoff) Spin() {
	switch {
	case b.attempt < spinLimit:
		// Stage 1: stay hot. The loop body is intentionally empty; the
		// caller's next atomic load provides the necessary freshness.
		for i := 0; i < 1<<uint(b.attempt%8); i++ {
			_ = i
		}
	case b.attempt < yieldLimit:
		runtime.Gosched()
	default:
		if b.sleep == 0 {
			b.sleep = startingSleep
		}
		time.Sleep(b.sleep)
		b.sleep *= sleepFactor
		if b.sleep > maxSleep {
			b.sleep = maxSleep
		}
	}
	b.attempt++
}

// Reset returns the Backoff to its initial stage, so a reused Backoff
// does not start a fresh wait in the sleeping stage.
func (b *Backoff) Reset() {
	b.attempt = 0
	b.sleep = 0
}
