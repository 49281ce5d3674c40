// Package synckit is a library of low-level, intra-process thread
// synchronization primitives built on CAS loops, atomic counters and
// bounded spin-waiting.
//
// # Packages
//
// The primitives live in three peer packages:
//
//   - [github.com/kolkov/synckit/epoch] — epoch-based reclamation: a
//     three-bucket rotating epoch ring that lets goroutines traverse
//     shared structures lock-free and defers destructive clean-ups until
//     no participant can still observe the reclaimed state.
//   - [github.com/kolkov/synckit/spinlock] — a reader-writer spin lock
//     packing its state into one 32-bit word, with a write-version
//     counter backing optimistic-read stamps.
//   - [github.com/kolkov/synckit/locks] — a value-shaped facade unifying
//     monitor, reader, writer, upgradeable-reader and counting-semaphore
//     locks behind one acquire/release contract with scoped Holders.
//
// # Quick start
//
//	rw := new(spinlock.RWSpinLock)
//
//	// Pessimistic read:
//	rw.RLock()
//	v := shared
//	rw.RUnlock()
//
//	// Optimistic read:
//	st := rw.OptimisticRead()
//	v = shared
//	if !rw.Validate(st) {
//		rw.RLock() // a writer intervened; fall back
//		v = shared
//		rw.RUnlock()
//	}
//
// # Execution model
//
// Everything assumes parallel kernel threads scheduled by the Go runtime.
// There are no cooperative suspension points: acquisitions either complete
// immediately or busy-wait with progressive backoff (bounded spinning,
// then yielding, then sleeping). Epoch entry and exit are wait-free.
// Timed and context-taking variants poll their deadline or cancellation at
// every iteration and never leave partial lock state behind.
//
// All primitives are strictly intra-process and carry no fairness
// guarantees beyond those documented on each operation.
package synckit
