package synckit_test

import (
	"fmt"
	"sync/atomic"

	"github.com/kolkov/synckit/epoch"
	"github.com/kolkov/synckit/locks"
	"github.com/kolkov/synckit/spinlock"
)

// Example demonstrates the reader-writer spin lock with an optimistic
// read falling back to a pessimistic one.
func Example() {
	var (
		lock   spinlock.RWSpinLock
		shared int
	)

	lock.Lock()
	shared = 42
	lock.Unlock()

	st := lock.OptimisticRead()
	v := shared
	if !lock.Validate(st) {
		lock.RLock()
		v = shared
		lock.RUnlock()
	}
	fmt.Println(v)

	// Output:
	// 42
}

// Example_epoch demonstrates deferring a clean-up and draining it once
// the epoch ring has rotated past every possible observer.
func Example_epoch() {
	state := epoch.New()
	var reclaimed atomic.Int32

	scope := state.Enter()
	scope.Defer(func() { reclaimed.Add(1) })
	scope.Release()

	// Two successful advances make the callback reclaimable.
	for i := 0; i < 2; i++ {
		s, bin := state.EnterCollect(false)
		s.Release()
		bin.Clean(false)
	}

	fmt.Println("reclaimed:", reclaimed.Load())

	// Output:
	// reclaimed: 1
}

// Example_lockFacade demonstrates heterogeneous locks behind the unified
// facade with scoped holders.
func Example_lockFacade() {
	var rw spinlock.RWSpinLock

	guards := []locks.Lock{
		locks.NewMonitor(),
		locks.ForWriter(&rw),
		{}, // the None sentinel: locking disabled
	}

	for _, l := range guards {
		h := l.Acquire()
		fmt.Println("holding:", l.Variant())
		h.Release()
	}

	// Output:
	// holding: Monitor
	// holding: Writer
	// holding: None
}
