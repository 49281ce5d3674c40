// Package main implements the synckit-stress CLI tool.
//
// The tool hammers one of the synckit cores with a configurable worker
// pool and then checks the library's documented invariants against the
// observed counters:
//
//	synckit-stress --mode spinlock --workers 16 --duration 2s
//	synckit-stress --mode epoch --workers 8
//	synckit-stress --mode facade --workers 8 --write-pct 30
//
// Exit status is non-zero when an invariant check fails, which makes the
// tool usable as a cheap soak test in CI.
package main

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kolkov/synckit"
	"github.com/kolkov/synckit/epoch"
	"github.com/kolkov/synckit/locks"
	"github.com/kolkov/synckit/spinlock"
)

var (
	mode     = flag.String("mode", "spinlock", "core to stress: spinlock, epoch or facade")
	workers  = flag.Int("workers", 8, "number of concurrent workers")
	duration = flag.Duration("duration", 2*time.Second, "how long to run")
	writePct = flag.Int("write-pct", 10, "percentage of operations that write")
	version  = flag.BoolP("version", "v", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *version {
		info := synckit.GetInfo()
		fmt.Printf("synckit-stress %s (cores: %v)\n", info.Version, info.Primitives)
		return
	}
	if *workers < 1 || *writePct < 0 || *writePct > 100 {
		fmt.Fprintln(os.Stderr, "invalid --workers or --write-pct")
		flag.Usage()
		os.Exit(2)
	}

	var err error
	switch *mode {
	case "spinlock":
		err = stressSpinLock(*workers, *duration, *writePct)
	case "epoch":
		err = stressEpoch(*workers, *duration)
	case "facade":
		err = stressFacade(*workers, *duration, *writePct)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode: %s\n", *mode)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
}

// stressSpinLock interleaves readers, writers and optimistic readers and
// verifies reader accounting, mutual exclusion and version monotonicity.
func stressSpinLock(workers int, d time.Duration, writePct int) error {
	var (
		lock     spinlock.RWSpinLock
		shared   [2]atomic.Uint64 // writers keep both halves equal
		stop     atomic.Bool
		reads    atomic.Int64
		writes   atomic.Int64
		torn     atomic.Int64
		restamps atomic.Int64
	)

	v0 := lock.OptimisticRead().Version()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			rnd := uint64(seed)*2654435761 + 1
			for !stop.Load() {
				rnd = rnd*6364136223846793005 + 1442695040888963407
				switch {
				case int(rnd%100) < writePct:
					lock.Lock()
					shared[0].Add(1)
					shared[1].Add(1)
					lock.Unlock()
					writes.Add(1)
				case rnd%2 == 0:
					st := lock.OptimisticRead()
					a, b := shared[0].Load(), shared[1].Load()
					if lock.Validate(st) {
						if a != b {
							torn.Add(1)
						}
					} else {
						restamps.Add(1)
					}
					reads.Add(1)
				default:
					lock.RLock()
					if shared[0].Load() != shared[1].Load() {
						torn.Add(1)
					}
					lock.RUnlock()
					reads.Add(1)
				}
			}
		}(w)
	}
	time.Sleep(d)
	stop.Store(true)
	wg.Wait()

	fmt.Printf("spinlock: %d reads, %d writes, %d invalidated stamps\n",
		reads.Load(), writes.Load(), restamps.Load())
	if n := torn.Load(); n != 0 {
		return fmt.Errorf("observed %d torn reads under a validated view", n)
	}
	if lock.Readers() != 0 || lock.WriterHeld() {
		return fmt.Errorf("lock not quiescent after workers drained")
	}
	if bumps := lock.OptimisticRead().Version() - v0; int64(bumps) != writes.Load() {
		return fmt.Errorf("write version advanced %d times for %d writes", bumps, writes.Load())
	}
	return nil
}

// stressEpoch has every worker enter scopes, defer reclamations and
// trigger advances, then verifies that all counters return to zero and
// every deferred callback ran exactly once.
func stressEpoch(workers int, d time.Duration) error {
	var (
		state    = epoch.New()
		stop     atomic.Bool
		deferred atomic.Int64
		invoked  atomic.Int64
	)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !stop.Load() {
				scope, bin := state.EnterCollect(false)
				if err := scope.Defer(func() { invoked.Add(1) }); err == nil {
					deferred.Add(1)
				}
				scope.Release()
				_ = bin.Clean(false)
			}
		}()
	}
	time.Sleep(d)
	stop.Store(true)
	wg.Wait()

	for i := uint32(0); i < 3; i++ {
		if n := state.Participants(i); n != 0 {
			return fmt.Errorf("bucket %d still counts %d participants", i, n)
		}
	}
	// Whatever is still parked in the buckets is reclaimable now.
	if err := state.UnsafeClean(false); err != nil {
		return fmt.Errorf("final drain: %w", err)
	}
	fmt.Printf("epoch: %d deferred, %d invoked\n", deferred.Load(), invoked.Load())
	if deferred.Load() != invoked.Load() {
		return fmt.Errorf("%d callbacks deferred but %d invoked",
			deferred.Load(), invoked.Load())
	}
	return nil
}

// stressFacade pushes a mixed reader/writer population through the
// unified Lock values and verifies mutual exclusion of the writer path.
func stressFacade(workers int, d time.Duration, writePct int) error {
	var (
		rw      spinlock.RWSpinLock
		rl      = locks.ForReader(&rw)
		wl      = locks.ForWriter(&rw)
		inside  atomic.Int64
		clashes atomic.Int64
		ops     atomic.Int64
		stop    atomic.Bool
	)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			rnd := uint64(seed)*2654435761 + 1
			for !stop.Load() {
				rnd = rnd*6364136223846793005 + 1442695040888963407
				l := rl
				if int(rnd%100) < writePct {
					l = wl
				}
				h, ok := l.TryAcquireTimeout(10 * time.Millisecond)
				if !ok {
					continue
				}
				if l == wl {
					if inside.Add(1) != 1 {
						clashes.Add(1)
					}
					inside.Add(-1)
				}
				h.Release()
				ops.Add(1)
			}
		}(w)
	}
	time.Sleep(d)
	stop.Store(true)
	wg.Wait()

	fmt.Printf("facade: %d acquisitions\n", ops.Load())
	if n := clashes.Load(); n != 0 {
		return fmt.Errorf("writer exclusion violated %d times", n)
	}
	return nil
}
