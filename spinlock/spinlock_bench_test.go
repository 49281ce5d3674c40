package spinlock

import (
	"sync"
	"testing"
)

// Benchmarks mirror the reader/writer workload mixes of the sibling lock
// packages: uncontended paths first, then parallel mixes.

func BenchmarkRLockRUnlock(b *testing.B) {
	var l RWSpinLock
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		l.RLock()
		l.RUnlock()
	}
}

func BenchmarkLockUnlock(b *testing.B) {
	var l RWSpinLock
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		l.Lock()
		l.Unlock()
	}
}

func BenchmarkOptimisticRead(b *testing.B) {
	var l RWSpinLock
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		st := l.OptimisticRead()
		if !l.Validate(st) {
			b.Fatal("uncontended stamp failed to validate")
		}
	}
}

func BenchmarkParallelReaders(b *testing.B) {
	var l RWSpinLock
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			l.RLock()
			l.RUnlock()
		}
	})
}

// BenchmarkReadMostly runs a 95/5 read/write mix, the workload the
// optimistic-read path is designed for.
func BenchmarkReadMostly(b *testing.B) {
	var (
		l      RWSpinLock
		shared uint64
	)
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i%20 == 0 {
				l.Lock()
				shared++
				l.Unlock()
			} else {
				l.RLock()
				_ = shared
				l.RUnlock()
			}
			i++
		}
	})
}

// BenchmarkRWMutexBaseline provides the stdlib comparison point for the
// same read-mostly mix.
func BenchmarkRWMutexBaseline(b *testing.B) {
	var (
		l      sync.RWMutex
		shared uint64
	)
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i%20 == 0 {
				l.Lock()
				shared++
				l.Unlock()
			} else {
				l.RLock()
				_ = shared
				l.RUnlock()
			}
			i++
		}
	})
}
