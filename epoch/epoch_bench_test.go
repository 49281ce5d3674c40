package epoch

import (
	"sync/atomic"
	"testing"
)

// BenchmarkEnterRelease measures the wait-free entry/exit pair.
func BenchmarkEnterRelease(b *testing.B) {
	s := New()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		scope := s.Enter()
		scope.Release()
	}
}

// BenchmarkEnterReleaseParallel measures entry/exit under contention on
// the shared bucket counter.
func BenchmarkEnterReleaseParallel(b *testing.B) {
	s := New()
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			scope := s.Enter()
			scope.Release()
		}
	})
}

// BenchmarkDefer measures the CAS push of a deferred callback node.
func BenchmarkDefer(b *testing.B) {
	s := New()
	scope := s.Enter()
	defer scope.Release()
	var sink atomic.Int64
	f := func() { sink.Add(1) }
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = scope.Defer(f)
	}
	b.StopTimer()
	_ = s.UnsafeClean(false)
}

// BenchmarkCollectCycle measures a full defer/advance/clean cycle.
func BenchmarkCollectCycle(b *testing.B) {
	s := New()
	var sink atomic.Int64
	f := func() { sink.Add(1) }
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		scope, bin := s.EnterCollect(false)
		_ = scope.Defer(f)
		scope.Release()
		_ = bin.Clean(false)
	}
	_ = s.UnsafeClean(false)
}
