package locks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemaphoreAcquireRelease(t *testing.T) {
	s, err := NewSemaphore(3)
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Acquire())
	}
	ok, err := s.TryAcquire()
	require.NoError(t, err)
	assert.False(t, ok)

	s.Release()
	ok, err = s.TryAcquire()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSemaphoreBlocksUntilReleased(t *testing.T) {
	s, err := NewSemaphore(1)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Acquire())

	acquired := make(chan struct{})
	go func() {
		defer close(acquired)
		if err := s.Acquire(); err != nil {
			t.Error(err)
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while permit was out")
	case <-time.After(20 * time.Millisecond):
	}

	s.Release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never admitted after release")
	}
	s.Release()
}

func TestSemaphoreCloseReleasesWaiters(t *testing.T) {
	s, err := NewSemaphore(1)
	require.NoError(t, err)
	require.NoError(t, s.Acquire())

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Acquire()
		}()
	}

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.Close())
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.ErrorIs(t, err, ErrSemaphoreClosed)
	}
	assert.ErrorIs(t, s.Acquire(), ErrSemaphoreClosed)
}

func TestSemaphoreAcquireContext(t *testing.T) {
	s, err := NewSemaphore(1)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.AcquireContext(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.AcquireContext(ctx), context.DeadlineExceeded)

	s.Release()
	require.NoError(t, s.AcquireContext(context.Background()))
	s.Release()
}

func TestSemaphoreOverRelease(t *testing.T) {
	s, err := NewSemaphore(1)
	require.NoError(t, err)
	defer s.Close()

	// The excess permit is dropped rather than growing the count.
	s.Release()
	s.Release()

	require.NoError(t, s.Acquire())
	ok, err := s.TryAcquire()
	require.NoError(t, err)
	assert.False(t, ok, "count must not exceed the construction limit")
	s.Release()
}
