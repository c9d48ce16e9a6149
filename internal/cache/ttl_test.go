package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetOrCompute_CachesUntilExpiry(t *testing.T) {
	c := New[int]("test", 8, 50*time.Millisecond, nil)
	var calls atomic.Int32
	compute := func(context.Context) (int, error) {
		calls.Add(1)
		return 42, nil
	}

	v, err := c.GetOrCompute(context.Background(), "k", compute)
	require.NoError(t, err)
	require.Equal(t, 42, v)

	v, err = c.GetOrCompute(context.Background(), "k", compute)
	require.NoError(t, err)
	require.Equal(t, 42, v)
	require.Equal(t, int32(1), calls.Load())

	time.Sleep(80 * time.Millisecond)

	_, err = c.GetOrCompute(context.Background(), "k", compute)
	require.NoError(t, err)
	require.Equal(t, int32(2), calls.Load())
}

func TestGetOrCompute_ConcurrentMissesComputeOnce(t *testing.T) {
	c := New[string]("test", 8, time.Minute, nil)
	var calls atomic.Int32
	release := make(chan struct{})

	compute := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "value", nil
	}

	const workers = 16
	var wg sync.WaitGroup
	results := make([]string, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = c.GetOrCompute(context.Background(), "shared", compute)
		}()
	}

	// Give every worker time to reach the flight before releasing it.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
	for i := range results {
		require.NoError(t, errs[i])
		require.Equal(t, "value", results[i])
	}
}

func TestGetOrCompute_ErrorsAreNotCached(t *testing.T) {
	c := New[int]("test", 8, time.Minute, nil)
	var calls atomic.Int32

	failing := func(context.Context) (int, error) {
		calls.Add(1)
		return 0, context.DeadlineExceeded
	}
	_, err := c.GetOrCompute(context.Background(), "k", failing)
	require.Error(t, err)

	v, err := c.GetOrCompute(context.Background(), "k", func(context.Context) (int, error) {
		calls.Add(1)
		return 7, nil
	})
	require.NoError(t, err)
	require.Equal(t, 7, v)
	require.Equal(t, int32(2), calls.Load())
}

func TestPurge_DropsEntries(t *testing.T) {
	c := New[int]("test", 8, time.Minute, nil)
	_, err := c.GetOrCompute(context.Background(), "k", func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	c.Purge()
	require.Equal(t, 0, c.Len())
}
