package judge

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsSubmittedJobs(t *testing.T) {
	pool := NewPool(PoolOptions{Workers: 2, QueueDepth: 8}, zerolog.Nop())

	var executed atomic.Int64
	run := func(_ context.Context, req Request) Result {
		executed.Add(1)
		return Result{Score: 42}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx, run)
	defer pool.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		priority := i%2 == 0
		go func() {
			defer wg.Done()
			res, err := pool.Submit(context.Background(), Request{Priority: priority}, run)
			assert.NoError(t, err)
			assert.Equal(t, 42, res.Score)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(20), executed.Load())
}

func TestSubmitHonorsCallerCancellation(t *testing.T) {
	// No workers started: the queue never drains.
	pool := NewPool(PoolOptions{Workers: 1, QueueDepth: 1}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	run := func(_ context.Context, _ Request) Result { return Result{} }

	// First job fills the queue, second blocks until the context expires.
	_, _ = pool.Submit(ctx, Request{}, run)
	_, err := pool.Submit(ctx, Request{}, run)
	require.Error(t, err)
}

func TestStandardJobsNotStarved(t *testing.T) {
	pool := NewPool(PoolOptions{Workers: 1, PriorityBurst: 2, QueueDepth: 64}, zerolog.Nop())

	release := make(chan struct{})
	var order []bool
	var mu sync.Mutex
	run := func(_ context.Context, req Request) Result {
		<-release
		mu.Lock()
		order = append(order, req.Priority)
		mu.Unlock()
		return Result{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx, run)
	defer pool.Stop()

	var wg sync.WaitGroup
	submit := func(priority bool) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = pool.Submit(context.Background(), Request{Priority: priority}, run)
		}()
	}

	submit(false)
	for i := 0; i < 10; i++ {
		submit(true)
	}
	// Let everything enqueue before the single worker starts draining.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 11)

	// The standard job must run before the whole priority backlog drains.
	standardPos := -1
	for i, priority := range order {
		if !priority {
			standardPos = i
			break
		}
	}
	require.NotEqual(t, -1, standardPos)
	assert.Less(t, standardPos, len(order)-1, "standard job should not run last")
}
