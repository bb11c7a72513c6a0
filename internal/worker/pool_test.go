package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool_ClampsSize(t *testing.T) {
	assert.Equal(t, 1, NewPool(0).Size())
	assert.Equal(t, 1, NewPool(-3).Size())
	assert.Equal(t, 8, NewPool(8).Size())
}

func TestPool_BoundsConcurrency(t *testing.T) {
	pool := NewPool(3)

	var active, peak int64
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pool.Submit(context.Background(), func() {
				n := atomic.AddInt64(&active, 1)
				for {
					p := atomic.LoadInt64(&peak)
					if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt64(&active, -1)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(3))
}

func TestPool_SubmitBlocksUntilCompletion(t *testing.T) {
	pool := NewPool(1)

	var finished atomic.Bool
	err := pool.Submit(context.Background(), func() {
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
	})
	require.NoError(t, err)
	assert.True(t, finished.Load(), "a nil return guarantees the task ran to completion")
}

func TestPool_CancelledWhileWaitingForSlot(t *testing.T) {
	pool := NewPool(1)

	release := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = pool.Submit(context.Background(), func() {
			close(started)
			<-release
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := pool.Submit(ctx, func() {
		t.Error("task must not run when the submitter's context is already cancelled")
	})
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	wg.Wait()
}

func TestPool_CancelledWhileRunning(t *testing.T) {
	pool := NewPool(1)

	release := make(chan struct{})
	started := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	err := pool.Submit(ctx, func() {
		close(started)
		<-release
	})
	assert.ErrorIs(t, err, context.Canceled, "the caller is released even though the task is still running")

	// The abandoned task finishes and frees its slot for the next submitter.
	close(release)
	require.NoError(t, pool.Submit(context.Background(), func() {}))
}
