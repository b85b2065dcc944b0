package utils

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(3, 0)

	var running, peak, done int64
	for i := 0; i < 20; i++ {
		pool.Submit(func() {
			n := atomic.AddInt64(&running, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt64(&running, -1)
			atomic.AddInt64(&done, 1)
		})
	}
	pool.Wait()

	assert.EqualValues(t, 20, done)
	assert.LessOrEqual(t, peak, int64(3))
}

func TestWorkerPoolMinimumSize(t *testing.T) {
	assert.Equal(t, 1, NewWorkerPool(0, 0).Size())
}

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimitMs := 50
	pool := NewWorkerPool(1, rateLimitMs)

	var mu sync.Mutex
	var timestamps []time.Time

	for i := 0; i < 3; i++ {
		pool.Submit(func() {
			mu.Lock()
			timestamps = append(timestamps, time.Now())
			mu.Unlock()
		})
	}
	pool.Wait()

	// Timestamps are taken inside the job, slightly after the spaced start.
	min := time.Duration(rateLimitMs)*time.Millisecond - 5*time.Millisecond
	for i := 1; i < len(timestamps); i++ {
		assert.GreaterOrEqual(t, timestamps[i].Sub(timestamps[i-1]), min, "gap between job %d and %d", i-1, i)
	}
}
