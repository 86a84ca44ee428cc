package workpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterBoundsConcurrency(t *testing.T) {
	l := NewLimiter(2)
	var inFlight, peak atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		require.NoError(t, l.Acquire(context.Background()))
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer l.Release()
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inFlight.Add(-1)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestLimiterAcquireHonoursContext(t *testing.T) {
	l := NewLimiter(1)
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Acquire(ctx), context.DeadlineExceeded)

	l.Release()
	cancelled, stop := context.WithCancel(context.Background())
	stop()
	assert.ErrorIs(t, l.Acquire(cancelled), context.Canceled)
}

func TestNewLimiterClampsCapacity(t *testing.T) {
	l := NewLimiter(0)
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Acquire(ctx))
}
