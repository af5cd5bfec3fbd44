package locker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_ExcludesOverlappingKeys(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	var (
		inside  atomic.Int32
		overlap atomic.Bool
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			keys := []string{"lot:a", "lot:b"}
			if i%2 == 0 {
				keys = []string{"lot:b", "lot:a"}
			}
			unlock, err := l.Lock(ctx, keys...)
			if !assert.NoError(t, err) {
				return
			}
			if inside.Add(1) > 1 {
				overlap.Store(true)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}(i)
	}
	wg.Wait()

	assert.False(t, overlap.Load())
	assert.Zero(t, l.size())
}

func TestMemoryLocker_DisjointKeysDoNotBlock(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	unlockA, err := l.Lock(ctx, "lot:a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctx, "lot:b")
	require.NoError(t, err)
	unlockB()
}

func TestMemoryLocker_ContextCancelReleasesPartialHold(t *testing.T) {
	// Arrange
	l := NewMemoryLocker()
	unlockB, err := l.Lock(context.Background(), "lot:b")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Act
	_, err = l.Lock(ctx, "lot:a", "lot:b")

	// Assert
	require.ErrorIs(t, err, context.DeadlineExceeded)
	unlockA, err := l.Lock(context.Background(), "lot:a")
	require.NoError(t, err, "lot:a must have been released after the failed attempt")
	unlockA()
	unlockB()
	assert.Zero(t, l.size())
}

func TestMemoryLocker_UnlockIsIdempotent(t *testing.T) {
	l := NewMemoryLocker()

	unlock, err := l.Lock(context.Background(), "order:1", "order:1")
	require.NoError(t, err)
	unlock()
	unlock()

	assert.Zero(t, l.size())
}
