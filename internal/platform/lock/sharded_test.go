package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "accessgate/pkg/domain"
	dErrors "accessgate/pkg/domain-errors"
)

func TestShardedSerializesSameUser(t *testing.T) {
	locker := NewSharded()
	userID := id.NewUserID()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithUserLock(context.Background(), userID, func(context.Context) error {
				n := inside.Add(1)
				for {
					m := maxInside.Load()
					if n <= m || maxInside.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside.Load())
}

func TestShardedIsReentrantForSameUser(t *testing.T) {
	locker := NewSharded()
	userID := id.NewUserID()

	done := make(chan error, 1)
	go func() {
		done <- locker.WithUserLock(context.Background(), userID, func(ctx context.Context) error {
			return locker.WithUserLock(ctx, userID, func(context.Context) error { return nil })
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("nested lock for the same user deadlocked")
	}
}

func TestShardedRejectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewSharded().WithUserLock(ctx, id.NewUserID(), func(context.Context) error {
		t.Fatal("callback must not run")
		return nil
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestShardedTimesOutWaitingForHolder(t *testing.T) {
	locker := NewSharded()
	userID := id.NewUserID()

	release := make(chan struct{})
	acquired := make(chan struct{})
	go func() {
		_ = locker.WithUserLock(context.Background(), userID, func(context.Context) error {
			close(acquired)
			<-release
			return nil
		})
	}()
	<-acquired

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := locker.WithUserLock(ctx, userID, func(context.Context) error { return nil })
	close(release)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}
