//go:build integration

package lock

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	id "accessgate/pkg/domain"
	dErrors "accessgate/pkg/domain-errors"
	"accessgate/pkg/testutil/containers"
)

func TestRedisLockerIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.ClearKeys(context.Background(), redisKeyPrefix))
	locker := NewRedis(rc.Client, 5*time.Second)
	userID := id.NewUserID()

	t.Run("serializes concurrent holders", func(t *testing.T) {
		var inside atomic.Int32
		var overlap atomic.Bool
		g, ctx := errgroup.WithContext(context.Background())
		for range 5 {
			g.Go(func() error {
				return locker.WithUserLock(ctx, userID, func(context.Context) error {
					if inside.Add(1) > 1 {
						overlap.Store(true)
					}
					time.Sleep(10 * time.Millisecond)
					inside.Add(-1)
					return nil
				})
			})
		}
		require.NoError(t, g.Wait())
		assert.False(t, overlap.Load())
	})

	t.Run("times out while another holder keeps the key", func(t *testing.T) {
		other := id.NewUserID()
		require.NoError(t, rc.Client.Set(context.Background(), redisKeyPrefix+other.String(), "foreign", 5*time.Second).Err())

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		err := locker.WithUserLock(ctx, other, func(context.Context) error { return nil })
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))

		// The foreign token must survive our failed attempt.
		val, err := rc.Client.Get(context.Background(), redisKeyPrefix+other.String()).Result()
		require.NoError(t, err)
		assert.Equal(t, "foreign", val)
	})
}
