package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	id "accessgate/pkg/domain"
	dErrors "accessgate/pkg/domain-errors"
)

const (
	redisKeyPrefix    = "accessgate:lock:user:"
	defaultRetryDelay = 25 * time.Millisecond
)

// releaseScript deletes the lock only if it still carries our token, so an
// expired holder can never release a lock taken over by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a cross-process Locker using SET NX PX. The TTL bounds how long a
// crashed holder can block others; it must exceed the longest locked task.
type Redis struct {
	client     redis.UniversalClient
	ttl        time.Duration
	retryDelay time.Duration
	timeout    time.Duration
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Redis{client: client, ttl: ttl, retryDelay: defaultRetryDelay, timeout: defaultLockTimeout}
}

func (l *Redis) WithUserLock(ctx context.Context, userID id.UserID, fn func(ctx context.Context) error) error {
	if holds(ctx, userID) {
		return fn(ctx)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	key := redisKeyPrefix + userID.String()
	token := uuid.NewString()
	if err := l.acquire(ctx, key, token); err != nil {
		return err
	}
	defer func() {
		// Release on a fresh context: ctx may already be done.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}()

	return fn(markHeld(ctx, userID))
}

func (l *Redis) acquire(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(l.retryDelay)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "user lock wait timed out")
			}
			return dErrors.Wrap(fmt.Errorf("acquire user lock: %w", err), dErrors.CodeUnavailable, "lock backend unavailable")
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "user lock wait timed out")
		case <-ticker.C:
		}
	}
}
