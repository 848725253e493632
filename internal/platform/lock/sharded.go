package lock

import (
	"context"
	"time"

	id "accessgate/pkg/domain"
	dErrors "accessgate/pkg/domain-errors"
)

// numShards trades memory for contention: users hashing to the same shard
// serialize against each other, which is safe but slower.
const numShards = 128

const defaultLockTimeout = 5 * time.Second

// Sharded is an in-process Locker backed by FNV-1a-sharded semaphores.
// Each shard is a one-slot channel so waiting honours the context deadline.
type Sharded struct {
	shards  [numShards]chan struct{}
	timeout time.Duration
}

func NewSharded() *Sharded {
	s := &Sharded{timeout: defaultLockTimeout}
	for i := range s.shards {
		s.shards[i] = make(chan struct{}, 1)
	}
	return s
}

// WithTimeout sets the deadline applied when the caller has none.
func (s *Sharded) WithTimeout(d time.Duration) *Sharded {
	if d > 0 {
		s.timeout = d
	}
	return s
}

func (s *Sharded) WithUserLock(ctx context.Context, userID id.UserID, fn func(ctx context.Context) error) error {
	if holds(ctx, userID) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "user lock aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	shard := s.shards[hashString(userID.String())%numShards]
	select {
	case shard <- struct{}{}:
	case <-ctx.Done():
		return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "user lock wait timed out")
	}
	defer func() { <-shard }()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "user lock aborted: context cancelled")
	}
	return fn(markHeld(ctx, userID))
}

// hashString is FNV-1a.
func hashString(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
