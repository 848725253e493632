// Package lock serializes all state mutations for a single user.
//
// Lockers are re-entrant through the context: a callback that calls back
// into another locked operation for the same user runs without re-acquiring.
package lock

import (
	"context"

	id "accessgate/pkg/domain"
)

// Locker runs fn while holding the exclusive lock for userID.
type Locker interface {
	WithUserLock(ctx context.Context, userID id.UserID, fn func(ctx context.Context) error) error
}

type heldKey struct{}

func holds(ctx context.Context, userID id.UserID) bool {
	held, _ := ctx.Value(heldKey{}).(id.UserID)
	return !held.IsNil() && held == userID
}

func markHeld(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, heldKey{}, userID)
}
