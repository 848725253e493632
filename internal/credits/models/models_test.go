package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "accessgate/pkg/domain"
)

func TestExtendIsAnchoredOnStart(t *testing.T) {
	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	for _, elapsed := range []time.Duration{0, 20 * 24 * time.Hour, 200 * 24 * time.Hour} {
		c := NewInitialCredits(id.NewUserID(), start, 60)
		c.Extend(120, start.Add(elapsed))
		assert.True(t, c.ExpirationTime.Equal(start.AddDate(0, 0, 120)))
		assert.Equal(t, 1, c.ExtensionCount)
		assert.False(t, c.CanExtend())
	}
}

func TestNotificationNeverRegresses(t *testing.T) {
	c := NewInitialCredits(id.NewUserID(), time.Now(), 60)
	assert.Equal(t, NotificationNone, c.NotificationStatus)

	assert.True(t, c.AdvanceNotification(NotificationExpiringSoon))
	assert.False(t, c.AdvanceNotification(NotificationExpiringSoon))
	assert.True(t, c.AdvanceNotification(NotificationExpired))
	assert.False(t, c.AdvanceNotification(NotificationExpiringSoon))
	assert.False(t, c.AdvanceNotification(NotificationNone))
	assert.False(t, c.AdvanceNotification("BOGUS"))
	assert.Equal(t, NotificationExpired, c.NotificationStatus)
}

func TestExpiryWindows(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c := NewInitialCredits(id.NewUserID(), now.AddDate(0, 0, -55), 60)

	assert.False(t, c.IsExpired(now))
	assert.True(t, c.ExpiresWithin(now, 7*24*time.Hour))
	assert.False(t, c.ExpiresWithin(now, 24*time.Hour))
	assert.True(t, c.IsExpired(now.AddDate(0, 0, 5)))
	assert.False(t, c.ExpiresWithin(now.AddDate(0, 0, 5), 7*24*time.Hour))
}
