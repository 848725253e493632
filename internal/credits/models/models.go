package models

import (
	"time"

	id "accessgate/pkg/domain"
)

// NotificationStatus records which expiry notice a user has been sent. It
// only moves forward.
type NotificationStatus string

const (
	NotificationNone         NotificationStatus = "NO_NOTIFICATION_SENT"
	NotificationExpiringSoon NotificationStatus = "EXPIRING_SOON_SENT"
	NotificationExpired      NotificationStatus = "EXPIRATION_SENT"
)

func (n NotificationStatus) rank() int {
	switch n {
	case NotificationNone:
		return 0
	case NotificationExpiringSoon:
		return 1
	case NotificationExpired:
		return 2
	default:
		return -1
	}
}

func (n NotificationStatus) IsValid() bool {
	return n.rank() >= 0
}

// MaxExtensions is how many times a grant may be extended.
const MaxExtensions = 1

// InitialCredits is a user's time-bounded initial spend allowance.
type InitialCredits struct {
	UserID             id.UserID          `json:"user_id"`
	CreditStartTime    time.Time          `json:"credit_start_time"`
	ExpirationTime     time.Time          `json:"expiration_time"`
	ExtensionCount     int                `json:"extension_count"`
	ExtendedAt         *time.Time         `json:"extended_at,omitempty"`
	Bypassed           bool               `json:"bypassed"`
	NotificationStatus NotificationStatus `json:"notification_status"`
	Version            int64              `json:"-"`
}

// NewInitialCredits starts a grant at now.
func NewInitialCredits(userID id.UserID, now time.Time, validityDays int) *InitialCredits {
	return &InitialCredits{
		UserID:             userID,
		CreditStartTime:    now,
		ExpirationTime:     now.AddDate(0, 0, validityDays),
		NotificationStatus: NotificationNone,
	}
}

func (c *InitialCredits) CanExtend() bool {
	return c.ExtensionCount < MaxExtensions
}

// Extend moves the expiration to start + extensionDays, independent of when
// the extension is requested. Callers check CanExtend first.
func (c *InitialCredits) Extend(extensionDays int, now time.Time) {
	c.ExpirationTime = c.CreditStartTime.AddDate(0, 0, extensionDays)
	c.ExtensionCount++
	t := now
	c.ExtendedAt = &t
}

func (c *InitialCredits) IsExpired(now time.Time) bool {
	return !c.ExpirationTime.After(now)
}

// ExpiresWithin reports an unexpired grant that lapses inside window.
func (c *InitialCredits) ExpiresWithin(now time.Time, window time.Duration) bool {
	return !c.IsExpired(now) && !c.ExpirationTime.After(now.Add(window))
}

// AdvanceNotification moves to next when it is later in the sequence.
func (c *InitialCredits) AdvanceNotification(next NotificationStatus) bool {
	if next.rank() <= c.NotificationStatus.rank() {
		return false
	}
	c.NotificationStatus = next
	return true
}

func (c *InitialCredits) Clone() *InitialCredits {
	if c == nil {
		return nil
	}
	out := *c
	if c.ExtendedAt != nil {
		t := *c.ExtendedAt
		out.ExtendedAt = &t
	}
	return &out
}
