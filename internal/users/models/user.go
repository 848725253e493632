package models

import (
	"strings"
	"time"

	id "accessgate/pkg/domain"
	dErrors "accessgate/pkg/domain-errors"
	"accessgate/pkg/email"
)

// User is the slice of a researcher account the access engine reads.
//
// Invariants:
//   - ContactEmail is a normalized, parseable address
//   - DUCCSignedVersion and DUCCSignedAt are set together
type User struct {
	ID                id.UserID  `json:"id"`
	ContactEmail      string     `json:"contact_email"`
	Disabled          bool       `json:"disabled"`
	ServiceAccount    bool       `json:"service_account"`
	DUCCSignedVersion *int       `json:"ducc_signed_version,omitempty"`
	DUCCSignedAt      *time.Time `json:"ducc_signed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	Version           int64      `json:"-"`
}

// NewUser validates the contact email and builds an unsaved user.
func NewUser(userID id.UserID, contactEmail string, serviceAccount bool, now time.Time) (*User, error) {
	normalized, ok := email.Normalize(strings.TrimSpace(contactEmail))
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "contact email is not a valid address")
	}
	return &User{
		ID:             userID,
		ContactEmail:   normalized,
		ServiceAccount: serviceAccount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// SignCodeOfConduct records a signature of the given version.
func (u *User) SignCodeOfConduct(version int, now time.Time) {
	v, t := version, now
	u.DUCCSignedVersion = &v
	u.DUCCSignedAt = &t
	u.UpdatedAt = now
}

func (u *User) Clone() *User {
	c := *u
	if u.DUCCSignedVersion != nil {
		v := *u.DUCCSignedVersion
		c.DUCCSignedVersion = &v
	}
	if u.DUCCSignedAt != nil {
		t := *u.DUCCSignedAt
		c.DUCCSignedAt = &t
	}
	return &c
}
