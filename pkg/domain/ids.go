// Package domain holds typed identifiers shared across modules.
//
// Each ID wraps a uuid.UUID so that a UserID can never be passed where an
// InstitutionID is expected. Parse functions are the trust boundary: they
// reject empty, malformed and nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "accessgate/pkg/domain-errors"
)

type (
	UserID        uuid.UUID
	InstitutionID uuid.UUID
)

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id InstitutionID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id InstitutionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id InstitutionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText accepts the nil UUID so that zero IDs round-trip; request
// input goes through ParseUserID instead.
func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid user ID")
	}
	*id = UserID(u)
	return nil
}

func (id *InstitutionID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid institution ID")
	}
	*id = InstitutionID(u)
	return nil
}

// NewUserID returns a random user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewInstitutionID returns a random institution ID.
func NewInstitutionID() InstitutionID { return InstitutionID(uuid.New()) }

// ParseUserID parses and validates a user ID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user ID")
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

// ParseInstitutionID parses and validates an institution ID.
func ParseInstitutionID(s string) (InstitutionID, error) {
	u, err := parseUUID(s, "institution ID")
	if err != nil {
		return InstitutionID{}, err
	}
	return InstitutionID(u), nil
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
