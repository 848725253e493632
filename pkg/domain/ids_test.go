package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "accessgate/pkg/domain-errors"
)

func TestParseUserID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseUserID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseUserID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseUserID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, UserID(validUUID), id)
		assert.Equal(t, validUUID.String(), id.String())
		assert.False(t, id.IsNil())
	})
}

func TestParseID_HostileInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE users;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errUser := ParseUserID(tt.input)
			_, errInst := ParseInstitutionID(tt.input)
			if tt.wantErr {
				require.Error(t, errUser)
				require.Error(t, errInst)
				assert.True(t, dErrors.HasCode(errUser, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, errUser)
				require.NoError(t, errInst)
			}
		})
	}
}

func TestZeroValueIsNil(t *testing.T) {
	var u UserID
	var i InstitutionID
	assert.True(t, u.IsNil())
	assert.True(t, i.IsNil())
	assert.False(t, NewUserID().IsNil())
	assert.False(t, NewInstitutionID().IsNil())
}

func TestIDsMarshalAsStrings(t *testing.T) {
	userID := NewUserID()
	raw, err := json.Marshal(struct {
		User UserID        `json:"user"`
		Inst InstitutionID `json:"inst"`
	}{User: userID})
	require.NoError(t, err)
	assert.JSONEq(t, `{"user":"`+userID.String()+`","inst":"00000000-0000-0000-0000-000000000000"}`, string(raw))

	var decoded struct {
		User UserID        `json:"user"`
		Inst InstitutionID `json:"inst"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, userID, decoded.User)
	assert.True(t, decoded.Inst.IsNil())

	assert.Error(t, json.Unmarshal([]byte(`{"user":"nope"}`), &decoded))
}
