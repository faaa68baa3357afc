package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sharing map[int64]Capability

func (s sharing) LevelFor(userID int64) (Capability, bool) {
	c, ok := s[userID]
	return c, ok
}

func TestAuthorize_Matrix(t *testing.T) {
	folder := sharing{10: Consult, 11: Download}

	cases := []struct {
		name     string
		caller   Caller
		required Capability
		allowed  bool
	}{
		{"admin consult", Caller{UserID: 1, Role: RoleAdmin}, Consult, true},
		{"admin download", Caller{UserID: 1, Role: RoleAdmin}, Download, true},
		{"consult holder consult", Caller{UserID: 10, Role: RoleClient}, Consult, true},
		{"consult holder download", Caller{UserID: 10, Role: RoleClient}, Download, false},
		{"download holder consult", Caller{UserID: 11, Role: RoleClient}, Consult, true},
		{"download holder download", Caller{UserID: 11, Role: RoleClient}, Download, true},
		{"stranger consult", Caller{UserID: 12, Role: RoleClient}, Consult, false},
		{"stranger download", Caller{UserID: 12, Role: RoleClient}, Download, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.caller, folder, tc.required)
			if tc.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrForbidden)
			}
		})
	}
}

func TestAuthorize_AdminWithoutEntry(t *testing.T) {
	assert.True(t, CanObserve(Caller{UserID: 99, Role: RoleAdmin}, sharing{}))
	assert.False(t, CanObserve(Caller{UserID: 99, Role: RoleClient}, sharing{}))
}

func TestParseCapability(t *testing.T) {
	c, err := ParseCapability(" Download ")
	require.NoError(t, err)
	assert.Equal(t, Download, c)

	_, err = ParseCapability("write")
	assert.ErrorIs(t, err, ErrInvalidCapability)

	_, err = ParseCapability("")
	assert.ErrorIs(t, err, ErrInvalidCapability)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("ADMIN")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("studio_owner")
	assert.Error(t, err)
}

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, RequireAdmin(Caller{UserID: 1, Role: RoleAdmin}))
	assert.ErrorIs(t, RequireAdmin(Caller{UserID: 2, Role: RoleClient}), ErrAdminOnly)
}
