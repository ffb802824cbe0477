package userservice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mycogenesis/contenthub/internal/common"
)

func TestValidateUsername(t *testing.T) {
	testCases := []struct {
		name     string
		username string
		valid    bool
	}{
		{name: "valid username", username: "testuser1", valid: true},
		{name: "empty username", username: "", valid: false},
		{name: "too short", username: "ab", valid: false},
		{name: "contains symbols", username: "test_user!", valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := common.NewValidator()
			validateUsername(v, tc.username)
			assert.Equal(t, tc.valid, v.Valid())
		})
	}
}

func TestValidatePassword(t *testing.T) {
	testCases := []struct {
		name     string
		password string
		valid    bool
	}{
		{name: "valid password", password: "Password1!", valid: true},
		{name: "empty password", password: "", valid: false},
		{name: "no uppercase", password: "password1!", valid: false},
		{name: "no number", password: "Password!!", valid: false},
		{name: "no symbol", password: "Password11", valid: false},
		{name: "too short", password: "Pass1!", valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := common.NewValidator()
			validatePassword(v, tc.password)
			assert.Equal(t, tc.valid, v.Valid())
		})
	}
}

func TestValidateRole(t *testing.T) {
	v := common.NewValidator()
	validateRole(v, RoleEditor)
	assert.True(t, v.Valid())

	v = common.NewValidator()
	validateRole(v, Role("superuser"))
	assert.False(t, v.Valid())
}
