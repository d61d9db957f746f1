package utils_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/receipt-vault/internal/model"
	"github.com/iliyamo/receipt-vault/internal/utils"
)

const testSecret = "test-signing-key"

func testUser() model.User {
	return model.User{
		ID:            42,
		Email:         "alice@example.com",
		Role:          model.RoleAdmin,
		IsActivated:   true,
		ActivationSrc: model.SourceStripe,
		IsEarlyAccess: false,
	}
}

func TestIssueAndVerifyRoundtrip(t *testing.T) {
	token, exp, err := utils.IssueSessionToken(testSecret, testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(utils.SessionTTL), exp, 5*time.Second)

	snap, err := utils.VerifySessionToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), snap.UserID)
	assert.Equal(t, "alice@example.com", snap.Email)
	assert.Equal(t, model.RoleAdmin, snap.Role)
	assert.True(t, snap.IsActivated)
	assert.False(t, snap.IsEarlyAccess)
	assert.Equal(t, model.SourceStripe, snap.ActivationSrc)
	assert.WithinDuration(t, exp, snap.ExpiresAt, time.Second)
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _, err := utils.IssueSessionToken(testSecret, testUser())
	require.NoError(t, err)

	_, err = utils.VerifySessionToken("other-secret", token)
	assert.Error(t, err)
}

func TestVerifyGarbage(t *testing.T) {
	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := utils.VerifySessionToken(testSecret, raw)
		assert.Error(t, err, "input %q", raw)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	// Build an already expired token by hand with the same claim shape.
	claims := &utils.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-8 * 24 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-24 * time.Hour)),
		},
		Email: "alice@example.com",
		Role:  string(model.RoleUser),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = utils.VerifySessionToken(testSecret, token)
	assert.Error(t, err)
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	claims := &utils.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "alice@example.com",
		Role:  string(model.RoleSuperAdmin),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = utils.VerifySessionToken(testSecret, token)
	assert.Error(t, err)
}

func TestVerifyRejectsBadSubjectOrRole(t *testing.T) {
	sign := func(sub, role string) string {
		claims := &utils.SessionClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   sub,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Email: "x@example.com",
			Role:  role,
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return token
	}

	for _, tc := range []struct{ sub, role string }{
		{"", string(model.RoleUser)},
		{"0", string(model.RoleUser)},
		{"abc", string(model.RoleUser)},
		{"42", "OWNER"},
		{"42", ""},
	} {
		_, err := utils.VerifySessionToken(testSecret, sign(tc.sub, tc.role))
		assert.Error(t, err, "sub=%q role=%q", tc.sub, tc.role)
	}
}

func TestSnapshotIsPointInTime(t *testing.T) {
	u := testUser()
	token, _, err := utils.IssueSessionToken(testSecret, u)
	require.NoError(t, err)

	// Mutating the user after issue must not reach the already-issued token.
	u.Role = model.RoleUser
	u.IsActivated = false

	snap, err := utils.VerifySessionToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, snap.Role)
	assert.True(t, snap.IsActivated)
}
