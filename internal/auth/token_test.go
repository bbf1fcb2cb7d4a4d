package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/marketplace-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)

	token, exp, err := tm.GenerateToken("u1", []domain.Role{domain.RoleCustomer})
	require.NoError(t, err)
	assert.False(t, exp.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, []domain.Role{domain.RoleCustomer}, claims.Roles)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 60).GenerateToken("u1", nil)
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", 60).ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_Garbage(t *testing.T) {
	_, err := NewTokenManager("secret", 60).ParseToken("not.a.token")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.NoError(t, ComparePassword(hash, "hunter2"))
	assert.Error(t, ComparePassword(hash, "wrong"))
}
