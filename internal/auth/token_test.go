package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensIssueVerify(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	signed, err := tokens.Issue("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	userID, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestTokensVerifyFailures(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "garbage string",
			token: func(t *testing.T) string {
				return "not.a.token"
			},
		},
		{
			name: "empty string",
			token: func(t *testing.T) string {
				return ""
			},
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				other := NewTokens("different-secret", time.Hour)
				signed, err := other.Issue("user-123")
				require.NoError(t, err)
				return signed
			},
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				expired := NewTokens("test-secret", -time.Minute)
				signed, err := expired.Issue("user-123")
				require.NoError(t, err)
				return signed
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tokens.Verify(tc.token(t))
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
	assert.False(t, CheckPassword("", "hunter22"))
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	first, err := HashPassword("same-password")
	require.NoError(t, err)
	second, err := HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
