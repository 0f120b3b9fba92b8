package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKeySeparatesPurposes(t *testing.T) {
	access := DeriveKey("secret", PurposeAccessToken)
	codes := DeriveKey("secret", PurposeConfirmationCode)

	assert.Len(t, access, 32)
	assert.NotEqual(t, access, codes)
	assert.Equal(t, access, DeriveKey("secret", PurposeAccessToken))
	assert.NotEqual(t, access, DeriveKey("other", PurposeAccessToken))
}

func TestAccessTokenRoundTrip(t *testing.T) {
	key := DeriveKey("secret", PurposeAccessToken)

	token, exp, err := GenerateAccessToken(7, "alice", key, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := ValidateToken(token, key)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestValidateTokenRejectsWrongKeyAndExpiry(t *testing.T) {
	key := DeriveKey("secret", PurposeAccessToken)

	token, _, err := GenerateAccessToken(1, "bob", key, time.Hour)
	require.NoError(t, err)
	_, err = ValidateToken(token, DeriveKey("secret", PurposeConfirmationCode))
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, _, err := GenerateAccessToken(1, "bob", key, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(expired, key)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	key := DeriveKey("secret", PurposeAccessToken)
	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := ValidateToken(raw, key)
		assert.ErrorIs(t, err, ErrInvalidToken, raw)
	}
}
