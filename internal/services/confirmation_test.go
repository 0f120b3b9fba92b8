package services

import (
	"testing"
	"time"

	"github.com/princeprakhar/yamdb-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestConfirmationCodes(t *testing.T) {
	codes := NewConfirmationCodes("test-secret", 15*time.Minute, time.Hour)
	user := &models.User{ID: 1, Username: "alice", Email: "alice@example.com"}
	issued := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	code := codes.Generate(user, issued)
	assert.Len(t, code, confirmationCodeLength)
	assert.Equal(t, code, codes.Generate(user, issued), "derivation is deterministic")

	assert.True(t, codes.Verify(user, code, issued))
	assert.True(t, codes.Verify(user, code, issued.Add(50*time.Minute)))
	assert.False(t, codes.Verify(user, code, issued.Add(2*time.Hour)), "aged out")
	assert.False(t, codes.Verify(user, "0123456789abcdef0123", issued))
	assert.False(t, codes.Verify(user, "short", issued))

	other := *user
	other.Email = "mallory@example.com"
	assert.False(t, codes.Verify(&other, code, issued), "bound to the account state")

	loggedIn := *user
	at := issued.Add(time.Minute)
	loggedIn.LastLogin = &at
	assert.False(t, codes.Verify(&loggedIn, code, issued.Add(2*time.Minute)), "a login retires older codes")

	rotated := NewConfirmationCodes("another-secret", 15*time.Minute, time.Hour)
	assert.False(t, rotated.Verify(user, code, issued))
}
