package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/princeprakhar/yamdb-backend/internal/models"
	"github.com/princeprakhar/yamdb-backend/internal/utils"
)

const confirmationCodeLength = 20

// ConfirmationCodes derives sign-up codes instead of storing them. A code
// is an HMAC over the user's identity, last login and a coarse time window,
// so it stops verifying once the window ages past the TTL or the user logs
// in (which moves last_login).
type ConfirmationCodes struct {
	key    []byte
	window time.Duration
	ttl    time.Duration
}

func NewConfirmationCodes(secret string, window, ttl time.Duration) *ConfirmationCodes {
	return &ConfirmationCodes{
		key:    utils.DeriveKey(secret, utils.PurposeConfirmationCode),
		window: window,
		ttl:    ttl,
	}
}

func (c *ConfirmationCodes) Generate(user *models.User, now time.Time) string {
	return c.codeFor(user, c.slot(now))
}

// Verify accepts codes from the current window and the earlier windows
// that still fall within the TTL.
func (c *ConfirmationCodes) Verify(user *models.User, code string, now time.Time) bool {
	if len(code) != confirmationCodeLength {
		return false
	}

	current := c.slot(now)
	lookback := int64(c.ttl / c.window)
	for slot := current; slot >= current-lookback && slot >= 0; slot-- {
		if hmac.Equal([]byte(c.codeFor(user, slot)), []byte(code)) {
			return true
		}
	}
	return false
}

func (c *ConfirmationCodes) slot(now time.Time) int64 {
	return now.UnixNano() / int64(c.window)
}

func (c *ConfirmationCodes) codeFor(user *models.User, slot int64) string {
	var lastLogin int64
	if user.LastLogin != nil {
		lastLogin = user.LastLogin.UnixMicro()
	}

	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(strconv.FormatUint(uint64(user.ID), 10)))
	mac.Write([]byte{0})
	mac.Write([]byte(user.Username))
	mac.Write([]byte{0})
	mac.Write([]byte(user.Email))
	mac.Write([]byte{0})
	mac.Write([]byte(strconv.FormatInt(lastLogin, 10)))
	mac.Write([]byte{0})
	mac.Write([]byte(strconv.FormatInt(slot, 10)))

	return hex.EncodeToString(mac.Sum(nil))[:confirmationCodeLength]
}
