package utils

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

type TokenType string

const (
	AccessToken TokenType = "access"
)

// Key purposes for DeriveKey. Each purpose yields an unrelated key, so a
// confirmation code can never verify as an access token or vice versa.
const (
	PurposeAccessToken      = "yamdb/access-token"
	PurposeConfirmationCode = "yamdb/confirmation-code"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

// DeriveKey expands the configured secret into a 32 byte key bound to purpose.
func DeriveKey(secret, purpose string) []byte {
	reader := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		// hkdf only fails after 255*32 bytes of output
		panic(err)
	}
	return key
}

// GenerateAccessToken issues a signed bearer token for the user. Role is
// deliberately left out: it is re-read from the store on every request so a
// demotion takes effect before the token expires.
func GenerateAccessToken(userID uint, username string, key []byte, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expirationTime := now.Add(ttl)

	claims := &Claims{
		UserID:   userID,
		Username: username,
		Type:     string(AccessToken),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(key)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expirationTime, nil
}

// ValidateToken verifies signature, expiry and token type. Every rejection
// wraps ErrInvalidToken.
func ValidateToken(tokenString string, key []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != string(AccessToken) {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
