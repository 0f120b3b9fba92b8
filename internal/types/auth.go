package types

// SignupResponse echoes the identity a confirmation code was sent for.
type SignupResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type TokenResponse struct {
	Access    string `json:"access"`
	ExpiresAt int64  `json:"expires_at"`
}
