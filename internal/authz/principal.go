package authz

import "github.com/princeprakhar/yamdb-backend/internal/models"

// Principal is whoever a request acts as. The zero value is anonymous.
type Principal struct {
	UserID   uint
	Username string
	Role     models.Role
}

func Anonymous() Principal {
	return Principal{}
}

func NewPrincipal(user *models.User) Principal {
	return Principal{UserID: user.ID, Username: user.Username, Role: user.Role}
}

func (p Principal) Authenticated() bool {
	return p.UserID != 0
}

// Subject is the policy subject: the role name, or "anonymous".
func (p Principal) Subject() string {
	if !p.Authenticated() {
		return subjectAnonymous
	}
	return string(p.Role)
}

func (p Principal) String() string {
	if !p.Authenticated() {
		return subjectAnonymous
	}
	return p.Username
}
