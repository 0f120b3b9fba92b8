package authz

import (
	"testing"

	"github.com/princeprakhar/yamdb-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	e, err := NewEnforcer()
	require.NoError(t, err)
	return e
}

func TestDecide(t *testing.T) {
	e := newTestEnforcer(t)

	anon := Anonymous()
	user := Principal{UserID: 1, Username: "alice", Role: models.RoleUser}
	other := Principal{UserID: 2, Username: "bob", Role: models.RoleUser}
	moderator := Principal{UserID: 3, Username: "mod", Role: models.RoleModerator}
	admin := Principal{UserID: 4, Username: "root", Role: models.RoleAdmin}

	tests := []struct {
		name    string
		p       Principal
		act     Action
		kind    Kind
		ownerID uint
		want    bool
	}{
		{"anonymous reads titles", anon, ActionRead, KindTitle, 0, true},
		{"anonymous reads comments", anon, ActionRead, KindComment, 0, true},
		{"anonymous cannot review", anon, ActionCreate, KindReview, 0, false},
		{"anonymous has no profile", anon, ActionRead, KindProfile, 0, false},
		{"user reviews", user, ActionCreate, KindReview, 0, true},
		{"user edits own review", user, ActionUpdate, KindReview, 1, true},
		{"user cannot edit other review", other, ActionUpdate, KindReview, 1, false},
		{"user deletes own comment", user, ActionDelete, KindComment, 1, true},
		{"user cannot create genre", user, ActionCreate, KindGenre, 0, false},
		{"user reads own profile", user, ActionRead, KindProfile, 1, true},
		{"user cannot list users", user, ActionRead, KindUser, 0, false},
		{"moderator edits any review", moderator, ActionUpdate, KindReview, 1, true},
		{"moderator deletes any comment", moderator, ActionDelete, KindComment, 2, true},
		{"moderator cannot create title", moderator, ActionCreate, KindTitle, 0, false},
		{"moderator cannot manage users", moderator, ActionUpdate, KindUser, 1, false},
		{"admin creates title", admin, ActionCreate, KindTitle, 0, true},
		{"admin deletes category", admin, ActionDelete, KindCategory, 0, true},
		{"admin deletes any review", admin, ActionDelete, KindReview, 1, true},
		{"admin manages users", admin, ActionDelete, KindUser, 2, true},
		{"admin reads catalog", admin, ActionRead, KindGenre, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Decide(tt.p, tt.act, tt.kind, tt.ownerID))
		})
	}
}

func TestAuthorizeErrors(t *testing.T) {
	e := newTestEnforcer(t)

	err := e.Authorize(Anonymous(), ActionCreate, KindReview, 0)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.ErrorIs(t, err, ErrForbidden)

	user := Principal{UserID: 1, Username: "alice", Role: models.RoleUser}
	err = e.Authorize(user, ActionCreate, KindTitle, 0)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NotErrorIs(t, err, ErrUnauthenticated)

	assert.NoError(t, e.Authorize(user, ActionCreate, KindReview, 0))
}

func TestRoleChangeTakesEffectImmediately(t *testing.T) {
	e := newTestEnforcer(t)

	p := Principal{UserID: 7, Username: "carol", Role: models.RoleUser}
	assert.False(t, e.Decide(p, ActionDelete, KindReview, 9))

	p.Role = models.RoleModerator
	assert.True(t, e.Decide(p, ActionDelete, KindReview, 9))
}

func TestUnknownRoleGetsNothingBeyondItsName(t *testing.T) {
	e := newTestEnforcer(t)

	p := Principal{UserID: 1, Username: "x", Role: models.Role("superuser")}
	assert.False(t, e.Decide(p, ActionRead, KindTitle, 0))
}

func TestAuthorizeKindAssumesOwnership(t *testing.T) {
	e := newTestEnforcer(t)

	user := Principal{UserID: 1, Username: "alice", Role: models.RoleUser}
	assert.NoError(t, e.AuthorizeKind(user, ActionDelete, KindReview))
	assert.ErrorIs(t, e.AuthorizeKind(user, ActionDelete, KindTitle), ErrForbidden)
	assert.ErrorIs(t, e.AuthorizeKind(Anonymous(), ActionUpdate, KindComment), ErrUnauthenticated)
}
