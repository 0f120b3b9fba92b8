package services

import (
	"context"
	"testing"

	"github.com/princeprakhar/yamdb-backend/internal/authz"
	"github.com/princeprakhar/yamdb-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserManagementIsAdminOnly(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserService(db, newTestEnforcer(t))
	moderator := seedUser(t, db, "mod", models.RoleModerator)

	_, _, err := users.List(ctx, moderator, UserFilter{}, firstPage)
	assert.ErrorIs(t, err, authz.ErrForbidden)

	_, err = users.Get(ctx, authz.Anonymous(), "mod")
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)

	err = users.Delete(ctx, moderator, "nobody")
	assert.ErrorIs(t, err, authz.ErrForbidden)
}

func TestAdminCreatesAndUpdatesUsers(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserService(db, newTestEnforcer(t))
	admin := seedUser(t, db, "admin", models.RoleAdmin)

	created, err := users.Create(ctx, admin, CreateUserRequest{Username: "carol", Email: "Carol@Example.com", Role: "moderator"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, created.Role)
	assert.Equal(t, "carol@example.com", created.Email)

	var verr *ValidationError
	_, err = users.Create(ctx, admin, CreateUserRequest{Username: "me", Email: "me@example.com"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")

	_, err = users.Create(ctx, admin, CreateUserRequest{Username: "carol", Email: "c2@example.com"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{"username": "A user with that username already exists."}, verr.Fields)

	_, err = users.Create(ctx, admin, CreateUserRequest{Username: "carol2", Email: "CAROL@example.com"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{"email": "A user with this email already exists."}, verr.Fields)

	_, err = users.Create(ctx, admin, CreateUserRequest{Username: "dave", Email: "d@example.com", Role: "overlord"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "role")

	_, err = users.Update(ctx, admin, "carol", UpdateUserRequest{Username: strPtr("caroline")})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")

	updated, err := users.Update(ctx, admin, "carol", UpdateUserRequest{Role: strPtr("user"), Bio: strPtr("hi")})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, updated.Role)
	assert.Equal(t, "hi", updated.Bio)
	assert.Equal(t, "carol", updated.Username)

	require.NoError(t, users.Delete(ctx, admin, "carol"))
	_, err = users.Get(ctx, admin, "carol")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateAccountNamesCollidingField(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedUser(t, db, "taken", models.RoleUser)

	var verr *ValidationError
	_, err := CreateAccount(ctx, db, CreateUserRequest{Username: "fresh", Email: "taken@example.com"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.NotContains(t, verr.Fields, "username")

	_, err = CreateAccount(ctx, db, CreateUserRequest{Username: "taken", Email: "fresh@example.com"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")
	assert.NotContains(t, verr.Fields, "email")
}

func TestListUsersFilters(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserService(db, newTestEnforcer(t))
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	seedUser(t, db, "zed", models.RoleModerator)
	seedUser(t, db, "amy", models.RoleUser)

	list, total, err := users.List(ctx, admin, UserFilter{Role: "moderator"}, firstPage)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "zed", list[0].Username)

	list, _, err = users.List(ctx, admin, UserFilter{Search: "AMY@"}, firstPage)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "amy", list[0].Username)

	list, _, err = users.List(ctx, admin, UserFilter{Ordering: "-username"}, firstPage)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "zed", list[0].Username)
}

func TestProfileIgnoresProtectedFields(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserService(db, newTestEnforcer(t))
	alice := seedUser(t, db, "alice", models.RoleUser)

	// role, username and email have no place in UpdateProfileRequest, so a
	// client that sends them changes nothing.
	updated, err := users.UpdateProfile(ctx, alice, UpdateProfileRequest{FirstName: strPtr("Alice"), Bio: strPtr("reader")})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.FirstName)
	assert.Equal(t, "reader", updated.Bio)
	assert.Equal(t, models.RoleUser, updated.Role)

	profile, err := users.Profile(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)

	_, err = users.Profile(ctx, authz.Anonymous())
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)
}

func TestRoleChangeAppliesOnNextCall(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	enforcer := newTestEnforcer(t)
	users := NewUserService(db, enforcer)
	reviews := NewReviewService(db, enforcer)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	author := seedUser(t, db, "author", models.RoleUser)
	carol := seedUser(t, db, "carol", models.RoleUser)
	title := seedTitle(t, db, "Dune", 1965, nil)
	review := seedReview(t, db, author, title, 6)

	err := reviews.Delete(ctx, carol, title.ID, review.ID)
	assert.ErrorIs(t, err, authz.ErrForbidden)

	promoted, err := users.Update(ctx, admin, "carol", UpdateUserRequest{Role: strPtr("moderator")})
	require.NoError(t, err)

	assert.NoError(t, reviews.Delete(ctx, authz.NewPrincipal(promoted), title.ID, review.ID))
}
