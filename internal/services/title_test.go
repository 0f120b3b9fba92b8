package services

import (
	"context"
	"testing"
	"time"

	"github.com/princeprakhar/yamdb-backend/internal/authz"
	"github.com/princeprakhar/yamdb-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuneExample(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	enforcer := newTestEnforcer(t)
	titles := NewTitleService(db, enforcer)
	reviews := NewReviewService(db, enforcer)

	admin := seedUser(t, db, "admin", models.RoleAdmin)
	a := seedUser(t, db, "a", models.RoleUser)
	b := seedUser(t, db, "b", models.RoleUser)
	seedCategory(t, db, "Books", "books")

	dune, err := titles.Create(ctx, admin, TitleCreateRequest{
		Name:     "Dune",
		Year:     intPtr(1965),
		Category: strPtr("books"),
		Genre:    []string{},
	})
	require.NoError(t, err)
	assert.Nil(t, dune.Rating)
	require.NotNil(t, dune.Category)
	assert.Equal(t, "books", dune.Category.Slug)

	_, err = reviews.Create(ctx, a, dune.ID, CreateReviewRequest{Text: "great", Score: intPtr(8)})
	require.NoError(t, err)
	_, err = reviews.Create(ctx, b, dune.ID, CreateReviewRequest{Text: "fine", Score: intPtr(6)})
	require.NoError(t, err)

	got, err := titles.Get(ctx, authz.Anonymous(), dune.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 7, *got.Rating)

	_, err = reviews.Create(ctx, a, dune.ID, CreateReviewRequest{Text: "again", Score: intPtr(10)})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, NonFieldErrors)
}

func TestRatingReflectsReviewChangesImmediately(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	enforcer := newTestEnforcer(t)
	titles := NewTitleService(db, enforcer)
	reviews := NewReviewService(db, enforcer)

	alice := seedUser(t, db, "alice", models.RoleUser)
	title := seedTitle(t, db, "Solaris", 1961, nil)

	created, err := reviews.Create(ctx, alice, title.ID, CreateReviewRequest{Text: "ok", Score: intPtr(4)})
	require.NoError(t, err)

	got, err := titles.Get(ctx, authz.Anonymous(), title.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, *got.Rating)

	_, err = reviews.Update(ctx, alice, title.ID, created.ID, UpdateReviewRequest{Score: intPtr(9)})
	require.NoError(t, err)
	got, err = titles.Get(ctx, authz.Anonymous(), title.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, *got.Rating)

	require.NoError(t, reviews.Delete(ctx, alice, title.ID, created.ID))
	got, err = titles.Get(ctx, authz.Anonymous(), title.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Rating)
}

func TestTitleFilters(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	titles := NewTitleService(db, newTestEnforcer(t))

	books := seedCategory(t, db, "Books", "books")
	films := seedCategory(t, db, "Films", "films")
	scifi := seedGenre(t, db, "Sci-Fi", "sci-fi")
	drama := seedGenre(t, db, "Drama", "drama")

	seedTitle(t, db, "Dune", 1965, &books, scifi)
	seedTitle(t, db, "Dune", 1984, &films, scifi, drama)
	seedTitle(t, db, "Stalker", 1979, &films, drama)

	tests := []struct {
		name   string
		filter TitleFilter
		want   int64
	}{
		{"no filter", TitleFilter{}, 3},
		{"category", TitleFilter{Category: []string{"films"}}, 2},
		{"any of categories", TitleFilter{Category: []string{"films", "books"}}, 3},
		{"genre", TitleFilter{Genre: []string{"drama"}}, 2},
		{"name substring ignores case", TitleFilter{Name: "dun"}, 2},
		{"year", TitleFilter{Year: intPtr(1979)}, 1},
		{"combined", TitleFilter{Name: "dune", Genre: []string{"drama"}}, 1},
		{"unknown slug", TitleFilter{Category: []string{"music"}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, total, err := titles.List(ctx, authz.Anonymous(), tt.filter, firstPage)
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
			assert.Len(t, list, int(tt.want))
		})
	}
}

func TestTitleValidation(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	titles := NewTitleService(db, newTestEnforcer(t))
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	seedCategory(t, db, "Books", "books")

	_, err := titles.Create(ctx, admin, TitleCreateRequest{
		Name: "Future", Year: intPtr(time.Now().Year() + 1), Category: strPtr("books"), Genre: []string{},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "year")

	_, err = titles.Create(ctx, admin, TitleCreateRequest{
		Name: "Lost", Year: intPtr(2000), Category: strPtr("nope"), Genre: []string{"missing"},
	})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "category")
	assert.Contains(t, verr.Fields, "genre")

	_, err = titles.Create(ctx, admin, TitleCreateRequest{})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "year")
}

func TestTitleWritesRequireAdmin(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	titles := NewTitleService(db, newTestEnforcer(t))
	moderator := seedUser(t, db, "mod", models.RoleModerator)
	title := seedTitle(t, db, "Dune", 1965, nil)

	_, err := titles.Create(ctx, authz.Anonymous(), TitleCreateRequest{Name: "x", Year: intPtr(1)})
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)

	_, err = titles.Update(ctx, moderator, title.ID, TitleUpdateRequest{Name: strPtr("y")})
	assert.ErrorIs(t, err, authz.ErrForbidden)

	err = titles.Delete(ctx, moderator, 9999)
	assert.ErrorIs(t, err, authz.ErrForbidden, "denied by kind before the lookup")
}

func TestTitleUpdateIsPartial(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	titles := NewTitleService(db, newTestEnforcer(t))
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	books := seedCategory(t, db, "Books", "books")
	scifi := seedGenre(t, db, "Sci-Fi", "sci-fi")
	seedGenre(t, db, "Drama", "drama")
	title := seedTitle(t, db, "Dune", 1965, &books, scifi)

	got, err := titles.Update(ctx, admin, title.ID, TitleUpdateRequest{Description: strPtr("spice")})
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Name)
	assert.Equal(t, 1965, got.Year)
	assert.Equal(t, "spice", got.Description)
	require.Len(t, got.Genre, 1)

	got, err = titles.Update(ctx, admin, title.ID, TitleUpdateRequest{Genre: []string{"drama"}})
	require.NoError(t, err)
	require.Len(t, got.Genre, 1)
	assert.Equal(t, "drama", got.Genre[0].Slug)

	_, err = titles.Update(ctx, admin, 424242, TitleUpdateRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletingCategorySetsTitleCategoryNull(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	enforcer := newTestEnforcer(t)
	catalog := NewCatalogService(db, enforcer)
	titles := NewTitleService(db, enforcer)
	admin := seedUser(t, db, "admin", models.RoleAdmin)

	books := seedCategory(t, db, "Books", "books")
	title := seedTitle(t, db, "Dune", 1965, &books)

	require.NoError(t, catalog.DeleteCategory(ctx, admin, "books"))

	got, err := titles.Get(ctx, authz.Anonymous(), title.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Category)
}

func TestDeletingTitleCascades(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	titles := NewTitleService(db, newTestEnforcer(t))
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	alice := seedUser(t, db, "alice", models.RoleUser)

	scifi := seedGenre(t, db, "Sci-Fi", "sci-fi")
	title := seedTitle(t, db, "Dune", 1965, nil, scifi)
	review := seedReview(t, db, alice, title, 9)
	require.NoError(t, db.Create(&models.Comment{Text: "agreed", AuthorID: alice.UserID, ReviewID: review.ID}).Error)

	require.NoError(t, titles.Delete(ctx, admin, title.ID))

	var reviewCount, commentCount, linkCount, genreCount int64
	db.Model(&models.Review{}).Count(&reviewCount)
	db.Model(&models.Comment{}).Count(&commentCount)
	db.Table("title_genres").Count(&linkCount)
	db.Model(&models.Genre{}).Count(&genreCount)

	assert.Zero(t, reviewCount)
	assert.Zero(t, commentCount)
	assert.Zero(t, linkCount)
	assert.Equal(t, int64(1), genreCount, "genres outlive the title")
}
