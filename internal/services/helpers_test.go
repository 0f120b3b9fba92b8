package services

import (
	"context"
	"sync"
	"testing"

	"github.com/princeprakhar/yamdb-backend/internal/authz"
	"github.com/princeprakhar/yamdb-backend/internal/database"
	"github.com/princeprakhar/yamdb-backend/internal/models"
	"github.com/princeprakhar/yamdb-backend/internal/utils"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var firstPage = utils.Page{Limit: 10}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitSilent(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestEnforcer(t *testing.T) *authz.Enforcer {
	t.Helper()
	e, err := authz.NewEnforcer()
	require.NoError(t, err)
	return e
}

func seedUser(t *testing.T, db *gorm.DB, username string, role models.Role) authz.Principal {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com", Role: role}
	require.NoError(t, db.Create(&user).Error)
	return authz.NewPrincipal(&user)
}

func seedCategory(t *testing.T, db *gorm.DB, name, slug string) models.Category {
	t.Helper()
	c := models.Category{Name: name, Slug: slug}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func seedGenre(t *testing.T, db *gorm.DB, name, slug string) models.Genre {
	t.Helper()
	g := models.Genre{Name: name, Slug: slug}
	require.NoError(t, db.Create(&g).Error)
	return g
}

func seedTitle(t *testing.T, db *gorm.DB, name string, year int, category *models.Category, genres ...models.Genre) models.Title {
	t.Helper()
	title := models.Title{Name: name, Year: year, Genres: genres}
	if category != nil {
		title.CategoryID = &category.ID
	}
	require.NoError(t, db.Omit("Genres.*").Create(&title).Error)
	return title
}

func seedReview(t *testing.T, db *gorm.DB, author authz.Principal, title models.Title, score int) models.Review {
	t.Helper()
	r := models.Review{Text: "review by " + author.Username, Score: score, AuthorID: author.UserID, TitleID: title.ID}
	require.NoError(t, db.Create(&r).Error)
	return r
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

type fakeMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}
