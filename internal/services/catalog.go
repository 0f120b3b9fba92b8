package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/princeprakhar/yamdb-backend/internal/authz"
	"github.com/princeprakhar/yamdb-backend/internal/models"
	"github.com/princeprakhar/yamdb-backend/internal/utils"
	"gorm.io/gorm"
)

const QueryTimeout = 30 * time.Second

// CatalogEntryRequest is the write shape shared by categories and genres.
type CatalogEntryRequest struct {
	Name string `json:"name" validate:"required,max=256"`
	Slug string `json:"slug" validate:"required,max=50,slug"`
}

// CatalogService manages categories and genres. Both are flat name/slug
// lists addressed by slug, so the operations are shared.
type CatalogService struct {
	db    *gorm.DB
	authz *authz.Enforcer
}

func NewCatalogService(db *gorm.DB, enforcer *authz.Enforcer) *CatalogService {
	if db == nil {
		panic("database connection cannot be nil")
	}
	return &CatalogService{db: db, authz: enforcer}
}

type catalogEntry interface {
	models.Category | models.Genre
}

func (s *CatalogService) ListCategories(ctx context.Context, p authz.Principal, search string, page utils.Page) ([]models.Category, int64, error) {
	return listEntries[models.Category](ctx, s, p, authz.KindCategory, search, page)
}

func (s *CatalogService) CreateCategory(ctx context.Context, p authz.Principal, req CatalogEntryRequest) (*models.Category, error) {
	return createEntry(ctx, s, p, authz.KindCategory, req, func(req CatalogEntryRequest) *models.Category {
		return &models.Category{Name: req.Name, Slug: req.Slug}
	})
}

func (s *CatalogService) DeleteCategory(ctx context.Context, p authz.Principal, slug string) error {
	return deleteEntry[models.Category](ctx, s, p, authz.KindCategory, slug)
}

func (s *CatalogService) ListGenres(ctx context.Context, p authz.Principal, search string, page utils.Page) ([]models.Genre, int64, error) {
	return listEntries[models.Genre](ctx, s, p, authz.KindGenre, search, page)
}

func (s *CatalogService) CreateGenre(ctx context.Context, p authz.Principal, req CatalogEntryRequest) (*models.Genre, error) {
	return createEntry(ctx, s, p, authz.KindGenre, req, func(req CatalogEntryRequest) *models.Genre {
		return &models.Genre{Name: req.Name, Slug: req.Slug}
	})
}

func (s *CatalogService) DeleteGenre(ctx context.Context, p authz.Principal, slug string) error {
	return deleteEntry[models.Genre](ctx, s, p, authz.KindGenre, slug)
}

func listEntries[T catalogEntry](ctx context.Context, s *CatalogService, p authz.Principal, kind authz.Kind, search string, page utils.Page) ([]T, int64, error) {
	if err := s.authz.Authorize(p, authz.ActionRead, kind, 0); err != nil {
		return nil, 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	query := s.db.WithContext(ctx).Model(new(T))
	if search = strings.TrimSpace(search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count %s entries: %w", kind, err)
	}

	entries := make([]T, 0)
	if total == 0 {
		return entries, 0, nil
	}
	if err := query.Order("id ASC").Offset(page.Offset).Limit(page.Limit).Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch %s entries: %w", kind, err)
	}
	return entries, total, nil
}

func createEntry[T catalogEntry](ctx context.Context, s *CatalogService, p authz.Principal, kind authz.Kind, req CatalogEntryRequest, build func(CatalogEntryRequest) *T) (*T, error) {
	if err := s.authz.Authorize(p, authz.ActionCreate, kind, 0); err != nil {
		return nil, err
	}

	req.Name = utils.SanitizeString(req.Name)
	req.Slug = utils.SanitizeString(req.Slug)
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	entry := build(req)
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, writeError("create "+string(kind), err,
			"slug", fmt.Sprintf("%s with this slug already exists.", kind))
	}
	return entry, nil
}

func deleteEntry[T catalogEntry](ctx context.Context, s *CatalogService, p authz.Principal, kind authz.Kind, slug string) error {
	if err := s.authz.Authorize(p, authz.ActionDelete, kind, 0); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Where("slug = ?", slug).Delete(new(T))
	if result.Error != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound(string(kind))
	}
	return nil
}
