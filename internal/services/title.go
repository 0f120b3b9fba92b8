package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/princeprakhar/yamdb-backend/internal/authz"
	"github.com/princeprakhar/yamdb-backend/internal/models"
	"github.com/princeprakhar/yamdb-backend/internal/utils"
	"gorm.io/gorm"
)

type TitleService struct {
	db    *gorm.DB
	authz *authz.Enforcer
}

func NewTitleService(db *gorm.DB, enforcer *authz.Enforcer) *TitleService {
	if db == nil {
		panic("database connection cannot be nil")
	}
	return &TitleService{db: db, authz: enforcer}
}

// TitleFilter narrows the title list. Category and Genre match any of the
// given slugs; Name is a case-insensitive substring.
type TitleFilter struct {
	Category []string
	Genre    []string
	Name     string
	Year     *int
}

type TitleCreateRequest struct {
	Name        string   `json:"name" validate:"required,max=256"`
	Year        *int     `json:"year" validate:"required,pastyear"`
	Description string   `json:"description"`
	Category    *string  `json:"category" validate:"required"`
	Genre       []string `json:"genre" validate:"required"`
}

// TitleUpdateRequest is a partial update; nil fields are left alone.
type TitleUpdateRequest struct {
	Name        *string  `json:"name" validate:"omitempty,max=256"`
	Year        *int     `json:"year" validate:"omitempty,pastyear"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Genre       []string `json:"genre"`
}

// TitleResponse is the read shape. Rating is null until the first review.
type TitleResponse struct {
	ID          uint             `json:"id"`
	Name        string           `json:"name"`
	Year        int              `json:"year"`
	Description string           `json:"description"`
	Rating      *int             `json:"rating"`
	Category    *models.Category `json:"category"`
	Genre       []models.Genre   `json:"genre"`
}

func (s *TitleService) List(ctx context.Context, p authz.Principal, filter TitleFilter, page utils.Page) ([]TitleResponse, int64, error) {
	if err := s.authz.Authorize(p, authz.ActionRead, authz.KindTitle, 0); err != nil {
		return nil, 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	query := s.applyFilters(s.db.WithContext(ctx).Model(&models.Title{}), filter).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count titles: %w", err)
	}
	if total == 0 {
		return []TitleResponse{}, 0, nil
	}

	var titles []models.Title
	if err := query.
		Preload("Category").
		Preload("Genres").
		Order("id ASC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&titles).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch titles: %w", err)
	}

	responses, err := s.withRatings(ctx, titles)
	if err != nil {
		return nil, 0, err
	}
	return responses, total, nil
}

func (s *TitleService) Get(ctx context.Context, p authz.Principal, id uint) (*TitleResponse, error) {
	if err := s.authz.Authorize(p, authz.ActionRead, authz.KindTitle, 0); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *TitleService) Create(ctx context.Context, p authz.Principal, req TitleCreateRequest) (*TitleResponse, error) {
	if err := s.authz.Authorize(p, authz.ActionCreate, authz.KindTitle, 0); err != nil {
		return nil, err
	}

	req.Name = utils.SanitizeString(req.Name)
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	category, genres, err := s.resolveRelations(ctx, req.Category, req.Genre)
	if err != nil {
		return nil, err
	}

	title := models.Title{
		Name:        req.Name,
		Year:        *req.Year,
		Description: req.Description,
		Genres:      genres,
	}
	if category != nil {
		title.CategoryID = &category.ID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Genres.*").Create(&title).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create title: %w", err)
	}

	return s.load(ctx, title.ID)
}

func (s *TitleService) Update(ctx context.Context, p authz.Principal, id uint, req TitleUpdateRequest) (*TitleResponse, error) {
	if err := s.authz.AuthorizeKind(p, authz.ActionUpdate, authz.KindTitle); err != nil {
		return nil, err
	}

	var title models.Title
	if err := s.db.WithContext(ctx).First(&title, id).Error; err != nil {
		return nil, lookupError("title", err)
	}

	if req.Name != nil {
		trimmed := utils.SanitizeString(*req.Name)
		req.Name = &trimmed
	}
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	category, genres, err := s.resolveRelations(ctx, req.Category, req.Genre)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Year != nil {
		updates["year"] = *req.Year
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if category != nil {
		updates["category_id"] = category.ID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&title).Updates(updates).Error; err != nil {
				return err
			}
		}
		if req.Genre != nil {
			if err := tx.Model(&title).Association("Genres").Replace(genres); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update title: %w", err)
	}

	return s.load(ctx, title.ID)
}

// Delete removes the title and its genre links; reviews and their comments
// go with it through the foreign key cascade.
func (s *TitleService) Delete(ctx context.Context, p authz.Principal, id uint) error {
	if err := s.authz.AuthorizeKind(p, authz.ActionDelete, authz.KindTitle); err != nil {
		return err
	}

	var title models.Title
	if err := s.db.WithContext(ctx).First(&title, id).Error; err != nil {
		return lookupError("title", err)
	}

	if err := s.db.WithContext(ctx).Select("Genres").Delete(&title).Error; err != nil {
		return fmt.Errorf("failed to delete title: %w", err)
	}
	return nil
}

func (s *TitleService) load(ctx context.Context, id uint) (*TitleResponse, error) {
	var title models.Title
	if err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Genres").
		First(&title, id).Error; err != nil {
		return nil, lookupError("title", err)
	}

	responses, err := s.withRatings(ctx, []models.Title{title})
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

func (s *TitleService) applyFilters(query *gorm.DB, filter TitleFilter) *gorm.DB {
	if slugs := nonEmpty(filter.Category); len(slugs) > 0 {
		query = query.Where("category_id IN (?)",
			s.db.Model(&models.Category{}).Select("id").Where("slug IN ?", slugs))
	}

	if slugs := nonEmpty(filter.Genre); len(slugs) > 0 {
		query = query.Where("id IN (?)",
			s.db.Table("title_genres").
				Select("title_genres.title_id").
				Joins("JOIN genres ON genres.id = title_genres.genre_id").
				Where("genres.slug IN ?", slugs))
	}

	if name := strings.TrimSpace(filter.Name); name != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}

	if filter.Year != nil {
		query = query.Where("year = ?", *filter.Year)
	}

	return query
}

// resolveRelations turns the category slug and genre slugs of a write
// request into rows. A nil argument means "not supplied".
func (s *TitleService) resolveRelations(ctx context.Context, categorySlug *string, genreSlugs []string) (*models.Category, []models.Genre, error) {
	verr := &ValidationError{}

	var category *models.Category
	if categorySlug != nil {
		var found models.Category
		err := s.db.WithContext(ctx).Where("slug = ?", *categorySlug).First(&found).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			verr.add("category", fmt.Sprintf("Object with slug=%s does not exist.", *categorySlug))
		case err != nil:
			return nil, nil, fmt.Errorf("failed to resolve category: %w", err)
		default:
			category = &found
		}
	}

	genres := make([]models.Genre, 0, len(genreSlugs))
	if len(genreSlugs) > 0 {
		if err := s.db.WithContext(ctx).Where("slug IN ?", genreSlugs).Find(&genres).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to resolve genres: %w", err)
		}
		known := make(map[string]bool, len(genres))
		for _, g := range genres {
			known[g.Slug] = true
		}
		for _, slug := range genreSlugs {
			if !known[slug] {
				verr.add("genre", fmt.Sprintf("Object with slug=%s does not exist.", slug))
				break
			}
		}
	}

	if len(verr.Fields) > 0 {
		return nil, nil, verr
	}
	return category, genres, nil
}

// withRatings shapes titles for output and attaches ratings in one
// aggregate query.
func (s *TitleService) withRatings(ctx context.Context, titles []models.Title) ([]TitleResponse, error) {
	ids := make([]uint, len(titles))
	for i, t := range titles {
		ids[i] = t.ID
	}

	ratings, err := loadRatings(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	responses := make([]TitleResponse, len(titles))
	for i, t := range titles {
		genres := t.Genres
		if genres == nil {
			genres = []models.Genre{}
		}
		responses[i] = TitleResponse{
			ID:          t.ID,
			Name:        t.Name,
			Year:        t.Year,
			Description: t.Description,
			Category:    t.Category,
			Genre:       genres,
		}
		if rating, ok := ratings[t.ID]; ok {
			r := rating
			responses[i].Rating = &r
		}
	}
	return responses, nil
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
