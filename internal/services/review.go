package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/princeprakhar/yamdb-backend/internal/authz"
	"github.com/princeprakhar/yamdb-backend/internal/models"
	"github.com/princeprakhar/yamdb-backend/internal/utils"
	"gorm.io/gorm"
)

type ReviewService struct {
	db    *gorm.DB
	authz *authz.Enforcer
}

func NewReviewService(db *gorm.DB, enforcer *authz.Enforcer) *ReviewService {
	return &ReviewService{db: db, authz: enforcer}
}

type CreateReviewRequest struct {
	Text  string `json:"text" validate:"required"`
	Score *int   `json:"score" validate:"required,min=1,max=10"`
}

// UpdateReviewRequest only reaches text and score; author, title and
// pub_date are fixed at creation.
type UpdateReviewRequest struct {
	Text  *string `json:"text" validate:"omitempty,min=1"`
	Score *int    `json:"score" validate:"omitempty,min=1,max=10"`
}

type ReviewResponse struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

const duplicateReviewMessage = "You have already reviewed this title."

func (s *ReviewService) List(ctx context.Context, p authz.Principal, titleID uint, page utils.Page) ([]ReviewResponse, int64, error) {
	if err := s.authz.Authorize(p, authz.ActionRead, authz.KindReview, 0); err != nil {
		return nil, 0, err
	}
	if err := s.titleExists(ctx, titleID); err != nil {
		return nil, 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	query := s.db.WithContext(ctx).Model(&models.Review{}).Where("title_id = ?", titleID).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	var reviews []models.Review
	if total > 0 {
		if err := query.
			Preload("Author").
			Order("pub_date ASC, id ASC").
			Offset(page.Offset).
			Limit(page.Limit).
			Find(&reviews).Error; err != nil {
			return nil, 0, fmt.Errorf("failed to fetch reviews: %w", err)
		}
	}

	response := make([]ReviewResponse, 0, len(reviews))
	for i := range reviews {
		response = append(response, newReviewResponse(&reviews[i]))
	}
	return response, total, nil
}

func (s *ReviewService) Get(ctx context.Context, p authz.Principal, titleID, reviewID uint) (*ReviewResponse, error) {
	if err := s.authz.Authorize(p, authz.ActionRead, authz.KindReview, 0); err != nil {
		return nil, err
	}

	review, err := findReview(ctx, s.db, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	resp := newReviewResponse(review)
	return &resp, nil
}

// Create relies on the (author, title) unique index to reject a second
// review; two concurrent attempts resolve to one insert and one
// ValidationError.
func (s *ReviewService) Create(ctx context.Context, p authz.Principal, titleID uint, req CreateReviewRequest) (*ReviewResponse, error) {
	if err := s.authz.Authorize(p, authz.ActionCreate, authz.KindReview, 0); err != nil {
		return nil, err
	}
	if err := s.titleExists(ctx, titleID); err != nil {
		return nil, err
	}

	req.Text = utils.SanitizeString(req.Text)
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	review := models.Review{
		Text:     req.Text,
		Score:    *req.Score,
		AuthorID: p.UserID,
		TitleID:  titleID,
	}
	if err := s.db.WithContext(ctx).Create(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, notFound("title")
		}
		return nil, writeError("create review", err, NonFieldErrors, duplicateReviewMessage)
	}

	return s.Get(ctx, p, titleID, review.ID)
}

func (s *ReviewService) Update(ctx context.Context, p authz.Principal, titleID, reviewID uint, req UpdateReviewRequest) (*ReviewResponse, error) {
	if err := s.authz.AuthorizeKind(p, authz.ActionUpdate, authz.KindReview); err != nil {
		return nil, err
	}

	review, err := findReview(ctx, s.db, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(p, authz.ActionUpdate, authz.KindReview, review.AuthorID); err != nil {
		return nil, err
	}

	if req.Text != nil {
		trimmed := utils.SanitizeString(*req.Text)
		req.Text = &trimmed
	}
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Text != nil {
		updates["text"] = *req.Text
	}
	if req.Score != nil {
		updates["score"] = *req.Score
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Review{ID: review.ID}).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update review: %w", err)
		}
	}

	return s.Get(ctx, p, titleID, reviewID)
}

// Delete removes the review and, through the foreign key cascade, its
// comments.
func (s *ReviewService) Delete(ctx context.Context, p authz.Principal, titleID, reviewID uint) error {
	if err := s.authz.AuthorizeKind(p, authz.ActionDelete, authz.KindReview); err != nil {
		return err
	}

	review, err := findReview(ctx, s.db, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(p, authz.ActionDelete, authz.KindReview, review.AuthorID); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Review{}, review.ID).Error; err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

func (s *ReviewService) titleExists(ctx context.Context, titleID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Title{}).Where("id = ?", titleID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to fetch title: %w", err)
	}
	if count == 0 {
		return notFound("title")
	}
	return nil
}

// findReview loads a review only if it belongs to titleID. A review that
// exists under another title is reported as not found.
func findReview(ctx context.Context, db *gorm.DB, titleID, reviewID uint) (*models.Review, error) {
	var review models.Review
	if err := db.WithContext(ctx).
		Preload("Author").
		Where("id = ? AND title_id = ?", reviewID, titleID).
		First(&review).Error; err != nil {
		return nil, lookupError("review", err)
	}
	return &review, nil
}

func newReviewResponse(review *models.Review) ReviewResponse {
	resp := ReviewResponse{
		ID:      review.ID,
		Text:    review.Text,
		Score:   review.Score,
		PubDate: review.PubDate,
	}
	if review.Author != nil {
		resp.Author = review.Author.Username
	}
	return resp
}
