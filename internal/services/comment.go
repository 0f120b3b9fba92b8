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

type CommentService struct {
	db    *gorm.DB
	authz *authz.Enforcer
}

func NewCommentService(db *gorm.DB, enforcer *authz.Enforcer) *CommentService {
	return &CommentService{db: db, authz: enforcer}
}

type CommentRequest struct {
	Text string `json:"text" validate:"required"`
}

type CommentResponse struct {
	ID       uint      `json:"id"`
	Text     string    `json:"text"`
	Author   string    `json:"author"`
	ReviewID uint      `json:"review"`
	PubDate  time.Time `json:"pub_date"`
}

// Every operation first resolves the review under the title; a review that
// belongs to another title makes the whole request a not-found.

func (s *CommentService) List(ctx context.Context, p authz.Principal, titleID, reviewID uint, page utils.Page) ([]CommentResponse, int64, error) {
	if err := s.authz.Authorize(p, authz.ActionRead, authz.KindComment, 0); err != nil {
		return nil, 0, err
	}
	if _, err := findReview(ctx, s.db, titleID, reviewID); err != nil {
		return nil, 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	query := s.db.WithContext(ctx).Model(&models.Comment{}).Where("review_id = ?", reviewID).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}

	var comments []models.Comment
	if total > 0 {
		if err := query.
			Preload("Author").
			Order("pub_date DESC, id DESC").
			Offset(page.Offset).
			Limit(page.Limit).
			Find(&comments).Error; err != nil {
			return nil, 0, fmt.Errorf("failed to fetch comments: %w", err)
		}
	}

	response := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		response = append(response, newCommentResponse(&comments[i]))
	}
	return response, total, nil
}

func (s *CommentService) Get(ctx context.Context, p authz.Principal, titleID, reviewID, commentID uint) (*CommentResponse, error) {
	if err := s.authz.Authorize(p, authz.ActionRead, authz.KindComment, 0); err != nil {
		return nil, err
	}

	comment, err := s.find(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	resp := newCommentResponse(comment)
	return &resp, nil
}

func (s *CommentService) Create(ctx context.Context, p authz.Principal, titleID, reviewID uint, req CommentRequest) (*CommentResponse, error) {
	if err := s.authz.Authorize(p, authz.ActionCreate, authz.KindComment, 0); err != nil {
		return nil, err
	}
	if _, err := findReview(ctx, s.db, titleID, reviewID); err != nil {
		return nil, err
	}

	req.Text = utils.SanitizeString(req.Text)
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	comment := models.Comment{
		Text:     req.Text,
		AuthorID: p.UserID,
		ReviewID: reviewID,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, notFound("review")
		}
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return s.Get(ctx, p, titleID, reviewID, comment.ID)
}

func (s *CommentService) Update(ctx context.Context, p authz.Principal, titleID, reviewID, commentID uint, req CommentRequest) (*CommentResponse, error) {
	if err := s.authz.AuthorizeKind(p, authz.ActionUpdate, authz.KindComment); err != nil {
		return nil, err
	}

	comment, err := s.find(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(p, authz.ActionUpdate, authz.KindComment, comment.AuthorID); err != nil {
		return nil, err
	}

	req.Text = utils.SanitizeString(req.Text)
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&models.Comment{ID: comment.ID}).Update("text", req.Text).Error; err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	return s.Get(ctx, p, titleID, reviewID, commentID)
}

func (s *CommentService) Delete(ctx context.Context, p authz.Principal, titleID, reviewID, commentID uint) error {
	if err := s.authz.AuthorizeKind(p, authz.ActionDelete, authz.KindComment); err != nil {
		return err
	}

	comment, err := s.find(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(p, authz.ActionDelete, authz.KindComment, comment.AuthorID); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Comment{}, comment.ID).Error; err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

func (s *CommentService) find(ctx context.Context, titleID, reviewID, commentID uint) (*models.Comment, error) {
	if _, err := findReview(ctx, s.db, titleID, reviewID); err != nil {
		return nil, err
	}

	var comment models.Comment
	if err := s.db.WithContext(ctx).
		Preload("Author").
		Where("id = ? AND review_id = ?", commentID, reviewID).
		First(&comment).Error; err != nil {
		return nil, lookupError("comment", err)
	}
	return &comment, nil
}

func newCommentResponse(comment *models.Comment) CommentResponse {
	resp := CommentResponse{
		ID:       comment.ID,
		Text:     comment.Text,
		ReviewID: comment.ReviewID,
		PubDate:  comment.PubDate,
	}
	if comment.Author != nil {
		resp.Author = comment.Author.Username
	}
	return resp
}
