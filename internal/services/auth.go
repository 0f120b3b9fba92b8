package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/princeprakhar/yamdb-backend/internal/config"
	"github.com/princeprakhar/yamdb-backend/internal/models"
	"github.com/princeprakhar/yamdb-backend/internal/types"
	"github.com/princeprakhar/yamdb-backend/internal/utils"
	"github.com/princeprakhar/yamdb-backend/pkg/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuthService runs the passwordless flow: sign-up mails a derived
// confirmation code, and the code is exchanged for an access token.
type AuthService struct {
	db             *gorm.DB
	mailer         Mailer
	codes          *ConfirmationCodes
	accessKey      []byte
	accessTTL      time.Duration
	tokenObtainURL string
	now            func() time.Time
}

func NewAuthService(db *gorm.DB, cfg *config.Config, mailer Mailer) *AuthService {
	return &AuthService{
		db:             db,
		mailer:         mailer,
		codes:          NewConfirmationCodes(cfg.SecretKey, cfg.ConfirmationCodeWindow, cfg.ConfirmationCodeTTL),
		accessKey:      utils.DeriveKey(cfg.SecretKey, utils.PurposeAccessToken),
		accessTTL:      cfg.AccessTokenTTL,
		tokenObtainURL: cfg.TokenObtainURL,
		now:            time.Now,
	}
}

type SignupRequest struct {
	Username string `json:"username" validate:"required,max=150,username,notme"`
	Email    string `json:"email" validate:"required,max=254,email"`
}

type TokenRequest struct {
	Username         string `json:"username" validate:"required"`
	ConfirmationCode string `json:"confirmation_code" validate:"required"`
}

const invalidCodeMessage = "Invalid confirmation code."

// Signup creates the account on first use and reuses it afterwards; either
// way a fresh code is mailed. The username must keep pointing at the same
// email address, and an address already taken by another username is
// rejected.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*types.SignupResponse, error) {
	req.Username = utils.SanitizeString(req.Username)
	req.Email = strings.ToLower(utils.SanitizeString(req.Email))
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	user, err := s.findOrCreate(ctx, req)
	if err != nil {
		return nil, err
	}

	code := s.codes.Generate(user, s.now())
	msg := renderConfirmationEmail(user.Email, user.Username, code, s.tokenObtainURL)
	if err := s.mailer.Send(ctx, msg); err != nil {
		logger.WithFields(logrus.Fields{
			"username": user.Username,
			"error":    err.Error(),
		}).Error("failed to deliver confirmation code")
		return nil, fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	return &types.SignupResponse{Username: user.Username, Email: user.Email}, nil
}

func (s *AuthService) findOrCreate(ctx context.Context, req SignupRequest) (*models.User, error) {
	user, err := s.userByUsername(ctx, req.Username)
	switch {
	case err == nil:
		return user, matchEmail(user, req.Email)
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	user = &models.User{
		Username: req.Username,
		Email:    req.Email,
		Role:     models.RoleUser,
	}
	createErr := s.db.WithContext(ctx).Create(user).Error
	if createErr == nil {
		return user, nil
	}
	if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("failed to create user: %w", createErr)
	}

	// Either a concurrent sign-up won the insert for this username, or the
	// email belongs to someone else.
	existing, err := s.userByUsername(ctx, req.Username)
	if err == nil {
		return existing, matchEmail(existing, req.Email)
	}
	if errors.Is(err, ErrNotFound) {
		return nil, NewFieldError("email", "A user with this email already exists.")
	}
	return nil, err
}

func matchEmail(user *models.User, email string) error {
	if !strings.EqualFold(user.Email, email) {
		return NewFieldError("email", "This email does not match the one registered for this username.")
	}
	return nil
}

// ObtainToken exchanges a confirmation code for an access token. A
// successful exchange moves last_login, which invalidates every code issued
// before it.
func (s *AuthService) ObtainToken(ctx context.Context, req TokenRequest) (*types.TokenResponse, error) {
	req.Username = utils.SanitizeString(req.Username)
	req.ConfirmationCode = utils.SanitizeString(req.ConfirmationCode)
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	user, err := s.userByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !s.codes.Verify(user, req.ConfirmationCode, now) {
		return nil, NewFieldError("confirmation_code", invalidCodeMessage)
	}

	// Compare-and-set on last_login so two concurrent exchanges of the same
	// code cannot both succeed.
	loginAt := now.UTC().Truncate(time.Microsecond)
	query := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID)
	if user.LastLogin == nil {
		query = query.Where("last_login IS NULL")
	} else {
		query = query.Where("last_login = ?", *user.LastLogin)
	}
	result := query.Update("last_login", loginAt)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to record login: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, NewFieldError("confirmation_code", invalidCodeMessage)
	}

	token, expiresAt, err := utils.GenerateAccessToken(user.ID, user.Username, s.accessKey, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &types.TokenResponse{Access: token, ExpiresAt: expiresAt.Unix()}, nil
}

// ResolveAccessToken turns a bearer token into its user. The user is
// reloaded on every call so role changes and deletions apply at once.
func (s *AuthService) ResolveAccessToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := utils.ValidateToken(token, s.accessKey)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to load token user: %w", err)
	}
	if user.Username != claims.Username {
		return nil, utils.ErrInvalidToken
	}
	return &user, nil
}

func (s *AuthService) userByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, lookupError("user", err)
	}
	return &user, nil
}
