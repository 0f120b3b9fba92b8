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

// UserService covers admin account management and the caller's own
// profile.
type UserService struct {
	db    *gorm.DB
	authz *authz.Enforcer
}

func NewUserService(db *gorm.DB, enforcer *authz.Enforcer) *UserService {
	return &UserService{db: db, authz: enforcer}
}

type UserFilter struct {
	Role     string
	Search   string
	Ordering string // "username" or "-username"
}

type CreateUserRequest struct {
	Username  string `json:"username" validate:"required,max=150,username,notme"`
	Email     string `json:"email" validate:"required,max=254,email"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Bio       string `json:"bio" validate:"max=4000"`
	Role      string `json:"role" validate:"omitempty,role"`
}

// UpdateUserRequest is the admin partial update. Username is accepted only
// to be rejected: handles never change.
type UpdateUserRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email" validate:"omitempty,max=254,email"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	Bio       *string `json:"bio" validate:"omitempty,max=4000"`
	Role      *string `json:"role" validate:"omitempty,role"`
}

// UpdateProfileRequest has no username, email or role, so whatever the
// client sends for those is dropped at decode time.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	Bio       *string `json:"bio" validate:"omitempty,max=4000"`
}

const (
	duplicateUsernameMessage = "A user with that username already exists."
	duplicateEmailMessage    = "A user with this email already exists."
)

func (s *UserService) List(ctx context.Context, p authz.Principal, filter UserFilter, page utils.Page) ([]models.User, int64, error) {
	if err := s.authz.Authorize(p, authz.ActionRead, authz.KindUser, 0); err != nil {
		return nil, 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	query := s.db.WithContext(ctx).Model(&models.User{})
	if role := strings.TrimSpace(filter.Role); role != "" {
		query = query.Where("role = ?", role)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		term := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", term, term)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	order := "id ASC"
	switch filter.Ordering {
	case "username":
		order = "username ASC"
	case "-username":
		order = "username DESC"
	}

	users := make([]models.User, 0)
	if total > 0 {
		if err := query.Order(order).Offset(page.Offset).Limit(page.Limit).Find(&users).Error; err != nil {
			return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
		}
	}
	return users, total, nil
}

func (s *UserService) Get(ctx context.Context, p authz.Principal, username string) (*models.User, error) {
	if err := s.authz.AuthorizeKind(p, authz.ActionRead, authz.KindUser); err != nil {
		return nil, err
	}
	return s.byUsername(ctx, username)
}

func (s *UserService) Create(ctx context.Context, p authz.Principal, req CreateUserRequest) (*models.User, error) {
	if err := s.authz.Authorize(p, authz.ActionCreate, authz.KindUser, 0); err != nil {
		return nil, err
	}
	return CreateAccount(ctx, s.db, req)
}

// CreateAccount validates and inserts a user without an authorization
// check. The HTTP path reaches it through Create; the admin CLI calls it
// directly to bootstrap the first admin.
func CreateAccount(ctx context.Context, db *gorm.DB, req CreateUserRequest) (*models.User, error) {
	req.Username = utils.SanitizeString(req.Username)
	req.Email = strings.ToLower(utils.SanitizeString(req.Email))
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	role := models.Role(req.Role)
	if role == "" {
		role = models.RoleUser
	}

	user := models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: utils.SanitizeString(req.FirstName),
		LastName:  utils.SanitizeString(req.LastName),
		Bio:       req.Bio,
		Role:      role,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateAccountError(ctx, db, user.Username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// duplicateAccountError names the column that collided. The username is
// checked first; if it is free the email must be the taken one.
func duplicateAccountError(ctx context.Context, db *gorm.DB, username string) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	if count > 0 {
		return NewFieldError("username", duplicateUsernameMessage)
	}
	return NewFieldError("email", duplicateEmailMessage)
}

func (s *UserService) Update(ctx context.Context, p authz.Principal, username string, req UpdateUserRequest) (*models.User, error) {
	if err := s.authz.AuthorizeKind(p, authz.ActionUpdate, authz.KindUser); err != nil {
		return nil, err
	}

	user, err := s.byUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(p, authz.ActionUpdate, authz.KindUser, user.ID); err != nil {
		return nil, err
	}

	if req.Username != nil {
		return nil, NewFieldError("username", "This field cannot be changed.")
	}
	if req.Email != nil {
		email := strings.ToLower(utils.SanitizeString(*req.Email))
		req.Email = &email
	}
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	updates := profileUpdates(req.FirstName, req.LastName, req.Bio)
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}

	return s.apply(ctx, user, updates)
}

func (s *UserService) Delete(ctx context.Context, p authz.Principal, username string) error {
	if err := s.authz.AuthorizeKind(p, authz.ActionDelete, authz.KindUser); err != nil {
		return err
	}

	user, err := s.byUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(p, authz.ActionDelete, authz.KindUser, user.ID); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.User{}, user.ID).Error; err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *UserService) Profile(ctx context.Context, p authz.Principal) (*models.User, error) {
	if err := s.authz.Authorize(p, authz.ActionRead, authz.KindProfile, p.UserID); err != nil {
		return nil, err
	}
	return s.byID(ctx, p.UserID)
}

func (s *UserService) UpdateProfile(ctx context.Context, p authz.Principal, req UpdateProfileRequest) (*models.User, error) {
	if err := s.authz.Authorize(p, authz.ActionUpdate, authz.KindProfile, p.UserID); err != nil {
		return nil, err
	}
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	user, err := s.byID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, user, profileUpdates(req.FirstName, req.LastName, req.Bio))
}

func (s *UserService) apply(ctx context.Context, user *models.User, updates map[string]interface{}) (*models.User, error) {
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, NewFieldError("email", duplicateEmailMessage)
			}
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}
	return s.byID(ctx, user.ID)
}

func profileUpdates(firstName, lastName, bio *string) map[string]interface{} {
	updates := make(map[string]interface{})
	if firstName != nil {
		updates["first_name"] = utils.SanitizeString(*firstName)
	}
	if lastName != nil {
		updates["last_name"] = utils.SanitizeString(*lastName)
	}
	if bio != nil {
		updates["bio"] = *bio
	}
	return updates
}

func (s *UserService) byUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, lookupError("user", err)
	}
	return &user, nil
}

func (s *UserService) byID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, lookupError("user", err)
	}
	return &user, nil
}
