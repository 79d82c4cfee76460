package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qrcs/qrcs/internal/models"
	apperrors "github.com/qrcs/qrcs/pkg/errors"
)

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     models.Role
	Phone    string
	Address  string
}

// UserService owns account lifecycle: registration, credential checks and
// the role-scoped directory listings.
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db}, nil
}

// Register creates a user with a bcrypt-hashed password. Duplicate usernames
// or emails surface as conflicts.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	username := trimmed(input.Username)
	email := trimmed(input.Email)
	if username == "" || email == "" {
		return nil, apperrors.NewValidation("username and email are required")
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewValidation("password must be at least 8 characters")
	}

	role := input.Role
	if role == "" {
		role = models.RoleReporter
	}
	if !role.Valid() {
		return nil, apperrors.NewValidation("unknown role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := models.User{
		Username:    username,
		Email:       email,
		Password:    string(hash),
		Role:        role,
		Phone:       trimmed(input.Phone),
		Address:     trimmed(input.Address),
		IsAvailable: role == models.RoleResponder,
		IsActive:    true,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewConflict("username or email already in use")
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}
	return &user, nil
}

// Authenticate verifies a username/password pair. Failures are deliberately
// indistinguishable between unknown users and wrong passwords.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "username = ?", trimmed(username)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	if !user.IsActive {
		return nil, apperrors.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	return &user, nil
}

// Get loads a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", trimmed(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}
	return &user, nil
}

// List returns the directory visible to the actor: admins see everyone,
// responders see responders and reporters, reporters see only themselves.
func (s *UserService) List(ctx context.Context, actorID string) ([]models.User, error) {
	ctx = ensureContext(ctx)

	actor, err := loadActor(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.User{}).Where("is_active = ?", true)
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleResponder:
		query = query.Where("role IN ?", []models.Role{models.RoleResponder, models.RoleReporter})
	default:
		query = query.Where("id = ?", actor.ID)
	}

	var users []models.User
	if err := query.Order("username ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("user service: list users: %w", err)
	}
	return users, nil
}

// ToggleAvailability flips a responder's availability flag. Only responders
// carry the flag; anyone else is refused.
func (s *UserService) ToggleAvailability(ctx context.Context, actorID string) (*models.User, error) {
	ctx = ensureContext(ctx)

	actor, err := loadActor(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleResponder {
		return nil, apperrors.ErrForbidden
	}

	next := !actor.IsAvailable
	if err := s.db.WithContext(ctx).Model(actor).
		Update("is_available", next).Error; err != nil {
		return nil, fmt.Errorf("user service: toggle availability: %w", err)
	}
	actor.IsAvailable = next
	return actor, nil
}
