package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/qrcs/qrcs/internal/authz"
	"github.com/qrcs/qrcs/internal/models"
	apperrors "github.com/qrcs/qrcs/pkg/errors"
)

// CategoryInput carries the writable fields of an incident category.
type CategoryInput struct {
	Name          string
	Description   string
	PriorityLevel int
	Icon          string
}

// CategoryService manages the incident category catalogue. Writes are
// admin only; every authenticated user may read.
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(db *gorm.DB) (*CategoryService, error) {
	if db == nil {
		return nil, errors.New("category service: db is required")
	}
	return &CategoryService{db: db}, nil
}

// List returns all categories ordered by priority then name.
func (s *CategoryService) List(ctx context.Context) ([]models.IncidentCategory, error) {
	ctx = ensureContext(ctx)

	var categories []models.IncidentCategory
	if err := s.db.WithContext(ctx).
		Order("priority_level ASC, name ASC").
		Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("category service: list categories: %w", err)
	}
	return categories, nil
}

// Create adds a category. Admin only.
func (s *CategoryService) Create(ctx context.Context, actorID string, input CategoryInput) (*models.IncidentCategory, error) {
	ctx = ensureContext(ctx)

	actor, err := loadActor(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}
	if !authz.CanManageCategories(actor.Role) {
		return nil, apperrors.ErrForbidden
	}

	name := trimmed(input.Name)
	if name == "" {
		return nil, apperrors.NewValidation("category name is required")
	}
	if input.PriorityLevel < 1 || input.PriorityLevel > 5 {
		return nil, apperrors.NewValidation("priority level must be between 1 and 5")
	}

	category := models.IncidentCategory{
		Name:          name,
		Description:   trimmed(input.Description),
		PriorityLevel: input.PriorityLevel,
		Icon:          trimmed(input.Icon),
	}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewConflict("category name already exists")
		}
		return nil, fmt.Errorf("category service: create category: %w", err)
	}
	return &category, nil
}

// Update modifies a category. Admin only.
func (s *CategoryService) Update(ctx context.Context, actorID, categoryID string, input CategoryInput) (*models.IncidentCategory, error) {
	ctx = ensureContext(ctx)

	actor, err := loadActor(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}
	if !authz.CanManageCategories(actor.Role) {
		return nil, apperrors.ErrForbidden
	}

	var category models.IncidentCategory
	if err := s.db.WithContext(ctx).First(&category, "id = ?", trimmed(categoryID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("category service: load category: %w", err)
	}

	updates := map[string]any{}
	if name := trimmed(input.Name); name != "" {
		updates["name"] = name
	}
	if desc := trimmed(input.Description); desc != "" {
		updates["description"] = desc
	}
	if input.PriorityLevel != 0 {
		if input.PriorityLevel < 1 || input.PriorityLevel > 5 {
			return nil, apperrors.NewValidation("priority level must be between 1 and 5")
		}
		updates["priority_level"] = input.PriorityLevel
	}
	if icon := trimmed(input.Icon); icon != "" {
		updates["icon"] = icon
	}
	if len(updates) == 0 {
		return &category, nil
	}

	if err := s.db.WithContext(ctx).Model(&category).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewConflict("category name already exists")
		}
		return nil, fmt.Errorf("category service: update category: %w", err)
	}
	return &category, nil
}

// Delete removes a category that no incident references. Admin only.
func (s *CategoryService) Delete(ctx context.Context, actorID, categoryID string) error {
	ctx = ensureContext(ctx)

	actor, err := loadActor(ctx, s.db, actorID)
	if err != nil {
		return err
	}
	if !authz.CanManageCategories(actor.Role) {
		return apperrors.ErrForbidden
	}

	var category models.IncidentCategory
	if err := s.db.WithContext(ctx).First(&category, "id = ?", trimmed(categoryID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("category service: load category: %w", err)
	}

	var inUse int64
	if err := s.db.WithContext(ctx).
		Model(&models.Incident{}).
		Where("category_id = ?", category.ID).
		Count(&inUse).Error; err != nil {
		return fmt.Errorf("category service: count incidents: %w", err)
	}
	if inUse > 0 {
		return apperrors.NewConflict("category is referenced by existing incidents")
	}

	if err := s.db.WithContext(ctx).Delete(&category).Error; err != nil {
		return fmt.Errorf("category service: delete category: %w", err)
	}
	return nil
}
