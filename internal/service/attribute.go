package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pageza/recipe-api/backend/internal/models"
	"github.com/pageza/recipe-api/backend/internal/types"
	"github.com/pageza/recipe-api/backend/internal/validation"
	"gorm.io/gorm"
)

// AttributeService manages one kind of user-owned recipe attribute.
type AttributeService[T models.Tag | models.Ingredient] struct {
	db        *gorm.DB
	validator *validation.Validator
	build     func(userID uint, name string) T
}

// TagService manages tags.
type TagService = AttributeService[models.Tag]

// IngredientService manages ingredients.
type IngredientService = AttributeService[models.Ingredient]

// NewTagService creates a new TagService instance
func NewTagService(db *gorm.DB) *TagService {
	return &TagService{
		db:        db,
		validator: validation.New(),
		build: func(userID uint, name string) models.Tag {
			return models.Tag{UserID: userID, Name: name}
		},
	}
}

// NewIngredientService creates a new IngredientService instance
func NewIngredientService(db *gorm.DB) *IngredientService {
	return &IngredientService{
		db:        db,
		validator: validation.New(),
		build: func(userID uint, name string) models.Ingredient {
			return models.Ingredient{UserID: userID, Name: name}
		},
	}
}

// List returns the user's records ordered by name, descending.
func (s *AttributeService[T]) List(ctx context.Context, userID uint) ([]T, error) {
	items := []T{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name DESC").
		Order("id DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list: %w", err)
	}
	return items, nil
}

// Create stores a new record owned by userID. Any owner in the request
// is ignored.
func (s *AttributeService[T]) Create(ctx context.Context, userID uint, req *types.AttributeRequest) (*T, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	item := s.build(userID, strings.TrimSpace(req.Name))
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to create: %w", err)
	}
	return &item, nil
}
