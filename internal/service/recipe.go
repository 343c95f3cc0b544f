package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/pageza/recipe-api/backend/internal/errors"
	"github.com/pageza/recipe-api/backend/internal/models"
	"github.com/pageza/recipe-api/backend/internal/types"
	"github.com/pageza/recipe-api/backend/internal/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UpdateMode selects between PUT and PATCH semantics.
type UpdateMode int

const (
	// UpdatePartial changes only the supplied fields.
	UpdatePartial UpdateMode = iota
	// UpdateFull requires every writable field; omitted associations are
	// cleared and an omitted link is reset.
	UpdateFull
)

// RecipeFilter narrows a recipe listing. Within one dimension any id
// matches; both dimensions must match when set.
type RecipeFilter struct {
	TagIDs        []uint
	IngredientIDs []uint
}

// ParseRecipeFilter builds a filter from the raw query values.
func ParseRecipeFilter(tags, ingredients string) (RecipeFilter, error) {
	tagIDs, tagErr := ParseIDList("tags", tags)
	ingredientIDs, ingredientErr := ParseIDList("ingredients", ingredients)
	if err := validation.Merge(tagErr, ingredientErr); err != nil {
		return RecipeFilter{}, err
	}
	return RecipeFilter{TagIDs: tagIDs, IngredientIDs: ingredientIDs}, nil
}

// RecipeService handles recipe operations scoped to the acting user.
type RecipeService struct {
	db        *gorm.DB
	assoc     *AssociationManager
	images    *RecipeImageService
	validator *validation.Validator
	log       *zap.Logger
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, assoc *AssociationManager, images *RecipeImageService, log *zap.Logger) *RecipeService {
	return &RecipeService{
		db:        db,
		assoc:     assoc,
		images:    images,
		validator: validation.New(),
		log:       log,
	}
}

// List returns the user's recipes, newest first.
func (s *RecipeService) List(ctx context.Context, userID uint, filter RecipeFilter) ([]models.Recipe, error) {
	recipes := []models.Recipe{}
	err := s.db.WithContext(ctx).
		Scopes(FilterByTags(filter.TagIDs), FilterByIngredients(filter.IngredientIDs)).
		Where("recipes.user_id = ?", userID).
		Preload("Tags", orderByID("tags")).
		Preload("Ingredients", orderByID("ingredients")).
		Order("recipes.id DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}

// Get returns one of the user's recipes with its associations.
func (s *RecipeService) Get(ctx context.Context, userID, id uint) (*models.Recipe, error) {
	return s.load(s.db.WithContext(ctx), userID, id, true)
}

// Create stores a new recipe owned by userID.
func (s *RecipeService) Create(ctx context.Context, userID uint, req *types.RecipeRequest) (*models.Recipe, error) {
	if err := s.validate(req, UpdateFull); err != nil {
		return nil, err
	}
	tagIDs, ingredientIDs, err := s.resolveAssociations(s.db.WithContext(ctx), userID, req)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		UserID:      userID,
		Title:       strings.TrimSpace(*req.Title),
		TimeMinutes: *req.TimeMinutes,
		Price:       *req.Price,
	}
	if req.Link != nil {
		recipe.Link = strings.TrimSpace(*req.Link)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Ingredients").Create(recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		if tagIDs != nil {
			if err := s.assoc.Associate(tx, recipe, TagRelation, tagIDs); err != nil {
				return err
			}
		}
		if ingredientIDs != nil {
			if err := s.assoc.Associate(tx, recipe, IngredientRelation, ingredientIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID, recipe.ID)
}

// Update applies req to one of the user's recipes.
func (s *RecipeService) Update(ctx context.Context, userID, id uint, req *types.RecipeRequest, mode UpdateMode) (*models.Recipe, error) {
	if err := s.validate(req, mode); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	recipe, err := s.load(db, userID, id, false)
	if err != nil {
		return nil, err
	}

	tagIDs, ingredientIDs, err := s.resolveAssociations(db, userID, req)
	if err != nil {
		return nil, err
	}
	if mode == UpdateFull {
		if tagIDs == nil {
			tagIDs = []uint{}
		}
		if ingredientIDs == nil {
			ingredientIDs = []uint{}
		}
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.TimeMinutes != nil {
		updates["time_minutes"] = *req.TimeMinutes
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Link != nil {
		updates["link"] = strings.TrimSpace(*req.Link)
	} else if mode == UpdateFull {
		updates["link"] = ""
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(recipe).Omit("Tags", "Ingredients").Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update recipe: %w", err)
			}
		}
		if tagIDs != nil {
			if err := s.assoc.Associate(tx, recipe, TagRelation, tagIDs); err != nil {
				return err
			}
		}
		if ingredientIDs != nil {
			if err := s.assoc.Associate(tx, recipe, IngredientRelation, ingredientIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID, id)
}

// Delete removes one of the user's recipes and its image. Tags and
// ingredients are kept.
func (s *RecipeService) Delete(ctx context.Context, userID, id uint) error {
	db := s.db.WithContext(ctx)
	recipe, err := s.load(db, userID, id, false)
	if err != nil {
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := s.assoc.Clear(tx, recipe.ID, TagRelation); err != nil {
			return err
		}
		if err := s.assoc.Clear(tx, recipe.ID, IngredientRelation); err != nil {
			return err
		}
		if err := tx.Delete(&models.Recipe{}, recipe.ID).Error; err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if recipe.Image != nil {
		if err := s.images.RemoveImage(ctx, recipe); err != nil {
			s.log.Warn("failed to remove image of deleted recipe",
				zap.Uint("recipe_id", recipe.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// validate runs the structural checks. Create uses UpdateFull.
func (s *RecipeService) validate(req *types.RecipeRequest, mode UpdateMode) error {
	structErr := s.validator.Validate(req)
	if mode != UpdateFull {
		return structErr
	}
	return validation.Merge(structErr, validation.RequireFields(map[string]any{
		"title":        req.Title,
		"time_minutes": req.TimeMinutes,
		"price":        req.Price,
	}))
}

// resolveAssociations checks ownership of the supplied ids. A nil result
// means the field was not supplied.
func (s *RecipeService) resolveAssociations(db *gorm.DB, userID uint, req *types.RecipeRequest) ([]uint, []uint, error) {
	var tagIDs, ingredientIDs []uint
	var tagErr, ingredientErr error
	if req.Tags != nil {
		tagIDs, tagErr = s.assoc.Resolve(db, userID, TagRelation, *req.Tags)
	}
	if req.Ingredients != nil {
		ingredientIDs, ingredientErr = s.assoc.Resolve(db, userID, IngredientRelation, *req.Ingredients)
	}
	if err := validation.Merge(tagErr, ingredientErr); err != nil {
		return nil, nil, err
	}
	return tagIDs, ingredientIDs, nil
}

// load fetches a recipe owned by userID. Records of other users are
// reported as missing.
func (s *RecipeService) load(db *gorm.DB, userID, id uint, withAssociations bool) (*models.Recipe, error) {
	query := db.Where("id = ? AND user_id = ?", id, userID)
	if withAssociations {
		query = query.
			Preload("Tags", orderByID("tags")).
			Preload("Ingredients", orderByID("ingredients"))
	}

	var recipe models.Recipe
	err := query.First(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("recipe not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &recipe, nil
}

func orderByID(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".id")
	}
}
