package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/pageza/recipe-api/backend/internal/errors"
	"github.com/pageza/recipe-api/backend/internal/models"
	"gorm.io/gorm"
)

// Relation describes one many-to-many link between recipes and an
// owned attribute table.
type Relation struct {
	// Field is the request/response field name, used in error details.
	Field        string
	targetTable  string
	joinTable    string
	targetColumn string
	model        interface{}
	newRow       func(recipeID, targetID uint) interface{}
}

var (
	TagRelation = Relation{
		Field:        "tags",
		targetTable:  "tags",
		joinTable:    "recipe_tags",
		targetColumn: "tag_id",
		model:        &models.RecipeTag{},
		newRow: func(recipeID, targetID uint) interface{} {
			return &models.RecipeTag{RecipeID: recipeID, TagID: targetID}
		},
	}
	IngredientRelation = Relation{
		Field:        "ingredients",
		targetTable:  "ingredients",
		joinTable:    "recipe_ingredients",
		targetColumn: "ingredient_id",
		model:        &models.RecipeIngredient{},
		newRow: func(recipeID, targetID uint) interface{} {
			return &models.RecipeIngredient{RecipeID: recipeID, IngredientID: targetID}
		},
	}
)

// AssociationManager keeps a recipe's tag and ingredient sets in sync.
type AssociationManager struct{}

// NewAssociationManager creates a new AssociationManager instance
func NewAssociationManager() *AssociationManager {
	return &AssociationManager{}
}

// Resolve de-duplicates ids and checks that each one names a record owned
// by userID. The first unknown id is reported against the relation field.
func (m *AssociationManager) Resolve(db *gorm.DB, userID uint, rel Relation, ids []uint) ([]uint, error) {
	wanted := dedupe(ids)
	if len(wanted) == 0 {
		return wanted, nil
	}
	for _, id := range wanted {
		if uint64(id) > math.MaxInt64 {
			return nil, apperrors.FieldError(rel.Field, fmt.Sprintf("invalid id %d - object does not exist", id))
		}
	}

	var owned []uint
	err := db.Table(rel.targetTable).
		Where("user_id = ? AND id IN ?", userID, wanted).
		Pluck("id", &owned).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", rel.Field, err)
	}

	ownedSet := toSet(owned)
	for _, id := range wanted {
		if _, ok := ownedSet[id]; !ok {
			return nil, apperrors.FieldError(rel.Field, fmt.Sprintf("invalid id %d - object does not exist", id))
		}
	}
	return wanted, nil
}

// Associate replaces the recipe's membership in rel with exactly ids.
// It must run inside the caller's transaction.
func (m *AssociationManager) Associate(tx *gorm.DB, recipe *models.Recipe, rel Relation, ids []uint) error {
	wanted, err := m.Resolve(tx, recipe.UserID, rel, ids)
	if err != nil {
		return err
	}

	var current []uint
	err = tx.Table(rel.joinTable).
		Where("recipe_id = ?", recipe.ID).
		Pluck(rel.targetColumn, &current).Error
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", rel.Field, err)
	}

	currentSet := toSet(current)
	wantedSet := toSet(wanted)

	var stale []uint
	for _, id := range current {
		if _, ok := wantedSet[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		err := tx.Where("recipe_id = ? AND "+rel.targetColumn+" IN ?", recipe.ID, stale).
			Delete(rel.model).Error
		if err != nil {
			return fmt.Errorf("failed to unlink %s: %w", rel.Field, err)
		}
	}

	for _, id := range wanted {
		if _, ok := currentSet[id]; ok {
			continue
		}
		if err := tx.Create(rel.newRow(recipe.ID, id)).Error; err != nil {
			return fmt.Errorf("failed to link %s: %w", rel.Field, err)
		}
	}
	return nil
}

// Clear removes every link of the recipe in rel.
func (m *AssociationManager) Clear(tx *gorm.DB, recipeID uint, rel Relation) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(rel.model).Error; err != nil {
		return fmt.Errorf("failed to unlink %s: %w", rel.Field, err)
	}
	return nil
}

// ParseIDList parses a comma-separated id list from a query parameter.
// An empty value means no filtering and yields nil.
func ParseIDList(field, raw string) ([]uint, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		id, err := strconv.ParseUint(part, 10, 63)
		if err != nil || id == 0 {
			return nil, apperrors.FieldError(field, fmt.Sprintf("%q is not a valid id", part))
		}
		ids = append(ids, uint(id))
	}
	return dedupe(ids), nil
}

// FilterByTags keeps recipes linked to any of ids. Empty ids leave the
// query unchanged.
func FilterByTags(ids []uint) func(*gorm.DB) *gorm.DB {
	return filterBy(TagRelation, ids)
}

// FilterByIngredients keeps recipes linked to any of ids.
func FilterByIngredients(ids []uint) func(*gorm.DB) *gorm.DB {
	return filterBy(IngredientRelation, ids)
}

func filterBy(rel Relation, ids []uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(ids) == 0 {
			return db
		}
		sub := db.Session(&gorm.Session{NewDB: true}).
			Table(rel.joinTable).
			Select("recipe_id").
			Where(rel.targetColumn+" IN ?", ids)
		return db.Where("recipes.id IN (?)", sub)
	}
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func toSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
