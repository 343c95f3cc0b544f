package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	apperrors "github.com/pageza/recipe-api/backend/internal/errors"
	"github.com/pageza/recipe-api/backend/internal/models"
	"github.com/pageza/recipe-api/backend/internal/storage"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
	"gorm.io/gorm"
)

const msgInvalidImage = "upload a valid image. The file you uploaded was either not an image or a corrupted image"

// maxImagePixels bounds the decoded size of an upload; headers declaring
// more are rejected before any pixel buffer is allocated.
const maxImagePixels int64 = 89_478_485

var errTooManyPixels = errors.New("image dimensions exceed the pixel limit")

// extensions accepted as-is from the uploaded filename
var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// RecipeImageService stores and removes recipe images.
type RecipeImageService struct {
	db       *gorm.DB
	store    storage.ImageStore
	maxBytes int64
	log      *zap.Logger
	newName  func() string
}

// NewRecipeImageService creates a new RecipeImageService instance
func NewRecipeImageService(db *gorm.DB, store storage.ImageStore, maxBytes int64, log *zap.Logger) *RecipeImageService {
	return &RecipeImageService{
		db:       db,
		store:    store,
		maxBytes: maxBytes,
		log:      log,
		newName:  uuid.NewString,
	}
}

// MaxBytes is the largest accepted upload.
func (s *RecipeImageService) MaxBytes() int64 {
	return s.maxBytes
}

// URL maps a stored image key to the URL clients fetch it from.
func (s *RecipeImageService) URL(key string) string {
	return s.store.URL(key)
}

// AttachImage validates data as an image, stores it and records it on the
// recipe. On any validation failure the recipe is left untouched.
func (s *RecipeImageService) AttachImage(ctx context.Context, userID, recipeID uint, filename string, data []byte) (*models.Recipe, error) {
	db := s.db.WithContext(ctx)

	var recipe models.Recipe
	if err := db.Where("id = ? AND user_id = ?", recipeID, userID).First(&recipe).Error; err != nil {
		if apperrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	if len(data) == 0 {
		return nil, apperrors.FieldError("image", "the submitted file is empty")
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, apperrors.FieldError("image", fmt.Sprintf("file exceeds the maximum size of %d bytes", s.maxBytes))
	}

	format, err := decodeImage(data)
	if err != nil {
		return nil, apperrors.FieldError("image", msgInvalidImage).WithCause(err)
	}

	key := s.imageKey(recipe.ID, filename, format)
	if err := s.store.Save(ctx, key, data, "image/"+format); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	if err := db.Model(&recipe).Update("image", key).Error; err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.Warn("failed to clean up orphaned image",
				zap.String("key", key),
				zap.Error(delErr),
			)
		}
		return nil, fmt.Errorf("failed to record image: %w", err)
	}

	s.log.Info("recipe image stored",
		zap.Uint("recipe_id", recipe.ID),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	recipe.Image = &key
	return &recipe, nil
}

// RemoveImage deletes the recipe's image blob and clears the reference.
// Calling it on a recipe without an image is a no-op.
func (s *RecipeImageService) RemoveImage(ctx context.Context, recipe *models.Recipe) error {
	if recipe.Image == nil || *recipe.Image == "" {
		return nil
	}

	if err := s.store.Delete(ctx, *recipe.Image); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	err := s.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Where("id = ?", recipe.ID).
		Update("image", nil).Error
	if err != nil {
		return fmt.Errorf("failed to clear image: %w", err)
	}

	s.log.Info("recipe image removed",
		zap.Uint("recipe_id", recipe.ID),
		zap.String("key", *recipe.Image),
	)
	recipe.Image = nil
	return nil
}

// imageKey builds uploads/recipe/<id>/<uuid><ext>. The extension of the
// original filename is kept when it is a known image type.
func (s *RecipeImageService) imageKey(recipeID uint, filename, format string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if !imageExtensions[ext] {
		ext = "." + format
		if format == "jpeg" {
			ext = ".jpg"
		}
	}
	return path.Join("uploads", "recipe", strconv.FormatUint(uint64(recipeID), 10), s.newName()+ext)
}

// decodeImage fully decodes data and returns the registered format name.
func decodeImage(data []byte) (string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return "", fmt.Errorf("%w: %dx%d", errTooManyPixels, cfg.Width, cfg.Height)
	}
	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		return "", err
	}
	return format, nil
}
