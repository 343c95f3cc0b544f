package testhelpers

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/pageza/recipe-api/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of users created by CreateUser.
const DefaultPassword = "testpass123"

// CreateUser inserts an active user with DefaultPassword.
func CreateUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{Email: email, Name: "Test User", PasswordHash: string(hash), IsActive: true}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// CreateTag inserts a tag owned by userID.
func CreateTag(t *testing.T, db *gorm.DB, userID uint, name string) *models.Tag {
	t.Helper()
	tag := &models.Tag{UserID: userID, Name: name}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create tag: %v", err)
	}
	return tag
}

// CreateIngredient inserts an ingredient owned by userID.
func CreateIngredient(t *testing.T, db *gorm.DB, userID uint, name string) *models.Ingredient {
	t.Helper()
	ingredient := &models.Ingredient{UserID: userID, Name: name}
	if err := db.Create(ingredient).Error; err != nil {
		t.Fatalf("failed to create ingredient: %v", err)
	}
	return ingredient
}

// CreateRecipe inserts a recipe with default time and price.
func CreateRecipe(t *testing.T, db *gorm.DB, userID uint, title string) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{UserID: userID, Title: title, TimeMinutes: 10, Price: 500}
	if err := db.Create(recipe).Error; err != nil {
		t.Fatalf("failed to create recipe: %v", err)
	}
	return recipe
}

// LinkTags attaches tags to a recipe directly through the join table.
func LinkTags(t *testing.T, db *gorm.DB, recipeID uint, tags ...*models.Tag) {
	t.Helper()
	for _, tag := range tags {
		if err := db.Create(&models.RecipeTag{RecipeID: recipeID, TagID: tag.ID}).Error; err != nil {
			t.Fatalf("failed to link tag: %v", err)
		}
	}
}

// LinkIngredients attaches ingredients to a recipe through the join table.
func LinkIngredients(t *testing.T, db *gorm.DB, recipeID uint, ingredients ...*models.Ingredient) {
	t.Helper()
	for _, ingredient := range ingredients {
		if err := db.Create(&models.RecipeIngredient{RecipeID: recipeID, IngredientID: ingredient.ID}).Error; err != nil {
			t.Fatalf("failed to link ingredient: %v", err)
		}
	}
}

// JPEG returns a small encoded JPEG image.
func JPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, sampleImage(), nil); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// PNG returns a small encoded PNG image.
func PNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, sampleImage()); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func sampleImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 20), G: uint8(y * 20), B: 100, A: 255})
		}
	}
	return img
}
