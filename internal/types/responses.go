package types

import (
	"github.com/pageza/recipe-api/backend/internal/models"
)

// UserResponse never includes the password hash.
type UserResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewUserResponse builds the public view of a user.
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}

// RecipeResponse is the list/create/update shape: associations as ids.
type RecipeResponse struct {
	ID          uint         `json:"id"`
	Title       string       `json:"title"`
	TimeMinutes int          `json:"time_minutes"`
	Price       models.Price `json:"price"`
	Link        string       `json:"link"`
	Image       *string      `json:"image"`
	Tags        []uint       `json:"tags"`
	Ingredients []uint       `json:"ingredients"`
}

// RecipeDetailResponse embeds the full tag and ingredient objects.
type RecipeDetailResponse struct {
	ID          uint                `json:"id"`
	Title       string              `json:"title"`
	TimeMinutes int                 `json:"time_minutes"`
	Price       models.Price        `json:"price"`
	Link        string              `json:"link"`
	Image       *string             `json:"image"`
	Tags        []models.Tag        `json:"tags"`
	Ingredients []models.Ingredient `json:"ingredients"`
}

// RecipeImageResponse is returned by the image upload endpoint.
type RecipeImageResponse struct {
	ID    uint    `json:"id"`
	Image *string `json:"image"`
}

// NewRecipeResponse converts a recipe with preloaded associations.
// imageURL maps a stored image key to a client-facing URL.
func NewRecipeResponse(r *models.Recipe, imageURL func(string) string) RecipeResponse {
	return RecipeResponse{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Link:        r.Link,
		Image:       resolveImage(r.Image, imageURL),
		Tags:        r.TagIDs(),
		Ingredients: r.IngredientIDs(),
	}
}

// NewRecipeDetailResponse converts a recipe for the detail endpoint.
func NewRecipeDetailResponse(r *models.Recipe, imageURL func(string) string) RecipeDetailResponse {
	tags := r.Tags
	if tags == nil {
		tags = []models.Tag{}
	}
	ingredients := r.Ingredients
	if ingredients == nil {
		ingredients = []models.Ingredient{}
	}
	return RecipeDetailResponse{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Link:        r.Link,
		Image:       resolveImage(r.Image, imageURL),
		Tags:        tags,
		Ingredients: ingredients,
	}
}

// NewRecipeImageResponse builds the upload-image response body.
func NewRecipeImageResponse(r *models.Recipe, imageURL func(string) string) RecipeImageResponse {
	return RecipeImageResponse{ID: r.ID, Image: resolveImage(r.Image, imageURL)}
}

func resolveImage(key *string, imageURL func(string) string) *string {
	if key == nil || *key == "" {
		return nil
	}
	if imageURL == nil {
		return key
	}
	url := imageURL(*key)
	return &url
}
