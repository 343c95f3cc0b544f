package types

import (
	"github.com/pageza/recipe-api/backend/internal/models"
)

// CreateUserRequest represents the request body for account creation
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=5,max=128"`
	Name     string `json:"name" validate:"required,notblank,max=255"`
}

// TokenRequest represents the request body for issuing a token
type TokenRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AttributeRequest is the body for creating a tag or an ingredient.
type AttributeRequest struct {
	Name string `json:"name" validate:"required,notblank,max=255"`
}

// RecipeRequest is shared by create, full update and partial update.
// A nil field was not supplied by the client.
type RecipeRequest struct {
	Title       *string       `json:"title" validate:"omitempty,notblank,max=255"`
	TimeMinutes *int          `json:"time_minutes" validate:"omitempty,gt=0,lte=2147483647"`
	Price       *models.Price `json:"price" validate:"omitempty,price"`
	Link        *string       `json:"link" validate:"omitempty,url,max=255"`
	Tags        *[]uint       `json:"tags"`
	Ingredients *[]uint       `json:"ingredients"`
}
