package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/pageza/recipe-api/backend/internal/errors"
	"github.com/pageza/recipe-api/backend/internal/middleware"
	"github.com/pageza/recipe-api/backend/internal/service"
	"github.com/pageza/recipe-api/backend/internal/types"
)

// multipart framing allowance on top of the image size limit
const uploadOverhead = 1 << 20

// RecipeHandler serves the caller's recipes and their images.
type RecipeHandler struct {
	recipeService *service.RecipeService
	imageService  *service.RecipeImageService
	createLimit   *middleware.RateLimiter
	uploadLimit   *middleware.RateLimiter
	log           *zap.Logger
}

// NewRecipeHandler creates a new RecipeHandler. Nil limiters disable rate limiting.
func NewRecipeHandler(
	recipeService *service.RecipeService,
	imageService *service.RecipeImageService,
	createLimit *middleware.RateLimiter,
	uploadLimit *middleware.RateLimiter,
	log *zap.Logger,
) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
		imageService:  imageService,
		createLimit:   createLimit,
		uploadLimit:   uploadLimit,
		log:           log,
	}
}

// RegisterRoutes expects router to already require authentication.
func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.POST("", h.createLimit.Middleware(middleware.ByUser), h.CreateRecipe)
		recipes.GET("/:id", h.GetRecipe)
		recipes.PUT("/:id", h.UpdateRecipe)
		recipes.PATCH("/:id", h.PatchRecipe)
		recipes.DELETE("/:id", h.DeleteRecipe)
		recipes.POST("/:id/upload-image", h.uploadLimit.Middleware(middleware.ByUserAndParam("id")), h.UploadImage)
	}
}

// ListRecipes handles GET /recipes with optional tags and ingredients filters.
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	filter, err := service.ParseRecipeFilter(c.Query("tags"), c.Query("ingredients"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	recipes, err := h.recipeService.List(c.Request.Context(), userID, filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	out := make([]types.RecipeResponse, 0, len(recipes))
	for i := range recipes {
		out = append(out, types.NewRecipeResponse(&recipes[i], h.imageService.URL))
	}
	c.JSON(http.StatusOK, out)
}

// GetRecipe returns one recipe with its full tags and ingredients.
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	recipe, err := h.recipeService.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, types.NewRecipeDetailResponse(recipe, h.imageService.URL))
}

// CreateRecipe handles POST /recipes.
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.RecipeRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	recipe, err := h.recipeService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, types.NewRecipeResponse(recipe, h.imageService.URL))
}

// UpdateRecipe replaces a recipe; unsupplied optional fields are reset.
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	h.update(c, service.UpdateFull)
}

// PatchRecipe changes only the supplied fields.
func (h *RecipeHandler) PatchRecipe(c *gin.Context) {
	h.update(c, service.UpdatePartial)
}

func (h *RecipeHandler) update(c *gin.Context, mode service.UpdateMode) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req types.RecipeRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	recipe, err := h.recipeService.Update(c.Request.Context(), userID, id, &req, mode)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, types.NewRecipeResponse(recipe, h.imageService.URL))
}

// DeleteRecipe removes a recipe and its image.
func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.recipeService.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UploadImage attaches the multipart "image" file to a recipe.
func (h *RecipeHandler) UploadImage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	maxBytes := h.imageService.MaxBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+uploadOverhead)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, h.log, apperrors.FieldError("image", "the submitted file is too large"))
			return
		}
		respondError(c, h.log, apperrors.FieldError("image", "no file was submitted"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	defer file.Close()

	// one extra byte lets the service detect oversized files
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	recipe, err := h.imageService.AttachImage(c.Request.Context(), userID, id, fileHeader.Filename, data)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, types.NewRecipeImageResponse(recipe, h.imageService.URL))
}
