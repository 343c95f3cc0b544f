package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/recipe-api/backend/internal/models"
	"github.com/pageza/recipe-api/backend/internal/service"
	"github.com/pageza/recipe-api/backend/internal/types"
)

// AttributeHandler serves list and create for tags or ingredients.
type AttributeHandler[T models.Tag | models.Ingredient] struct {
	path string
	svc  *service.AttributeService[T]
	log  *zap.Logger
}

// NewTagHandler serves /tags.
func NewTagHandler(svc *service.TagService, log *zap.Logger) *AttributeHandler[models.Tag] {
	return &AttributeHandler[models.Tag]{path: "/tags", svc: svc, log: log}
}

// NewIngredientHandler serves /ingredients.
func NewIngredientHandler(svc *service.IngredientService, log *zap.Logger) *AttributeHandler[models.Ingredient] {
	return &AttributeHandler[models.Ingredient]{path: "/ingredients", svc: svc, log: log}
}

// RegisterRoutes expects router to already require authentication.
func (h *AttributeHandler[T]) RegisterRoutes(router *gin.RouterGroup) {
	router.GET(h.path, h.List)
	router.POST(h.path, h.Create)
}

// List returns the caller's items, name descending.
func (h *AttributeHandler[T]) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, items)
}

// Create stores a new item owned by the caller.
func (h *AttributeHandler[T]) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.AttributeRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	item, err := h.svc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}
