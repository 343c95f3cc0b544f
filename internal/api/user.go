package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/recipe-api/backend/internal/middleware"
	"github.com/pageza/recipe-api/backend/internal/service"
	"github.com/pageza/recipe-api/backend/internal/types"
)

// UserHandler serves account creation and token issue.
type UserHandler struct {
	authService *service.AuthService
	tokenLimit  *middleware.RateLimiter
	log         *zap.Logger
}

// NewUserHandler creates a new UserHandler. A nil tokenLimit disables rate limiting.
func NewUserHandler(authService *service.AuthService, tokenLimit *middleware.RateLimiter, log *zap.Logger) *UserHandler {
	return &UserHandler{authService: authService, tokenLimit: tokenLimit, log: log}
}

// RegisterRoutes mounts the /users group.
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.POST("/create", h.CreateUser)
		users.POST("/token", h.tokenLimit.Middleware(middleware.ByClientIP), h.CreateToken)
		users.GET("/me", middleware.AuthMiddleware(h.authService), h.Me)
	}
}

// CreateUser handles POST /users/create.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req types.CreateUserRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	user, err := h.authService.CreateUser(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, types.NewUserResponse(user))
}

// CreateToken exchanges email and password for a bearer token.
func (h *UserHandler) CreateToken(c *gin.Context) {
	var req types.TokenRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	token, err := h.authService.IssueToken(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, types.TokenResponse{Token: token})
}

// Me returns the authenticated user.
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, types.NewUserResponse(user))
}
