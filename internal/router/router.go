package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/recipe-api/backend/config"
	"github.com/pageza/recipe-api/backend/internal/api"
	"github.com/pageza/recipe-api/backend/internal/middleware"
	"github.com/pageza/recipe-api/backend/internal/service"
	"github.com/pageza/recipe-api/backend/internal/storage"
)

// Dependencies are the long-lived resources the routes are built from.
type Dependencies struct {
	Config *config.Config
	DB     *gorm.DB
	Images storage.ImageStore
	// Redis is optional; without it no rate limits apply.
	Redis  redis.Cmdable
	Logger *zap.Logger
}

// SetupRouter configures the application routes
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	log := deps.Logger

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.NoRoute(middleware.NotFound())
	router.NoMethod(middleware.MethodNotAllowed())

	// Services
	authService := service.NewAuthService(deps.DB, cfg.JWTSecret, cfg.TokenTTL)
	imageService := service.NewRecipeImageService(deps.DB, deps.Images, cfg.MaxUploadBytes, log)
	recipeService := service.NewRecipeService(deps.DB, service.NewAssociationManager(), imageService, log)

	// Rate limiters stay nil without redis
	var tokenLimit, createLimit, uploadLimit *middleware.RateLimiter
	if deps.Redis != nil {
		tokenLimit = middleware.NewRateLimiter(deps.Redis, middleware.RateLimitConfig{
			Window: cfg.RateWindow, Limit: cfg.TokenRateLimit, KeyPrefix: "rate_limit:token",
		}, log)
		createLimit = middleware.NewRateLimiter(deps.Redis, middleware.RateLimitConfig{
			Window: cfg.RateWindow, Limit: cfg.CreateRateLimit, KeyPrefix: "rate_limit:recipe_creation",
		}, log)
		uploadLimit = middleware.NewRateLimiter(deps.Redis, middleware.RateLimitConfig{
			Window: cfg.RateWindow, Limit: cfg.UploadRateLimit, KeyPrefix: "rate_limit:image_upload",
		}, log)
	}

	// Public routes
	api.NewHealthHandler(deps.DB).RegisterRoutes(router)
	api.NewUserHandler(authService, tokenLimit, log).RegisterRoutes(&router.RouterGroup)

	// Protected routes
	protected := router.Group("/recipe")
	protected.Use(middleware.AuthMiddleware(authService))
	{
		api.NewTagHandler(service.NewTagService(deps.DB), log).RegisterRoutes(protected)
		api.NewIngredientHandler(service.NewIngredientService(deps.DB), log).RegisterRoutes(protected)
		api.NewRecipeHandler(recipeService, imageService, createLimit, uploadLimit, log).RegisterRoutes(protected)
	}

	// Uploaded media is served directly when stored on local disk
	if fs, ok := deps.Images.(*storage.FileStore); ok && strings.HasPrefix(cfg.MediaURL, "/") {
		router.Static(cfg.MediaURL, fs.Root())
	}

	return router
}
