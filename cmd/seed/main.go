package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/pageza/recipe-api/backend/config"
	"github.com/pageza/recipe-api/backend/internal/database"
	"github.com/pageza/recipe-api/backend/internal/logger"
	"github.com/pageza/recipe-api/backend/internal/models"
	"github.com/pageza/recipe-api/backend/internal/service"
	"github.com/pageza/recipe-api/backend/internal/storage"
	"github.com/pageza/recipe-api/backend/internal/types"
)

const seedPassword = "testpassword123"

type seedRecipe struct {
	title       string
	minutes     int
	price       models.Price
	link        string
	tags        []string
	ingredients []string
}

var seedUsers = []struct {
	name    string
	email   string
	recipes []seedRecipe
}{
	{
		name:  "John Doe",
		email: "john.doe@example.com",
		recipes: []seedRecipe{
			{title: "Thai prawn curry", minutes: 25, price: 750, tags: []string{"Dinner", "Spicy"}, ingredients: []string{"Prawns", "Coconut milk", "Red curry paste"}},
			{title: "Overnight oats", minutes: 5, price: 150, tags: []string{"Breakfast", "Vegetarian"}, ingredients: []string{"Oats", "Milk", "Honey"}},
		},
	},
	{
		name:  "Jane Smith",
		email: "jane.smith@example.com",
		recipes: []seedRecipe{
			{title: "Spaghetti carbonara", minutes: 20, price: 550, link: "https://example.com/carbonara", tags: []string{"Dinner", "Italian"}, ingredients: []string{"Spaghetti", "Eggs", "Pancetta", "Pecorino"}},
			{title: "Avocado toast", minutes: 10, price: 300, tags: []string{"Breakfast", "Vegan"}, ingredients: []string{"Bread", "Avocado", "Lime"}},
		},
	},
	{
		name:  "Test Empty",
		email: "empty@example.com",
	},
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	zapLog, err := logger.New(false, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zapLog.Sync() }()

	ctx := context.Background()
	db, err := database.Open(cfg, zapLog)
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.RunMigrations(ctx, db, cfg.PostgresDSN(), zapLog); err != nil {
		zapLog.Fatal("failed to run migrations", zap.Error(err))
	}

	store, err := storage.NewFileStore(cfg.MediaRoot, cfg.MediaURL)
	if err != nil {
		zapLog.Fatal("failed to open media root", zap.Error(err))
	}

	auth := service.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL)
	tags := service.NewTagService(db)
	ingredients := service.NewIngredientService(db)
	images := service.NewRecipeImageService(db, store, cfg.MaxUploadBytes, zapLog)
	recipes := service.NewRecipeService(db, service.NewAssociationManager(), images, zapLog)

	for _, u := range seedUsers {
		var existing models.User
		if err := db.Where("email = ?", u.email).First(&existing).Error; err == nil {
			zapLog.Info("user already exists, skipping", zap.String("email", u.email))
			continue
		}

		user, err := auth.CreateUser(ctx, &types.CreateUserRequest{Email: u.email, Password: seedPassword, Name: u.name})
		if err != nil {
			zapLog.Fatal("failed to create user", zap.String("email", u.email), zap.Error(err))
		}

		tagIDs := map[string]uint{}
		ingredientIDs := map[string]uint{}
		for _, r := range u.recipes {
			req := &types.RecipeRequest{
				Title:       &r.title,
				TimeMinutes: &r.minutes,
				Price:       &r.price,
				Tags:        &[]uint{},
				Ingredients: &[]uint{},
			}
			if r.link != "" {
				req.Link = &r.link
			}
			for _, name := range r.tags {
				if _, ok := tagIDs[name]; !ok {
					tag, err := tags.Create(ctx, user.ID, &types.AttributeRequest{Name: name})
					if err != nil {
						zapLog.Fatal("failed to create tag", zap.String("name", name), zap.Error(err))
					}
					tagIDs[name] = tag.ID
				}
				*req.Tags = append(*req.Tags, tagIDs[name])
			}
			for _, name := range r.ingredients {
				if _, ok := ingredientIDs[name]; !ok {
					ingredient, err := ingredients.Create(ctx, user.ID, &types.AttributeRequest{Name: name})
					if err != nil {
						zapLog.Fatal("failed to create ingredient", zap.String("name", name), zap.Error(err))
					}
					ingredientIDs[name] = ingredient.ID
				}
				*req.Ingredients = append(*req.Ingredients, ingredientIDs[name])
			}

			if _, err := recipes.Create(ctx, user.ID, req); err != nil {
				zapLog.Fatal("failed to create recipe", zap.String("title", r.title), zap.Error(err))
			}
		}

		zapLog.Info("seeded user",
			zap.String("email", u.email),
			zap.Int("recipes", len(u.recipes)),
		)
	}

	zapLog.Info("seeding complete", zap.String("password", seedPassword))
}
