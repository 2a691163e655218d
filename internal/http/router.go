package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/quickcook/quickcook/internal/auth"
	"github.com/quickcook/quickcook/internal/authz"
	"github.com/quickcook/quickcook/internal/config"
	"github.com/quickcook/quickcook/internal/http/handlers"
	"github.com/quickcook/quickcook/internal/http/middlewares"
	"github.com/quickcook/quickcook/internal/observability"
	"github.com/quickcook/quickcook/internal/repo/postgres"
)

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(prom.GinHandleMiddleware())
	r.Use(otelgin.Middleware("quickcook-api"))

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/", h.Root)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	// metrics endpoint off the same registry the middleware observes into
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	recipesRepo := postgres.NewRecipesRepo(pool, prom)
	ingredientsRepo := postgres.NewIngredientsRepo(pool, prom)
	ownershipRepo := postgres.NewOwnershipRepo(pool, prom)

	// the one ownership guard every handler shares
	guard := authz.NewGuard(ownershipRepo)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL())
	requireAuth := middlewares.NewAuthMiddleware(jwtManager).RequireAuth()

	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, jwtManager)
	recipesHandler := handlers.NewRecipesHandler(recipesRepo, guard)
	ingredientsHandler := handlers.NewIngredientsHandler(ingredientsRepo, guard)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	recipes := api.Group("/recipes", requireAuth)
	recipes.GET("", recipesHandler.ListRecipes)
	recipes.GET("/:id", recipesHandler.GetRecipeByID)
	recipes.POST("", recipesHandler.CreateRecipe)
	recipes.PUT("/:id", recipesHandler.UpdateRecipe)
	recipes.DELETE("/:id", recipesHandler.DeleteRecipe)

	ingredients := api.Group("/ingredients", requireAuth)
	ingredients.GET("/recipe/:recipeId", ingredientsHandler.ListByRecipe)
	ingredients.POST("", ingredientsHandler.AddIngredient)
	ingredients.PUT("/:id", ingredientsHandler.UpdateIngredient)
	ingredients.DELETE("/:id", ingredientsHandler.DeleteIngredient)

	// unmatched routes answer JSON, not gin's default empty body
	r.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{
				"code":    "not_found",
				"message": "Route not found.",
			},
		})
	})

	return r
}
