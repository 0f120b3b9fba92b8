package routes

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/yamdb-backend/internal/api/handlers"
	"github.com/princeprakhar/yamdb-backend/internal/api/middleware"
	"github.com/princeprakhar/yamdb-backend/internal/authz"
	"github.com/princeprakhar/yamdb-backend/internal/config"
	"github.com/princeprakhar/yamdb-backend/internal/services"
	"github.com/princeprakhar/yamdb-backend/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// SetupRoutes wires services, handlers and middleware onto router. Access
// rules live in the policy table, so routes carry no role middleware.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, mailer services.Mailer) error {
	enforcer, err := authz.NewEnforcer()
	if err != nil {
		return fmt.Errorf("failed to load authorization policy: %w", err)
	}
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	rateLimit, err := middleware.RateLimitMiddleware(cfg)
	if err != nil {
		return err
	}

	// Initialize services
	authService := services.NewAuthService(db, cfg, mailer)
	userService := services.NewUserService(db, enforcer)
	catalogService := services.NewCatalogService(db, enforcer)
	titleService := services.NewTitleService(db, enforcer)
	reviewService := services.NewReviewService(db, enforcer)
	commentService := services.NewCommentService(db, enforcer)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, cfg.PageSize)
	catalogHandler := handlers.NewCatalogHandler(catalogService, cfg.PageSize)
	titleHandler := handlers.NewTitleHandler(titleService, cfg.PageSize)
	reviewHandler := handlers.NewReviewHandler(reviewService, cfg.PageSize)
	commentHandler := handlers.NewCommentHandler(commentService, cfg.PageSize)

	// Middleware
	router.Use(middleware.RequestLogger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg))
	if cfg.MetricsEnabled {
		router.Use(middleware.MetricsMiddleware())
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Server is running"})
	})

	api := router.Group("/api/v1", rateLimit, middleware.PrincipalMiddleware(authService))

	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/token", authHandler.Token)
	}

	users := api.Group("/users")
	{
		users.GET("/me", userHandler.Me)
		users.PATCH("/me", userHandler.UpdateMe)
		users.GET("", userHandler.List)
		users.POST("", userHandler.Create)
		users.GET("/:username", userHandler.Get)
		users.PATCH("/:username", userHandler.Update)
		users.DELETE("/:username", userHandler.Delete)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", catalogHandler.ListCategories)
		categories.POST("", catalogHandler.CreateCategory)
		categories.DELETE("/:slug", catalogHandler.DeleteCategory)
	}

	genres := api.Group("/genres")
	{
		genres.GET("", catalogHandler.ListGenres)
		genres.POST("", catalogHandler.CreateGenre)
		genres.DELETE("/:slug", catalogHandler.DeleteGenre)
	}

	titles := api.Group("/titles")
	{
		titles.GET("", titleHandler.List)
		titles.POST("", titleHandler.Create)
		titles.GET("/:title_id", titleHandler.Get)
		titles.PATCH("/:title_id", titleHandler.Update)
		titles.DELETE("/:title_id", titleHandler.Delete)

		reviews := titles.Group("/:title_id/reviews")
		reviews.GET("", reviewHandler.List)
		reviews.POST("", reviewHandler.Create)
		reviews.GET("/:review_id", reviewHandler.Get)
		reviews.PATCH("/:review_id", reviewHandler.Update)
		reviews.DELETE("/:review_id", reviewHandler.Delete)

		comments := reviews.Group("/:review_id/comments")
		comments.GET("", commentHandler.List)
		comments.POST("", commentHandler.Create)
		comments.GET("/:comment_id", commentHandler.Get)
		comments.PATCH("/:comment_id", commentHandler.Update)
		comments.DELETE("/:comment_id", commentHandler.Delete)
	}

	logger.Info("Routes initialized successfully")
	return nil
}
