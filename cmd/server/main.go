package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/princeprakhar/yamdb-backend/internal/api/routes"
	"github.com/princeprakhar/yamdb-backend/internal/config"
	"github.com/princeprakhar/yamdb-backend/internal/database"
	"github.com/princeprakhar/yamdb-backend/internal/services"
	"github.com/princeprakhar/yamdb-backend/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.Init(cfg.Environment, cfg.LogLevel)
	if envErr != nil {
		logger.Debug("No .env file found")
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal(err)
	}

	// Initialize database
	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to initialize database: ", err)
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := gin.New()

	// Setup routes
	if err := routes.SetupRoutes(router, db, cfg, services.NewMailer(cfg)); err != nil {
		logger.Fatal("Failed to set up routes: ", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting on port " + cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown: ", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("Server stopped")
}
