package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"instafacts-api/config"
	"instafacts-api/middleware"
	"instafacts-api/routes"
	"instafacts-api/services"
	"instafacts-api/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Pick the data layer once; it stays active for the session lifetime.
	st, err := store.New(context.Background(), cfg, logger)
	if err != nil {
		// A visible failure beats a blank page.
		logger.Fatal("failed to initialize data layer", zap.Error(err))
	}

	emailService := services.NewEmailService(cfg)

	// Set Gin mode based on environment
	if cfg.Port == "8080" { // Development
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())

	// Setup routes
	routes.SetupRoutes(router, st, cfg, logger, emailService)

	// Start server
	logger.Info("starting InstaFacts API server", zap.String("port", cfg.Port))

	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
