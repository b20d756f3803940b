package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/homemates/homemates-server/internal/api"
	"github.com/homemates/homemates-server/internal/config"
	"github.com/homemates/homemates-server/internal/logging"
	"github.com/homemates/homemates-server/internal/repository"
	"github.com/homemates/homemates-server/internal/service"
)

func main() {
	logging.Setup()

	// Load configuration
	cfg := config.LoadConfig()

	// Set up database connection
	db, err := config.SetupDatabase(cfg)
	if err != nil {
		slog.Error("Failed to set up database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("Database connected", "host", cfg.Database.Host, "name", cfg.Database.DBName)

	// Create repository
	repo := repository.NewPostgresRepository(db)

	// Create service
	svc := service.NewDefaultService(repo, cfg.Auth.JWTSecret)

	// Create API handler
	handler := api.NewHandler(svc)

	// Set up Gin router
	router := gin.Default()

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("Starting server", "address", serverAddr)
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
