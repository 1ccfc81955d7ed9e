package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ChrisHK/system-monitor-sub001/cmd"
	"github.com/ChrisHK/system-monitor-sub001/internal/core/container"
	"github.com/ChrisHK/system-monitor-sub001/internal/core/logger"
	"github.com/ChrisHK/system-monitor-sub001/internal/core/routes"
	"github.com/ChrisHK/system-monitor-sub001/internal/database"
	"github.com/ChrisHK/system-monitor-sub001/internal/middleware"
)

func init() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load .env file, but don't overwrite system environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, falling back to system environment variables.")
	}

	// Execute migration CMD
	cmd.Execute(ctx)
}

func main() {
	zapLogger := logger.NewLogger()
	defer zapLogger.Sync() //nolint:errcheck

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		zapLogger.Fatal("DATABASE_URL environment variable is not set")
	}

	db, err := database.NewPostgresConnection(dbURL)
	if err != nil {
		zapLogger.Fatal("Unable to connect to the database", zap.Error(err))
	}
	defer db.Close()

	zapLogger.Info("Connected to the database successfully")

	appContainer := container.NewAppContainer(db, zapLogger)

	appContainer.LocationCache.Start()
	defer appContainer.LocationCache.Stop()

	router := gin.Default()
	router.Use(middleware.RecoveryMiddleware())

	routes.RegisterPublicRoutes(router, appContainer)
	routes.RegisterProtectedRoutes(router, appContainer)
	routes.RegisterUtilityRoutes(router)

	if err := router.Run(os.Getenv("APP_HOST")); err != nil {
		zapLogger.Fatal("Server stopped", zap.Error(err))
	}
}
