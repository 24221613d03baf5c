package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/catalise/fundingest/config"
	"github.com/catalise/fundingest/internal/database"
	"github.com/catalise/fundingest/internal/handlers"
	"github.com/catalise/fundingest/internal/middleware"
	"github.com/catalise/fundingest/internal/repository"
	"github.com/catalise/fundingest/internal/schema"
	"github.com/catalise/fundingest/internal/services"
	"github.com/catalise/fundingest/internal/source"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context for initialization
	ctx := context.Background()

	// Initialize database connection
	db, err := database.New(ctx, cfg.PGURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Load and validate the extract schemas; a bad schema is fatal here,
	// before any run can start.
	registry, err := schema.Load(cfg.SchemaDir)
	if err != nil {
		log.Fatalf("Failed to load schemas: %v", err)
	}
	rosters, err := schema.LoadRosters(cfg.RosterPath)
	if err != nil {
		log.Fatalf("Failed to load rosters: %v", err)
	}

	// Initialize repositories
	extractRepo := repository.NewExtractRepository(db.Pool)
	runRepo := repository.NewRunRepository(db.Pool)

	// Initialize services
	reader := source.NewReader(cfg.DataDir)
	runSvc := services.NewRunService(registry, rosters, reader, extractRepo, runRepo, services.LogNotifier{})

	// Initialize handlers
	runHandler := handlers.NewRunHandler(runSvc)

	// Setup Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Run routes
	router.POST("/runs", middleware.RequireToken(cfg.AdminToken), runHandler.Trigger)
	router.GET("/runs/latest", runHandler.Latest)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Give outstanding requests 5 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	fmt.Println("Server exited")
}
