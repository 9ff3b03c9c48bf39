package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"compcore/internal/config"
	"compcore/internal/engine"
	"compcore/internal/handler"
	"compcore/internal/metrics"
	"compcore/internal/repository"
	"compcore/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("comparables engine starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	logger.Info("connected to PostgreSQL")

	// Initialize services
	orchestrator := engine.NewOrchestrator()
	compsService := service.NewCompsService(repo, orchestrator, logger)
	compSetService := service.NewCompSetService(repo, logger)
	importer := service.NewImporter(repo, logger)
	exporter := service.NewExporter()

	// Initialize handlers
	compsHandler := handler.NewCompsHandler(compsService, cfg.Search.DefaultSize, cfg.Search.MaxSize)
	compSetHandler := handler.NewCompSetHandler(compSetService)
	importExportHandler := handler.NewImportExportHandler(importer, exporter, compsService)

	// Setup Gin router
	router := gin.Default()
	router.Use(metrics.Middleware())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "comparables-engine",
			"version": Version,
		})
	})

	router.GET("/metrics", metrics.Handler())

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/comparables/search", compsHandler.Search)
		apiV1.POST("/comparables/normalize", compsHandler.Normalize)
		apiV1.POST("/comparables/score", compsHandler.Score)
		apiV1.POST("/comparables/dedup", compsHandler.Dedup)
		apiV1.POST("/comparables/embeddings", compsHandler.UpdateEmbeddings)

		apiV1.POST("/comparables/import", importExportHandler.Import)
		apiV1.POST("/comparables/export", importExportHandler.Export)

		apiV1.POST("/comp-sets", compSetHandler.Save)
		apiV1.PUT("/comp-sets/:id", compSetHandler.Update)
		apiV1.GET("/comp-sets", compSetHandler.List)
		apiV1.GET("/comp-sets/:id", compSetHandler.Get)
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting server", zap.String("addr", addr))

	go func() {
		if err := router.Run(addr); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.Level); err == nil {
		zapCfg.Level = level
	}
	return zapCfg.Build()
}
