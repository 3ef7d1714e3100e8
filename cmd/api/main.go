package main

import (
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/charmbracelet/log"

	"customerhub/internal/config"
	"customerhub/internal/database"
	"customerhub/internal/domain/customer"
	"customerhub/internal/metrics"
	"customerhub/internal/middleware"
	jwtsvc "customerhub/internal/pkg/jwt"
	"customerhub/internal/pkg/response"
	"customerhub/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "customerhub",
	})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", "error", err)
	}
	if err := database.Migrate(db, &customer.Customer{}); err != nil {
		logger.Fatal("migration failed", "error", err)
	}

	store, err := storage.New(storage.Config{
		Backend:        cfg.StorageBackend,
		Bucket:         cfg.StorageBucket,
		BaseDir:        cfg.StorageBaseDir,
		Region:         cfg.AWSRegion,
		Endpoint:       cfg.S3Endpoint,
		AccessKey:      cfg.S3AccessKey,
		SecretKey:      cfg.S3SecretKey,
		ForcePathStyle: cfg.S3PathStyle,
	}, logger)
	if err != nil {
		logger.Fatal("object store init failed", "error", err)
	}

	recorder := metrics.NewRecorder(nil, logger)
	tokens := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	customerRepo := customer.NewRepository(db)
	customerService := customer.NewService(customerRepo, store, cfg.StorageBucket, cfg.UploadRules, recorder, logger)
	customerHandler := customer.NewHandler(customerService, tokens)

	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = io.Discard

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{
			"status":  "ok",
			"uploads": recorder.Summarize(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(tokens))

		customer.RegisterRoutes(v1, protected, customerHandler,
			middleware.BodyLimit(cfg.UploadRules.MaxSizeBytes()))
	}

	logger.Info("listening", "port", cfg.Port,
		"storage_backend", cfg.StorageBackend,
		"max_upload_size", cfg.UploadRules.MaxSizeBytes())

	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", "error", err)
	}
}
