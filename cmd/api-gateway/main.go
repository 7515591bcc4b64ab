package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/impulso-give/impulso-api/api/swagger"
	"github.com/impulso-give/impulso-api/internal/handler"
	"github.com/impulso-give/impulso-api/internal/middleware"
	"github.com/impulso-give/impulso-api/internal/repository"
	"github.com/impulso-give/impulso-api/internal/service"
	"github.com/impulso-give/impulso-api/pkg/cache"
	"github.com/impulso-give/impulso-api/pkg/config"
	"github.com/impulso-give/impulso-api/pkg/database"
	"github.com/impulso-give/impulso-api/pkg/logger"
	corsmiddleware "github.com/impulso-give/impulso-api/pkg/middleware/cors"
	reqidmiddleware "github.com/impulso-give/impulso-api/pkg/middleware/requestid"
	"github.com/impulso-give/impulso-api/pkg/storage"
)

// @title Impulso API
// @version 1.0.0
// @description Crowdfunding platform: campaigns, identity verification, donations
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		// The API stays up without Redis; campaign reads just skip the cache.
		logr.Warn("redis unavailable, campaign cache disabled", zap.Error(err))
		redisClient = nil
	}

	evidenceStore, err := buildEvidenceStore(ctx, cfg)
	if err != nil {
		logr.Fatal("failed to init evidence storage", zap.Error(err))
	}
	receiptStore, err := storage.NewLocalStorage(cfg.Donations.ReceiptsDir, "")
	if err != nil {
		logr.Fatal("failed to init receipt storage", zap.Error(err))
	}
	receiptSigner := storage.NewSignedURLSigner(cfg.Donations.SignedURLSecret, cfg.Donations.SignedURLTTL)

	userRepo := repository.NewUserRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)
	donationRepo := repository.NewDonationRepository(db)
	legalEntityRepo := repository.NewLegalEntityRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "impulso-api",
	})

	notificationSvc := service.NewNotificationService(notificationRepo, logr,
		cfg.Notifications.WorkerConcurrency, cfg.Notifications.QueueSize)
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	campaignSvc := service.NewCampaignService(campaignRepo, cacheRepo, legalEntityRepo, userRepo, logr,
		cfg.Campaigns.CacheTTL).WithMetrics(metricsSvc)

	verificationSvc := service.NewVerificationService(verificationRepo, campaignRepo, userRepo, notificationSvc, logr,
		service.VerificationServiceConfig{
			MaxSupportingDocs: cfg.Verification.MaxSupportingDocs,
			MaxStoryLength:    cfg.Verification.MaxStoryLength,
			AllowedMIMEs:      cfg.Verification.AllowedMIMEs,
		}).WithMetrics(metricsSvc)

	evidenceSvc := service.NewEvidenceService(campaignRepo, evidenceStore, userRepo, logr,
		service.EvidenceServiceConfig{
			MaxFileSize:  cfg.Verification.MaxFileSizeBytes,
			AllowedMIMEs: cfg.Verification.AllowedMIMEs,
		}).WithMetrics(metricsSvc)

	reviewSvc := service.NewVerificationReviewService(verificationRepo, campaignRepo, userRepo, userRepo,
		notificationSvc, logr).WithMetrics(metricsSvc)

	donationSvc := service.NewDonationService(donationRepo, campaignRepo, receiptStore, receiptSigner,
		userRepo, notificationSvc, logr, service.DonationServiceConfig{
			MinAmountCents: cfg.Donations.MinAmountCents,
			APIPrefix:      cfg.APIPrefix,
		}).WithMetrics(metricsSvc)
	donationSvc.Start(ctx)
	defer donationSvc.Stop()

	legalEntitySvc := service.NewLegalEntityService(legalEntityRepo, userRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	campaignHandler := handler.NewCampaignHandler(campaignSvc)
	verificationHandler := handler.NewVerificationHandler(verificationSvc, evidenceSvc)
	reviewHandler := handler.NewVerificationReviewHandler(reviewSvc)
	donationHandler := handler.NewDonationHandler(donationSvc)
	legalEntityHandler := handler.NewLegalEntityHandler(legalEntitySvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	if cfg.Storage.Driver != "s3" {
		r.Static("/uploads", cfg.Storage.LocalDir)
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	campaigns := api.Group("/campaigns")
	{
		campaigns.GET("", campaignHandler.ListPublic)
		campaigns.GET("/:id", middleware.OptionalJWT(authSvc), campaignHandler.Get)
		campaigns.GET("/:id/verification", middleware.OptionalJWT(authSvc), verificationHandler.Status)

		campaigns.POST("", middleware.JWT(authSvc), campaignHandler.Create)
		campaigns.GET("/mine", middleware.JWT(authSvc), campaignHandler.ListMine)
		campaigns.GET("/unverified", middleware.JWT(authSvc), campaignHandler.ListUnverified)
		campaigns.PUT("/:id", middleware.JWT(authSvc), campaignHandler.Update)
		campaigns.POST("/:id/publish", middleware.JWT(authSvc), campaignHandler.Publish)
		campaigns.POST("/:id/verification", middleware.JWT(authSvc), verificationHandler.Submit)
		campaigns.POST("/:id/verification/evidence", middleware.JWT(authSvc), verificationHandler.UploadEvidence)
		campaigns.GET("/:id/donations", middleware.JWT(authSvc), donationHandler.ListByCampaign)
	}

	donations := api.Group("/donations")
	{
		donations.POST("", middleware.OptionalJWT(authSvc), donationHandler.Create)
		donations.GET("/:id/receipt", middleware.JWT(authSvc), donationHandler.Receipt)
		// Token-authenticated; the link already carries the signed grant.
		donations.GET("/:id/receipt/download", donationHandler.DownloadReceipt)
	}

	admin := api.Group("/admin", middleware.JWT(authSvc), middleware.RequireAdmin())
	{
		admin.GET("/verification-requests", reviewHandler.List)
		admin.GET("/verification-requests/export", reviewHandler.ExportCSV)
		admin.GET("/verification-requests/:id", reviewHandler.GetBundle)
		admin.PUT("/verification-requests/:id/status", reviewHandler.Decide)
	}

	entities := api.Group("/legal-entities", middleware.JWT(authSvc))
	{
		entities.GET("", legalEntityHandler.List)
		entities.GET("/:id", legalEntityHandler.Get)
		entities.POST("", middleware.RequireAdmin(), legalEntityHandler.Create)
		entities.PUT("/:id", middleware.RequireAdmin(), legalEntityHandler.Update)
		entities.DELETE("/:id", middleware.RequireAdmin(), legalEntityHandler.Deactivate)
	}

	notifications := api.Group("/notifications", middleware.JWT(authSvc))
	{
		notifications.GET("", notificationHandler.List)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
		notifications.POST("/read-all", notificationHandler.MarkAllRead)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func buildEvidenceStore(ctx context.Context, cfg *config.Config) (service.ObjectStore, error) {
	if cfg.Storage.Driver == "s3" {
		return storage.NewS3Storage(ctx, storage.S3Config{
			Region:          cfg.Storage.S3.Region,
			Bucket:          cfg.Storage.S3.Bucket,
			Endpoint:        cfg.Storage.S3.Endpoint,
			AccessKeyID:     cfg.Storage.S3.AccessKeyID,
			SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
			PublicBaseURL:   cfg.Storage.S3.PublicBaseURL,
		})
	}
	return storage.NewLocalStorage(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
}
