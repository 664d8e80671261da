package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/portal-cidadao-api/api/swagger"
	"github.com/noah-isme/portal-cidadao-api/internal/handler"
	internalmiddleware "github.com/noah-isme/portal-cidadao-api/internal/middleware"
	"github.com/noah-isme/portal-cidadao-api/internal/models"
	"github.com/noah-isme/portal-cidadao-api/internal/repository"
	"github.com/noah-isme/portal-cidadao-api/internal/service"
	"github.com/noah-isme/portal-cidadao-api/pkg/cache"
	"github.com/noah-isme/portal-cidadao-api/pkg/config"
	"github.com/noah-isme/portal-cidadao-api/pkg/database"
	"github.com/noah-isme/portal-cidadao-api/pkg/jobs"
	"github.com/noah-isme/portal-cidadao-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/portal-cidadao-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/portal-cidadao-api/pkg/middleware/requestid"
	"github.com/noah-isme/portal-cidadao-api/pkg/storage"
)

// @title Portal Cidadão API
// @version 1.0.0
// @description Citizen issue reporting: submissions, photos, administrator triage and developer maintenance.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("postgres unavailable", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, continuing without cache and purge lock", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	bucket, err := storage.NewBucket(cfg.Storage.Dir, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL)
	if err != nil {
		logr.Sugar().Fatalw("storage unavailable", "error", err)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	demandaRepo := repository.NewDemandaRepository(db)
	identityRepo := repository.NewIdentityRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)
	lockRepo := repository.NewLockRepository(redisClient, "portal:lock:")

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cacheRepo.Enabled())
	authSvc := service.NewAuthService(service.AuthConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	}, logr)
	roleSvc := service.NewRoleService(identityRepo, metrics, logr, service.RoleServiceConfig{LookupTimeout: cfg.Roles.LookupTimeout})
	sessionSvc := service.NewSessionService(roleSvc, cfg.Roles.SessionMaxAge, logr)

	notifier := service.NewNotificationService(service.NotificationConfig{
		Recipients: cfg.Notify.AdminEmails,
		APIKey:     cfg.Notify.ResendAPIKey,
		APIURL:     cfg.Notify.ResendURL,
		From:       cfg.Notify.From,
		AppBaseURL: cfg.Notify.AppBaseURL,
	}, nil, metrics, logr)
	emailQueue := jobs.NewQueue[models.Demanda]("admin-email", notifier.Deliver, jobs.Options{
		Workers:    cfg.Notify.Workers,
		MaxRetries: cfg.Notify.Retries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
	})
	emailQueue.Start(context.Background())
	notifier.UseQueue(emailQueue)

	purgeSvc := service.NewPurgeService(service.PurgeServiceParams{
		Records: demandaRepo,
		Users:   identityRepo,
		Photos:  bucket,
		Roles:   roleSvc,
		Locks:   lockRepo,
		Audit:   auditRepo,
		Cache:   cacheSvc,
		Metrics: metrics,
		Logger:  logr,
		Config: service.PurgeConfig{
			PageSize:    cfg.Purge.PageSize,
			BatchSize:   cfg.Purge.BatchSize,
			SampleLimit: cfg.Purge.SampleLimit,
			LockTTL:     cfg.Purge.LockTTL,
		},
	})
	demandaSvc := service.NewDemandaService(demandaRepo, notifier, cacheSvc, auditRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(demandaRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	exportSvc := service.NewExportService(demandaRepo, logr)
	photoSvc := service.NewPhotoService(bucket, service.PhotoServiceConfig{
		MaxFileSize:  cfg.Storage.MaxFileSize,
		AllowedMIMEs: cfg.Storage.AllowedMIMEs,
	}, logr)
	geocodeSvc := service.NewGeocodingService(nil, cacheSvc, service.GeocodingConfig{
		BaseURL:   cfg.Geocoding.BaseURL,
		UserAgent: cfg.Geocoding.UserAgent,
		Timeout:   cfg.Geocoding.Timeout,
		CacheTTL:  cfg.Geocoding.CacheTTL,
	}, logr)

	purgeHandler := handler.NewPurgeHandler(purgeSvc, validate, logr)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	demandaHandler := handler.NewDemandaHandler(demandaSvc, exportSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	photoHandler := handler.NewPhotoHandler(photoSvc, bucket)
	geocodeHandler := handler.NewGeocodeHandler(geocodeSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, readinessChecks(db, redisClient))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics, "/metrics", "/health"))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/storage/v1/object/public/:bucket/*path", photoHandler.Serve)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	requireAuth := internalmiddleware.JWT(authSvc)
	optionalAuth := internalmiddleware.OptionalJWT(authSvc)
	requireAdmin := internalmiddleware.RequireAdmin(sessionSvc)

	api := r.Group(cfg.APIPrefix)
	api.POST("/admin/purge-demandas", optionalAuth, purgeHandler.Purge)

	api.GET("/auth/session", requireAuth, sessionHandler.Current)
	api.POST("/auth/session/events", optionalAuth, sessionHandler.Event)

	api.POST("/demandas", optionalAuth, demandaHandler.Create)
	api.GET("/demandas", requireAuth, requireAdmin, demandaHandler.List)
	api.GET("/demandas/export", requireAuth, requireAdmin, demandaHandler.Export)
	api.PATCH("/demandas/:id/status", requireAuth, requireAdmin, demandaHandler.UpdateStatus)
	api.GET("/dashboard/stats", requireAuth, requireAdmin, dashboardHandler.Stats)

	api.POST("/upload-foto", optionalAuth, internalmiddleware.Audit(auditRepo, models.AuditActionPhotoUpload, "fotos"), photoHandler.Upload)
	api.GET("/geocode/reverse", geocodeHandler.Reverse)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	emailQueue.Stop()
}

func readinessChecks(db *sqlx.DB, client *redis.Client) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{
		"postgres": db.PingContext,
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	return checks
}
