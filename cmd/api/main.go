package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	_ "github.com/joyandrew-github/CampusLink-Backend/api/swagger"
	"github.com/joyandrew-github/CampusLink-Backend/internal/handler"
	"github.com/joyandrew-github/CampusLink-Backend/internal/repository"
	"github.com/joyandrew-github/CampusLink-Backend/internal/service"
	"github.com/joyandrew-github/CampusLink-Backend/pkg/cache"
	"github.com/joyandrew-github/CampusLink-Backend/pkg/config"
	"github.com/joyandrew-github/CampusLink-Backend/pkg/database"
	"github.com/joyandrew-github/CampusLink-Backend/pkg/export"
	"github.com/joyandrew-github/CampusLink-Backend/pkg/logger"
	corsmiddleware "github.com/joyandrew-github/CampusLink-Backend/pkg/middleware/cors"
	reqidmiddleware "github.com/joyandrew-github/CampusLink-Backend/pkg/middleware/requestid"
)

// @title CampusLink API
// @version 1.0.0
// @description Campus management backend: timetables, announcements, complaints
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if cfg.Timetable.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, timetable cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Timetable.CacheTTL, logr, true)
		}
	}

	userRepo := repository.NewUserRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	complaintRepo := repository.NewComplaintRepository(db)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthServiceConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		AdminSecretKey:     cfg.Auth.AdminSecretKey,
		SingleSession:      cfg.Auth.SingleSession,
	})
	userService := service.NewUserService(userRepo, validate, logr)
	timetableService := service.NewTimetableService(timetableRepo, cacheService, validate, logr, cfg.Timetable.SaveRetries)
	announcementService := service.NewAnnouncementService(announcementRepo, validate, logr)
	categorizer := service.NewModelCategorizer(cfg.Categorizer.URL, cfg.Categorizer.Timeout, logr)
	complaintService := service.NewComplaintService(complaintRepo, categorizer, validate, logr)

	var exportService *service.ExportService
	if cfg.Exports.Enabled {
		exportService = service.NewExportService(timetableService, export.NewCSVExporter(), export.NewPDFExporter(), logr)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	handler.RegisterRoutes(r, handler.RouterDeps{
		AuthService:     authService,
		MetricsService:  metricsService,
		UserRepo:        userRepo,
		Auth:            handler.NewAuthHandler(authService),
		Users:           handler.NewUserHandler(userService),
		Timetable:       handler.NewTimetableHandler(timetableService, exportService),
		Announcements:   handler.NewAnnouncementHandler(announcementService),
		Complaints:      handler.NewComplaintHandler(complaintService),
		Metrics:         handler.NewMetricsHandler(metricsService),
		APIPrefix:       cfg.APIPrefix,
		EnableSwaggerUI: cfg.Env != config.EnvProduction,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
