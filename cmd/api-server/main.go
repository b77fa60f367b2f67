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

	"comichub/database"
	"comichub/internal/config"
	"comichub/internal/logging"
	"comichub/internal/metrics"
	"comichub/internal/microservices/http-api/repository"
	"comichub/internal/microservices/http-api/server"
	"comichub/internal/microservices/http-api/service"
	"comichub/internal/upload"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const refreshTokenSweep = time.Hour

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.PrometheusEnabled {
		metrics.Init()
	}

	db, err := database.OpenGorm(cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close(db) //nolint:errcheck

	if err := database.Migrate(db, logger); err != nil {
		return err
	}

	rdb, err := database.OpenRedis(cfg, logger)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Repositories
	cache := repository.NewCache(rdb, time.Duration(cfg.CacheTTL)*time.Second)
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)
	comicRepo := repository.NewComicRepository(db)
	chapterRepo := repository.NewChapterRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	followRepo := repository.NewFollowRepository(db)
	viewStatRepo := repository.NewViewStatRepository(db)
	accountHistory := repository.NewAccountHistoryRepository(db)
	deviceHistory := repository.NewDeviceHistoryRedisRepo(rdb, cfg.DeviceHistoryTTL)

	// Image host
	var client *upload.Client
	if cfg.ImageHostCloud != "" {
		client = upload.NewClient(cfg.ImageHostURL, cfg.ImageHostCloud, cfg.ImageHostRate, logger)
	} else {
		logger.Warn("IMAGE_HOST_CLOUD not set, uploads are disabled")
	}
	uploader := upload.NewService(client, upload.Options{
		Preset:       cfg.ImageHostPreset,
		AvatarPreset: cfg.ImageHostAvatarPreset,
		MaxSize:      cfg.UploadMaxSize,
		Workers:      cfg.UploadWorkers,
	}, logger)

	// Services
	authService := service.NewAuthService(userRepo, refreshTokenRepo, resetRepo, cache, service.LogMailer{Log: logger}, cfg, logger)
	historyService := service.NewHistoryService(accountHistory, deviceHistory, logger)
	followService := service.NewFollowService(followRepo, comicRepo, chapterRepo, cache, logger)
	svcs := server.Services{
		Auth:      authService,
		Histories: historyService,
		Follows:   followService,
		Users:     service.NewUserService(userRepo, refreshTokenRepo, uploader, logger),
		Comics: service.NewComicService(comicRepo, chapterRepo, categoryRepo, viewStatRepo,
			followService, historyService, cache, cfg.ViewDedupeWindow, logger),
		Admin: service.NewAdminService(userRepo, comicRepo, chapterRepo, categoryRepo, followRepo,
			viewStatRepo, uploader, cache, cfg.ComicSourceBaseURL, logger),
	}

	router := server.NewRouter(svcs, server.Options{
		MaxUploadSize:  cfg.UploadMaxSize,
		CORSOrigins:    cfg.CORSOrigins,
		Metrics:        cfg.PrometheusEnabled,
		AuthPerMinute:  20,
		AuthBurst:      5,
		RequestTimeout: cfg.RequestTimeout,
		Health: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			if err := sqlDB.PingContext(ctx); err != nil {
				return fmt.Errorf("database: %w", err)
			}
			if rdb != nil {
				if err := rdb.Ping(ctx).Err(); err != nil {
					return fmt.Errorf("redis: %w", err)
				}
			}
			return nil
		},
	}, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweepRefreshTokens(ctx, refreshTokenRepo, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.GoEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func sweepRefreshTokens(ctx context.Context, repo repository.RefreshTokenRepository, logger *zap.Logger) {
	ticker := time.NewTicker(refreshTokenSweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := repo.DeleteExpired(ctx); err != nil {
				logger.Warn("delete expired refresh tokens", zap.Error(err))
			}
		}
	}
}
