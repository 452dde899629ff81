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

	"trailquest/internal/api"
	"trailquest/internal/middleware"
	"trailquest/internal/remote"
	"trailquest/internal/repository"
	"trailquest/internal/service"
	"trailquest/pkg/auth"
	"trailquest/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.Migrate(ctx); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	queueStore, err := repository.NewQueueStore(cfg.Queue.Path)
	if err != nil {
		zapLogger.Fatal("Failed to open upload queue", zap.Error(err))
	}
	defer queueStore.Close()

	mediaClient := remote.NewMediaClient(remote.Config{
		BaseURL: cfg.Media.BaseURL,
		APIKey:  cfg.Media.APIKey,
		Timeout: cfg.Media.Timeout,
	})
	hintClient := remote.NewHintClient(cfg.Hints)
	mediaFs := afero.NewBasePathFs(afero.NewOsFs(), cfg.Media.LocalRoot)

	uploadQueue := service.NewUploadQueue(queueStore, mediaClient, mediaClient, mediaFs)

	var companion service.CompanionDevice = service.NopCompanion{}
	if cfg.Companion.Enabled {
		tc := service.NewTelegramCompanion(service.TelegramCompanionConfig{
			BotToken: cfg.Companion.BotToken,
			Debug:    cfg.Companion.Debug,
		})
		if err := tc.Initialize(ctx); err != nil {
			zapLogger.Error("Companion bot unavailable, alerts disabled", zap.Error(err))
		} else {
			companion = tc
		}
	}

	hikeService := service.NewHikeService(service.HikeConfig{
		DefaultRevealRadius: cfg.Engine.DefaultRevealRadius,
		BadgeDelay:          cfg.Engine.BadgeDelay,
		Quest: service.QuestConfig{
			Size:            cfg.Engine.QuestSize,
			CompletionBonus: cfg.Engine.CompletionBonus,
		},
		CatalogTTL: cfg.Engine.CatalogTTL,
	}, service.HikeDeps{
		Catalog:   repo,
		Hikes:     repo,
		Backend:   repo,
		Quests:    repo,
		Hints:     hintClient,
		Media:     uploadQueue,
		Companion: companion,
	})
	defer hikeService.Close()

	telegramAuth := auth.NewTelegramAuth(cfg.TelegramAuth.TelegramBotToken, cfg.TelegramAuth.DebugMode)
	authz := middleware.NewAuthorization(hikeService)

	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a := router.Group("/api/v1")
	api.NewHikeRoutes(a, hikeService, telegramAuth, authz)
	api.NewUploadRoutes(a, uploadQueue, hikeService, telegramAuth, authz)
	api.NewEventRoutes(a, hikeService, telegramAuth, authz)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		zapLogger.Info("Starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown failed", zap.Error(err))
	}
}
