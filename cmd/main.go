package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"civiclens/backend/internal/analysis"
	"civiclens/backend/internal/api/handler"
	"civiclens/backend/internal/api/middleware"
	"civiclens/backend/internal/complaint"
	"civiclens/backend/internal/config"
	"civiclens/backend/internal/localization"
	"civiclens/backend/internal/logger"
	"civiclens/backend/internal/storage"
	"civiclens/backend/internal/telegram"
	"civiclens/backend/internal/telemetry"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "civiclens")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Storage and the complaint store
	backend, err := storage.Open(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("Failed to open storage", zap.Error(err))
	}
	defer backend.Close()

	store := complaint.NewStore(backend.Storage, lg)
	if err := store.Load(ctx); err != nil {
		lg.Fatal("Failed to load complaints", zap.Error(err))
	}

	// 2. Classifier and service
	var remote analysis.RemoteClassifier
	if cfg.ClassifierURL != "" {
		remote = analysis.NewHTTPRemoteClassifier(cfg.ClassifierURL, lg)
	}
	svc := complaint.NewService(store, analysis.NewClassifier(remote, cfg.ClassifierTimeout, lg), lg)

	localizer, err := localization.NewLocalizer(cfg.LocalesDir)
	if err != nil {
		lg.Fatal("Failed to load translations", zap.Error(err))
	}

	// 3. Telegram intake, when configured
	if cfg.TelegramBotToken != "" {
		var prefs telegram.Preferences
		if backend.Redis != nil {
			prefs = telegram.NewRedisPreferences(backend.Redis)
		}
		bot, err := telegram.NewBotService(cfg.TelegramBotToken, svc, prefs, localizer, lg)
		if err != nil {
			lg.Error("Telegram bot disabled", zap.Error(err))
		} else {
			go bot.Run(ctx)
		}
	}

	// 4. HTTP
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), telemetry.GinMiddleware(), corsMiddleware(cfg.CORSOrigins))
	r.GET("/metrics", gin.WrapH(telemetry.Handler()))

	h := handler.NewHandler(svc, localizer, lg)
	h.RegisterRoutes(r, middleware.SubmissionRateLimiter(
		backend.Redis, localizer, config.SubmissionRateKeyPrefix, cfg.SubmissionRateLimit, config.SubmissionRateWindow, lg,
	))

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		lg.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr), zap.Int("complaints", store.Len()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		lg.Error("HTTP shutdown failed", zap.Error(err))
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Accept-Language"},
		ExposeHeaders: []string{"Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
