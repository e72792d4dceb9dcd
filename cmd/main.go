package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sulabh/backend/internal/api/handler"
	"sulabh/backend/internal/complaint"
	"sulabh/backend/internal/config"
	"sulabh/backend/internal/identity"
	"sulabh/backend/internal/localization"
	"sulabh/backend/internal/logger"
	"sulabh/backend/internal/models"
	"sulabh/backend/internal/notify"
	"sulabh/backend/internal/storage"
	"sulabh/backend/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupDependencies(cfg *config.Config, log *slog.Logger) (*gorm.DB, *redis.Client, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, err
	}

	log.Info("database and redis connections established")
	return db, rdb, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.Init(cfg.Logger)
	log.Info("starting SULABH backend", "addr", cfg.Server.Addr)

	db, rdb, err := setupDependencies(cfg, log)
	if err != nil {
		log.Error("failed to connect dependencies", "error", err)
		os.Exit(1)
	}

	// Identity
	tokens := identity.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	provider := identity.NewGormProvider(db, identity.NewRedisSessionStore(rdb), tokens,
		identity.NewBcryptPasswordHasher(cfg.Auth.BcryptCost), cfg.Auth.TokenTTL, log)
	if err := provider.AutoMigrate(); err != nil {
		log.Error("failed to migrate users", "error", err)
		os.Exit(1)
	}

	// Complaints
	backing := storage.NewStorageService(db, log)
	if err := backing.AutoMigrate(); err != nil {
		log.Error("failed to migrate complaints", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := notify.NewManagerService(rdb, log)
	go hub.Run(ctx)

	policy := complaint.IgnoreMissing
	if cfg.Complaints.StrictUpdates {
		policy = complaint.RejectMissing
	}
	store := complaint.NewStore(backing,
		complaint.WithLogger(log),
		complaint.WithNotifier(hub),
		complaint.WithMissingPolicy(policy),
	)
	if err := store.Load(ctx); err != nil {
		log.Error("failed to load complaints", "error", err)
		os.Exit(1)
	}
	// the admin CLI and other instances change complaints behind this store
	hub.Observe(func(ev models.ComplaintEvent) { store.Observe(ctx, ev) })

	escalator, err := complaint.NewEscalator(store, cfg.Complaints.EscalationSchedule, log)
	if err != nil {
		log.Error("invalid escalation schedule", "schedule", cfg.Complaints.EscalationSchedule, "error", err)
		os.Exit(1)
	}
	escalator.Start()

	// Telegram
	if cfg.Telegram.BotToken != "" {
		localizer, err := localization.NewBundledLocalizer()
		if err != nil {
			log.Error("failed to load translations", "error", err)
			os.Exit(1)
		}
		bot, err := telegram.NewBotService(cfg.Telegram.BotToken, hub, store, localizer, log)
		if err != nil {
			log.Error("failed to start telegram bot", "error", err)
			os.Exit(1)
		}
		go bot.Run(ctx)
	} else {
		log.Warn("SULABH_TELEGRAM_BOT_TOKEN not set, telegram bot disabled")
	}

	// HTTP
	gin.SetMode(cfg.Server.Mode)
	h := handler.NewHandler(store, provider, hub, log)
	server := &http.Server{
		Addr:           cfg.Server.Addr,
		Handler:        handler.NewRouter(h, cfg.Server.AllowedOrigins),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", "error", err)
	}
	escalator.Stop(shutdownCtx)
	if err := rdb.Close(); err != nil {
		log.Warn("failed to close redis", "error", err)
	}
}
