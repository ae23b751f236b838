package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"repute/backend/internal/account"
	"repute/backend/internal/api/handler"
	"repute/backend/internal/auth"
	"repute/backend/internal/config"
	"repute/backend/internal/feed"
	"repute/backend/internal/logger"
	"repute/backend/internal/moderation"
	"repute/backend/internal/nomination"
	"repute/backend/internal/profile"
	"repute/backend/internal/review"
	"repute/backend/internal/storage"
)

// newCORS: токен передається в заголовку Authorization, cookies не потрібні.
func newCORS(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
}

func setupDependencies(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gorm.DB, *redis.Client) {
	// 1. База даних + міграції
	db, err := storage.OpenDB(ctx, storage.DBConfig{
		Driver:   cfg.DatabaseDriver,
		DSN:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		Debug:    !cfg.IsProduction(),
	}, clock.WallClock)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}

	// 2. Redis для сесій
	rdb, err := storage.OpenRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}

	log.Info("database and redis connections established")
	return db, rdb
}

func main() {
	envErr := godotenv.Load()

	log, err := logger.Init(logger.ConfigFromEnv())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	if envErr != nil {
		log.Warn("no .env file loaded", zap.Error(envErr))
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	log.Info("starting repute backend", zap.String("env", cfg.Env), zap.String("port", cfg.Port))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Ініціалізація залежностей
	db, rdb := setupDependencies(ctx, cfg, log)
	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		log.Fatal("failed to create snowflake node", zap.Error(err))
	}
	s := storage.NewStorageService(db, rdb, clock.WallClock, node)
	if err := s.Migrate(ctx); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// 2. Сервіси ядра
	accounts := account.NewService(s, account.NewBcryptHasher(0), clock.WallClock, log.Named("account"))
	reviews := review.NewEngine(s, log.Named("review"))
	h := handler.NewHandler(handler.Handler{
		Accounts:    accounts,
		Auth:        auth.NewAuthenticator(cfg.JWTSecret, cfg.SessionTTL, s, accounts, accounts, clock.WallClock, log.Named("auth")),
		Profiles:    profile.NewRegistry(s, reviews, clock.WallClock, log.Named("profile")),
		Reviews:     reviews,
		Nominations: nomination.NewService(s, log.Named("nomination")),
		Moderation:  moderation.NewService(s, reviews, log.Named("moderation")),
		Feed:        feed.NewAggregator(s, clock.WallClock, log.Named("feed")),
	}, log.Named("http"))

	// 3. Налаштування Gin та роутингу
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestLogger(log.Named("http")))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	h.Register(r)

	corsHandler := newCORS(cfg.AllowedOrigins).Handler(r)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        corsHandler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := rdb.Close(); err != nil {
		log.Warn("closing redis", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
