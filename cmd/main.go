package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"driver-review-service/internal/auth"
	"driver-review-service/internal/bot"
	"driver-review-service/internal/config"
	"driver-review-service/internal/drivers"
	"driver-review-service/internal/events"
	"driver-review-service/internal/feed"
	"driver-review-service/internal/leaderboard"
	"driver-review-service/internal/profiles"
	"driver-review-service/internal/reviews"
	"driver-review-service/internal/storage"
	"driver-review-service/internal/storage/memory"
	"driver-review-service/internal/storage/postgres"
	"driver-review-service/migrations"
	"driver-review-service/pkg/db"
	"driver-review-service/pkg/jwt"
	"driver-review-service/pkg/kafka"
	"driver-review-service/pkg/logger"
	rredis "driver-review-service/pkg/redis"
	"driver-review-service/pkg/validation"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, logger.Options{Level: cfg.LoggerLevel, File: cfg.LogFile})
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("service stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log logger.ILogger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── 1. JWT secret ──
	if err := jwt.Init(cfg.JWTSecret, cfg.JWTTTL); err != nil {
		return err
	}

	// ── 2. Store ──
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	// ── 3. Redis (optional) ──
	var cache *rredis.Client
	if cfg.RedisAddr != "" {
		cache, err = rredis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, log)
		if err != nil {
			log.Warning("running without redis: cache and sign-out disabled", logger.Error(err))
			cache = nil
		}
	}
	defer cache.Close()
	if cache != nil {
		jwt.SetRevoker(cache)
	}

	// ── 4. Events: Kafka, or in-process when no broker is configured ──
	var (
		publisher  events.Publisher
		subscriber events.Subscriber
	)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaClient := kafka.NewClient(cfg.KafkaBrokers, log)
		defer kafkaClient.Close()
		if err := kafkaClient.EnsureTopics(ctx, events.Topics...); err != nil {
			return err
		}
		publisher, subscriber = kafkaClient, kafkaClient
	} else {
		loop := events.NewLoopback(log)
		publisher, subscriber = loop, loop
		log.Info("KAFKA_BROKERS empty, using in-process events")
	}

	// ── 5. Services ──
	v := validation.New()
	driverSvc := drivers.NewService(store, v, publisher, log.With(logger.String("component", "drivers")))
	reviewSvc := reviews.NewService(store, v, publisher, log.With(logger.String("component", "reviews")))
	profileSvc := profiles.NewService(store, v, publisher, log.With(logger.String("component", "profiles")))
	authSvc := auth.NewService(store, v, cache, log.With(logger.String("component", "auth")))
	boardSvc := leaderboard.NewService(store, cache, cfg.CacheTTL, cfg.LeaderboardLimit, log.With(logger.String("component", "leaderboard")))

	// ── 6. Background consumers ──
	hub := feed.NewHub(log.With(logger.String("component", "feed")))
	feed.NewDispatcher(subscriber, hub, boardSvc, log.With(logger.String("component", "feed"))).Start(ctx)

	if cfg.TelegramBotToken != "" {
		tg, err := bot.New(cfg.TelegramBotToken, driverSvc, boardSvc, log.With(logger.String("component", "bot")))
		if err != nil {
			log.Warning("telegram bot disabled", logger.Error(err))
		} else {
			go tg.Start(ctx)
		}
	}

	// ── 7. HTTP router ──
	reviewH := reviews.NewHandler(reviewSvc)
	boardH := leaderboard.NewHandler(boardSvc)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(jwt.OptionalAuth)

	r.Get("/health", health(cfg.ServiceName, store, cache))

	r.Mount("/auth", auth.NewHandler(authSvc).Routes())
	r.With(jwt.RequireAuth).Post("/drivers/{id}/reviews", reviewH.Submit)
	r.Mount("/drivers", drivers.NewHandler(driverSvc).Routes())
	r.Mount("/reviews", reviewH.Routes())
	r.Mount("/profiles", profiles.NewHandler(profileSvc).Routes())
	r.Mount("/leaderboard", boardH.Routes())
	r.Get("/stats", boardH.Stats)
	r.Mount("/ws", hub.Routes())

	// ── 8. Start server ──
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.HTTPPort), Handler: r}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", logger.Int("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// ── 9. Graceful shutdown ──
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return err
	}
	log.Info("shutting down")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	err = srv.Shutdown(shutCtx)
	cancel() // stop consumers
	return err
}

func openStore(ctx context.Context, cfg config.Config, log logger.ILogger) (storage.IStorage, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warning("using in-memory store, data is lost on restart")
		return memory.New(), nil
	case config.StoreDriverPostgres:
		database, err := db.Connect(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		if cfg.RunMigrations {
			if err := database.RunMigrations(migrations.FS); err != nil {
				database.Close()
				return nil, fmt.Errorf("migrations failed: %w", err)
			}
		}
		return postgres.New(database.Pool, log.With(logger.String("component", "storage"))), nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

func health(service string, store storage.IStorage, cache *rredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status, code := "ok", http.StatusOK
		checks := map[string]string{"store": "ok", "redis": "ok"}
		if err := store.Ping(ctx); err != nil {
			checks["store"] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
		}
		if cache == nil {
			checks["redis"] = "disabled"
		} else if err := cache.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]any{"status": status, "service": service, "checks": checks})
	}
}
