package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"places-server/config"
	"places-server/handlers"
	"places-server/services"
	"places-server/utils/logger"
	"places-server/utils/metrics"
)

const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 15 * time.Second
	redisDialTimeout  = 5 * time.Second
	redisIOTimeout    = 3 * time.Second
)

func main() {
	logger.Init()
	log := logger.Named("places")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel))
		_ = logger.SetLevelString("info")
	}

	// One pooled Redis client shared by every request.
	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  redisDialTimeout,
		ReadTimeout:  redisIOTimeout,
		WriteTimeout: redisIOTimeout,
	})
	defer redisClient.Close()

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		// Requests report the outage themselves; keep serving.
		log.Warn(ctx, "redis not reachable at startup", logger.String("addr", cfg.Redis.Addr()), logger.Error(err))
	} else {
		log.Info(ctx, "connected to redis", logger.String("addr", cfg.Redis.Addr()))
	}
	cancel()

	m := metrics.NewManager()
	index := services.NewRedisGeoIndex(redisClient,
		services.WithKeyPrefix(cfg.Redis.KeyPrefix),
		services.WithStoreMetrics(m),
	)
	placeService := services.NewPlaceService(index,
		services.WithCategories(cfg.Categories),
		services.WithStrictCategories(cfg.StrictCategories),
		services.WithRadiusKm(cfg.RadiusKm),
		services.WithStoreTimeout(cfg.StoreTimeout),
		services.WithLogger(logger.Named("places.service")),
		services.WithMetrics(m),
	)

	router := handlers.NewRouter(handlers.RouterConfig{
		PlaceService:   placeService,
		Index:          index,
		Logger:         logger.Named("places.http"),
		Metrics:        m,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "server starting", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "http server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	log.Info(shutdownCtx, "server stopped")
}
