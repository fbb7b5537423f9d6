package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/field-booking-backend/internal/app"
	"github.com/nekogravitycat/field-booking-backend/internal/booking"
	"github.com/nekogravitycat/field-booking-backend/internal/config"
	"github.com/nekogravitycat/field-booking-backend/internal/db"
	"github.com/nekogravitycat/field-booking-backend/internal/logging"
	"github.com/nekogravitycat/field-booking-backend/internal/metrics"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}

	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if cfg.EnvFileErr != nil {
		logger.Debug().Err(cfg.EnvFileErr).Msg("no .env file loaded")
	}
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.Register()

	if cfg.DBAutoMigrate {
		version, err := db.Migrate(cfg.DBDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
		logger.Info().Uint("version", version).Msg("database schema up to date")
	}

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer pool.Close()

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	container, err := app.NewContainer(app.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.Origins(),
		DBPool:         pool,
		Redis:          redisClient,
		SlotCacheTTL:   cfg.SlotCacheTTL,
		JWTSecret:      cfg.JWTSecret,
		JWTTTL:         cfg.JWTAccessTokenTTL,
		PasswordCost:   cfg.BcryptCost,
		Location:       cfg.Location(),
		CancelLockout:  cfg.CancelLockout,
		UploadDir:      cfg.UploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Logger:         logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build application")
	}

	if cfg.BootstrapAdminEmail != "" {
		admin, err := container.UserService.EnsureAdmin(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to ensure bootstrap admin")
		}
		logger.Info().Str("user_id", admin.ID).Msg("bootstrap admin ready")
	}

	if cfg.CompletionSweepInterval > 0 {
		sweeper := booking.NewSweeper(container.BookingService, cfg.CompletionSweepInterval, logger)
		go sweeper.Start(ctx)
	}

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in separate goroutine
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("utc_offset", cfg.Location().String()).Msg("server running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited gracefully")
}

// initRedis connects the slot cache backend. Caching is optional, so an
// unreachable server only disables it.
func initRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without slot cache")
		client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("redis connected")
	return client
}
