package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auth-api/internal/config"
	"auth-api/internal/db"
	apihttp "auth-api/internal/http"
	"auth-api/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	users, closeStore, err := db.OpenUserDirectory(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open user directory", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()

	tokenOpts := []service.TokenOption{
		service.WithIssuer(cfg.JWTIssuer),
		service.WithLeeway(cfg.TokenLeeway()),
	}
	if cfg.TokenRevocation {
		store, closeRedis := openRevocationStore(ctx, cfg, logger)
		defer closeRedis()
		tokenOpts = append(tokenOpts, service.WithRevocationStore(store))
	}
	tokens, err := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL(), tokenOpts...)
	if err != nil {
		logger.Fatal("token service", zap.Error(err))
	}

	hasher := service.NewHasher(service.HasherParams{
		Time:        cfg.Argon2Time,
		MemoryKiB:   cfg.Argon2MemoryKiB,
		Threads:     cfg.Argon2Threads,
		MaxBytes:    cfg.MaxPasswordBytes,
		Concurrency: cfg.HashConcurrency,
	})
	validator := service.NewValidator(service.ValidatorConfig{
		MinPasswordLength: cfg.MinPasswordLength,
		MaxPasswordBytes:  cfg.MaxPasswordBytes,
		PageDefaultLimit:  cfg.PageDefaultLimit,
		PageMaxLimit:      cfg.PageMaxLimit,
	})

	authSvc := service.NewAuthService(logger, users, hasher, tokens, validator)
	authz := service.NewAuthorizer(logger, users, tokens)
	userSvc := service.NewUserService(logger, users, validator)

	authHandler := apihttp.NewAuthHandler(logger, authSvc, apihttp.CookieSettings{
		Name:   cfg.AuthCookieName,
		Secure: cfg.CookieSecure,
		MaxAge: cfg.TokenTTL(),
	})
	userHandler := apihttp.NewUserHandler(logger, userSvc)
	authMW := apihttp.NewAuthMiddleware(logger, authz, cfg.AuthCookieName)
	router := apihttp.NewRouter(logger, authHandler, userHandler, authMW, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("store", cfg.StoreDriver),
		zap.Bool("token_revocation", cfg.TokenRevocation),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

// openRevocationStore usa Redis si responde y cae a memoria si no.
func openRevocationStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (service.RevocationStore, func()) {
	if cfg.RedisAddr == "" {
		logger.Info("token revocation using in-memory denylist")
		return service.NewMemoryRevocationStore(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis ping failed; token revocation using in-memory denylist", zap.Error(err))
		client.Close()
		return service.NewMemoryRevocationStore(), func() {}
	}
	return service.NewRedisRevocationStore(client), func() { client.Close() }
}
