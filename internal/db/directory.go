package db

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"auth-api/internal/config"
	"auth-api/internal/repository"
)

// OpenUserDirectory elige el backend de usuarios según STORE_DRIVER. El
// func devuelto libera las conexiones.
func OpenUserDirectory(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.UserRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pool, err := NewPool(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := Ping(pingCtx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("db ping: %w", err)
		}
		if cfg.RunMigrations {
			if err := Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
			logger.Info("migrations applied")
		}
		return repository.NewPgUserRepository(pool), pool.Close, nil

	case config.StoreDriverSQLite:
		sqlDB, err := repository.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewSQLiteUserRepository(sqlDB)
		if err := repo.Init(ctx); err != nil {
			sqlDB.Close()
			return nil, nil, err
		}
		return repo, func() { sqlDB.Close() }, nil

	case config.StoreDriverMemory:
		logger.Warn("using in-memory user directory; data is lost on restart")
		return repository.NewMemoryUserRepository(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
