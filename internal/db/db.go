package db

import (
	"context"
	"fmt"

	"sessionauth/internal/config"
	"sessionauth/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func NewPostgresConnection(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.GetDSNSafe(), err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.GetDSNSafe(), err)
	}

	logger.Log.Info("Подключение к PostgreSQL установлено", zap.String("dsn", cfg.GetDSNSafe()))
	return pool, nil
}
