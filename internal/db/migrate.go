package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"sessionauth/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// gooseUp подменяется в тестах.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// Migrate накатывает встроенные миграции через database/sql поверх того же пула.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()
	return runMigrations(ctx, sqlDB)
}

func runMigrations(ctx context.Context, sqlDB *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUp(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// gooseLogger направляет вывод goose в zap.
type gooseLogger struct{}

func (gooseLogger) Fatalf(format string, v ...any) { logger.Log.Sugar().Fatalf(format, v...) }

func (gooseLogger) Printf(format string, v ...any) { logger.Log.Sugar().Infof(format, v...) }
