package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	name       VARCHAR(255) PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// RunMigrations применяет встроенные *.up.sql по имени файла.
// Применённые записываются в schema_migrations, повторный запуск (панель, seed) их пропускает.
func RunMigrations(ctx context.Context, db DBTX, logger *zap.Logger) error {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return applyMigrations(ctx, db, sub, logger)
}

func applyMigrations(ctx context.Context, db DBTX, fsys fs.FS, logger *zap.Logger) error {
	names, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return fmt.Errorf("migrations: failed to list files: %w", err)
	}
	slices.Sort(names)

	if _, err := db.Exec(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("migrations: failed to create schema_migrations: %w", err)
	}

	for _, name := range names {
		version := strings.TrimSuffix(path.Base(name), ".up.sql")

		var applied string
		err := db.QueryRow(ctx, `SELECT name FROM schema_migrations WHERE name = $1`, version).Scan(&applied)
		if err == nil {
			logger.Debug("migration already applied", zap.String("migration", version))
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("migrations: failed to check %s: %w", version, err)
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("migrations: failed to read %s: %w", name, err)
		}

		logger.Info("applying migration", zap.String("migration", version))
		if _, err := db.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("migrations: failed to apply %s: %w", version, err)
		}
		if _, err := db.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, version); err != nil {
			return fmt.Errorf("migrations: failed to record %s: %w", version, err)
		}
	}

	return nil
}
