package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/claimguard/insurance-fraud-backend/internal/infrastructure/config"
	"github.com/claimguard/insurance-fraud-backend/internal/infrastructure/telemetry"
)

// Command-line flags
var (
	mode = flag.String("mode", "up", "Operation mode: up, status")
	dir  = flag.String("dir", "migrations", "Directory containing *.sql migrations")
)

// migration is one SQL file waiting to be applied. The ID is the
// timestamp prefix of the filename and orders the set.
type migration struct {
	ID   string
	Path string
}

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		slog.Error("failed to configure logger", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	conn, err := pgx.Connect(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	if err := ensureVersionTable(ctx, conn); err != nil {
		logger.Error("failed to prepare version table", "error", err)
		os.Exit(1)
	}

	switch *mode {
	case "up":
		err = runUp(ctx, conn, *dir, logger)
	case "status":
		err = runStatus(ctx, conn, *dir)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func ensureVersionTable(ctx context.Context, conn *pgx.Conn) error {
	_, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	return err
}

func appliedIDs(ctx context.Context, conn *pgx.Conn) (map[string]bool, error) {
	rows, err := conn.Query(ctx, `SELECT id FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		applied[id] = true
	}
	return applied, rows.Err()
}

// migrationID extracts the timestamp prefix from a migration filename,
// e.g. "20250815100000_initial_schema.sql" yields "20250815100000".
func migrationID(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), ".sql")
	if i := strings.IndexByte(base, '_'); i > 0 {
		return base[:i]
	}
	return base
}

// pendingMigrations lists the *.sql files in dir that are not yet
// recorded as applied, ordered by ID.
func pendingMigrations(dir string, applied map[string]bool) ([]migration, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}

	var pending []migration
	for _, path := range paths {
		id := migrationID(path)
		if applied[id] {
			continue
		}
		pending = append(pending, migration{ID: id, Path: path})
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	return pending, nil
}

func runUp(ctx context.Context, conn *pgx.Conn, dir string, logger *slog.Logger) error {
	applied, err := appliedIDs(ctx, conn)
	if err != nil {
		return err
	}

	pending, err := pendingMigrations(dir, applied)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		logger.Info("database is up to date")
		return nil
	}

	for _, m := range pending {
		stmts, err := os.ReadFile(m.Path)
		if err != nil {
			return fmt.Errorf("read %s: %w", m.Path, err)
		}

		// Each migration applies atomically with its version record.
		tx, err := conn.Begin(ctx)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, string(stmts)); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("apply %s: %w", m.ID, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (id) VALUES ($1)`, m.ID); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("record %s: %w", m.ID, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}

		logger.Info("applied migration",
			slog.String("id", m.ID),
			slog.String("file", filepath.Base(m.Path)))
	}

	logger.Info("migrations complete", slog.Int("applied", len(pending)))
	return nil
}

func runStatus(ctx context.Context, conn *pgx.Conn, dir string) error {
	applied, err := appliedIDs(ctx, conn)
	if err != nil {
		return err
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return err
	}
	sort.Strings(paths)

	for _, path := range paths {
		state := "pending"
		if applied[migrationID(path)] {
			state = "applied"
		}
		fmt.Printf("%-10s %s\n", state, filepath.Base(path))
	}
	return nil
}
