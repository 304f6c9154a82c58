package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/commitly/commitlybot/internal/logger"
	"github.com/commitly/commitlybot/migrations"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

// SQLiteStore keeps the document in a SQLite database.
type SQLiteStore struct {
	db  *sqlx.DB
	log *slog.Logger
}

// OpenSQLite connects to the database at path and applies migrations.
func OpenSQLite(path string, log *slog.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = logger.Discard()
	}
	log = log.With("component", "sqlite_store")

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := applyMigrations(db.DB, log); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("Error closing database after migration failure", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Info("Database connected and migrations applied", "path", dbFileName(path))
	return &SQLiteStore{db: db, log: log}, nil
}

func applyMigrations(db *sql.DB, log *slog.Logger) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create embed source driver: %w", err)
	}
	dbDriver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite migration driver: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Debug("No database migrations to apply")
			return nil
		}
		return err
	}
	log.Info("Database migrations applied")
	return nil
}

// dbFileName strips the file: prefix and query parameters from a DSN.
func dbFileName(dsn string) string {
	dsn = strings.TrimPrefix(dsn, "file:")
	if idx := strings.Index(dsn, "?"); idx != -1 {
		dsn = dsn[:idx]
	}
	return dsn
}

type regionRow struct {
	ChatID int64  `db:"chat_id"`
	Region string `db:"region"`
}

type completedRow struct {
	TaskKey     string `db:"task_key"`
	CompletedAt string `db:"completed_at"`
}

// Load reads all three tables into a document.
func (s *SQLiteStore) Load(ctx context.Context) (Document, error) {
	var doc Document

	if err := s.db.SelectContext(ctx, &doc.Users, `SELECT chat_id FROM recipients ORDER BY id`); err != nil {
		return Document{}, fmt.Errorf("failed to load recipients: %w", err)
	}

	var regions []regionRow
	if err := s.db.SelectContext(ctx, &regions, `SELECT chat_id, region FROM recipient_regions`); err != nil {
		return Document{}, fmt.Errorf("failed to load regions: %w", err)
	}
	if len(regions) > 0 {
		doc.Regions = make(map[int64]string, len(regions))
		for _, r := range regions {
			doc.Regions[r.ChatID] = r.Region
		}
	}

	var completed []completedRow
	if err := s.db.SelectContext(ctx, &completed, `SELECT task_key, completed_at FROM completed_tasks`); err != nil {
		return Document{}, fmt.Errorf("failed to load completed tasks: %w", err)
	}
	if len(completed) > 0 {
		doc.CompletedTasks = make(map[string]time.Time, len(completed))
		for _, c := range completed {
			at, err := time.Parse(time.RFC3339Nano, c.CompletedAt)
			if err != nil {
				return Document{}, fmt.Errorf("bad completion time for %s: %w", c.TaskKey, err)
			}
			doc.CompletedTasks[c.TaskKey] = at
		}
	}

	return doc, nil
}

// Save replaces the stored document inside one transaction.
func (s *SQLiteStore) Save(ctx context.Context, doc Document) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.log.WarnContext(ctx, "Error rolling back transaction", "error", rbErr)
		}
	}()

	for _, stmt := range []string{
		`DELETE FROM recipients`,
		`DELETE FROM recipient_regions`,
		`DELETE FROM completed_tasks`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear registry tables: %w", err)
		}
	}

	for _, id := range doc.Users {
		if _, err := tx.ExecContext(ctx, `INSERT INTO recipients (chat_id) VALUES (?)`, id); err != nil {
			return fmt.Errorf("failed to insert recipient %d: %w", id, err)
		}
	}
	for id, region := range doc.Regions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recipient_regions (chat_id, region) VALUES (?, ?)`, id, region); err != nil {
			return fmt.Errorf("failed to insert region for %d: %w", id, err)
		}
	}
	for key, at := range doc.CompletedTasks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO completed_tasks (task_key, completed_at) VALUES (?, ?)`,
			key, at.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("failed to insert completion %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit registry: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.log.Info("Database connection closed")
	return nil
}
