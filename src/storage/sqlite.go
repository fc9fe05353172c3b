package storage

import (
	"database/sql"
	"fmt"
	"time"

	"chart-bridge/src/logger"
	"chart-bridge/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type AsyncSQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAsyncSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*AsyncSQLiteDB, error) {
	return &AsyncSQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) createTables() error {
	// The credential table holds at most one row. The audit log is
	// append-only; bars are never stored.
	query := `
		CREATE TABLE IF NOT EXISTS credentials (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			kind TEXT NOT NULL,
			token TEXT NOT NULL,
			obtained_at INTEGER NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create credentials: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS request_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			interval TEXT NOT NULL,
			bar_count INTEGER NOT NULL,
			error_kind TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL,
			requested_at INTEGER NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create request_log: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveCredential(cred models.MCredential) error {
	query := `
		INSERT INTO credentials (id, kind, token, obtained_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET kind = excluded.kind, token = excluded.token, obtained_at = excluded.obtained_at;
	`
	if _, err := d.DB.Exec(query, string(cred.Kind), cred.Token, cred.ObtainedAt.Unix()); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) LoadCredential() (*models.MCredential, error) {
	row := d.DB.QueryRow("SELECT kind, token, obtained_at FROM credentials WHERE id = 1")

	var kind, token string
	var obtainedAt int64
	if err := row.Scan(&kind, &token, &obtainedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	return &models.MCredential{
		Token:      token,
		Kind:       models.CredentialKind(kind),
		ObtainedAt: time.Unix(obtainedAt, 0).UTC(),
	}, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) ClearCredential() error {
	if _, err := d.DB.Exec("DELETE FROM credentials WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) RecordRequest(symbol, interval string, barCount int, errorKind string, durationMs int64) error {
	query := `
		INSERT INTO request_log (symbol, interval, bar_count, error_kind, duration_ms, requested_at)
		VALUES (?, ?, ?, ?, ?, ?);
	`
	if _, err := d.DB.Exec(query, symbol, interval, barCount, errorKind, durationMs, time.Now().UTC().Unix()); err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
