package storage

import (
	"database/sql"
	"fmt"
	"time"

	"chart-bridge/src/logger"
	"chart-bridge/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	return &PostgresDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully")
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS credentials (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			kind TEXT NOT NULL,
			token TEXT NOT NULL,
			obtained_at BIGINT NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create credentials: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS request_log (
			id BIGSERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			interval TEXT NOT NULL,
			bar_count INTEGER NOT NULL,
			error_kind TEXT NOT NULL DEFAULT '',
			duration_ms BIGINT NOT NULL,
			requested_at BIGINT NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create request_log: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveCredential(cred models.MCredential) error {
	query := `
		INSERT INTO credentials (id, kind, token, obtained_at) VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET kind = EXCLUDED.kind, token = EXCLUDED.token, obtained_at = EXCLUDED.obtained_at;
	`
	if _, err := d.DB.Exec(query, string(cred.Kind), cred.Token, cred.ObtainedAt.Unix()); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) LoadCredential() (*models.MCredential, error) {
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

func (d *PostgresDB) ClearCredential() error {
	if _, err := d.DB.Exec("DELETE FROM credentials WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) RecordRequest(symbol, interval string, barCount int, errorKind string, durationMs int64) error {
	query := `
		INSERT INTO request_log (symbol, interval, bar_count, error_kind, duration_ms, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	if _, err := d.DB.Exec(query, symbol, interval, barCount, errorKind, durationMs, time.Now().UTC().Unix()); err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
