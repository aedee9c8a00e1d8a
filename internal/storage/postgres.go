package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taiwoajasa245/gita-reader-api/internal/database"
)

const createReadingKV = `
	CREATE TABLE IF NOT EXISTS reading_kv (
		profile    TEXT        NOT NULL,
		key        TEXT        NOT NULL,
		value      TEXT        NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (profile, key)
	)
`

// Postgres stores keys in the reading_kv table, scoped to a reader profile
// so several readers can share one database.
type Postgres struct {
	svc     database.Service
	db      *sql.DB
	profile string
}

func NewPostgres(ctx context.Context, svc database.Service, profile string) (*Postgres, error) {
	db := svc.DB()
	if _, err := db.ExecContext(ctx, createReadingKV); err != nil {
		return nil, fmt.Errorf("failed to create reading_kv: %w", err)
	}
	return &Postgres{svc: svc, db: db, profile: profile}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM reading_kv WHERE profile = $1 AND key = $2`

	var value string
	err := p.db.QueryRowContext(ctx, query, p.profile, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return []byte(value), nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO reading_kv (profile, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (profile, key)
		DO UPDATE SET value = excluded.value, updated_at = now()
	`
	if _, err := p.db.ExecContext(ctx, query, p.profile, key, string(value)); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM reading_kv WHERE profile = $1 AND key = $2`
	if _, err := p.db.ExecContext(ctx, query, p.profile, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Close() error {
	return p.svc.Close()
}
