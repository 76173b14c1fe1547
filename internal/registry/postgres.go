package registry

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRegistry stores asset identifiers in the wallet_assets table.
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

func NewPostgresRegistry(ctx context.Context, dsn string) (*PostgresRegistry, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresRegistry{pool: pool}, nil
}

func (s *PostgresRegistry) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the wallet_assets table when missing.
func (s *PostgresRegistry) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS wallet_assets (
			asset_id      TEXT PRIMARY KEY,
			first_seen_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("create wallet_assets: %w", err)
	}
	return nil
}

func (s *PostgresRegistry) Contains(ctx context.Context, assetID string) (bool, error) {
	id, err := normalizeID(assetID)
	if err != nil {
		return false, err
	}
	var exists bool
	row := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM wallet_assets WHERE asset_id=$1)`, id)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *PostgresRegistry) Register(ctx context.Context, assetID string) error {
	id, err := normalizeID(assetID)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO wallet_assets (asset_id, first_seen_at)
		VALUES ($1, now())
		ON CONFLICT (asset_id) DO NOTHING
	`, id)
	return err
}
