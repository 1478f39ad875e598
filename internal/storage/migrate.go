package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const migrateTimeout = 30 * time.Second

// Deleting an asset that still carries metadata must fail at the database
// layer, hence RESTRICT on the foreign key.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS assets (
		uuid              TEXT PRIMARY KEY,
		imported_path     TEXT NOT NULL,
		imported_filename TEXT NOT NULL,
		stored_path       TEXT NOT NULL,
		stored_url        TEXT NOT NULL,
		size_bytes        BIGINT NOT NULL,
		stored_filename   TEXT NOT NULL,
		extension         TEXT NOT NULL,
		content_hash      TEXT,
		uploaded_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE TABLE IF NOT EXISTS asset_meta_base (
		id                  BIGSERIAL PRIMARY KEY,
		asset_type          TEXT NOT NULL,
		asset_class         TEXT NOT NULL,
		asset_location_name TEXT NOT NULL,
		asset_camera        TEXT NOT NULL,
		asset_date_label    TEXT NOT NULL,
		asset_id            TEXT NOT NULL UNIQUE
			REFERENCES assets (uuid) ON DELETE RESTRICT ON UPDATE CASCADE
	);`,
}

// Migrate applies the schema idempotently at startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, migrateTimeout)
	defer cancel()

	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}
