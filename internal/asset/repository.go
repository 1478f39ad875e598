package asset

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

// Repository provides access to asset and metadata persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new asset repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateWithMeta inserts the asset row and, when a.Meta is set, its metadata
// row in one transaction, so both exist or neither does.
func (r *Repository) CreateWithMeta(ctx context.Context, a Asset) (Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Asset{}, NewStorageError("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	const insertAsset = `
INSERT INTO assets (uuid, imported_path, imported_filename, stored_path, stored_url, size_bytes, stored_filename, extension, content_hash)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING uploaded_at;`

	err = tx.QueryRow(ctx, insertAsset,
		a.ID.String(),
		a.ImportedPath,
		a.ImportedFilename,
		a.StoredPath,
		a.StoredURL,
		a.SizeBytes,
		a.StoredFilename,
		a.Extension,
		a.ContentHash,
	).Scan(&a.UploadedAt)
	if err != nil {
		return Asset{}, NewStorageError("create asset record", err)
	}

	if a.Meta != nil {
		const insertMeta = `
INSERT INTO asset_meta_base (asset_type, asset_class, asset_location_name, asset_camera, asset_date_label, asset_id)
VALUES ($1, $2, $3, $4, $5, $6);`

		if _, err := tx.Exec(ctx, insertMeta,
			a.Meta.AssetType,
			a.Meta.AssetClass,
			a.Meta.AssetLocationName,
			a.Meta.AssetCamera,
			a.Meta.AssetDateLabel,
			a.ID.String(),
		); err != nil {
			return Asset{}, NewStorageError("create asset metadata record", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Asset{}, NewStorageError("commit asset record", err)
	}
	return a, nil
}

// Get fetches one asset with its metadata attached when present.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	const query = `
SELECT a.uuid, a.imported_path, a.imported_filename, a.stored_path, a.stored_url, a.size_bytes, a.stored_filename, a.extension, a.content_hash, a.uploaded_at,
       m.asset_type, m.asset_class, m.asset_location_name, m.asset_camera, m.asset_date_label
FROM assets a
LEFT JOIN asset_meta_base m ON m.asset_id = a.uuid
WHERE a.uuid = $1;`

	var a Asset
	var rawID string
	var mType, mClass, mLoc, mCamera, mDate *string
	err := r.pool.QueryRow(ctx, query, id.String()).Scan(
		&rawID,
		&a.ImportedPath,
		&a.ImportedFilename,
		&a.StoredPath,
		&a.StoredURL,
		&a.SizeBytes,
		&a.StoredFilename,
		&a.Extension,
		&a.ContentHash,
		&a.UploadedAt,
		&mType,
		&mClass,
		&mLoc,
		&mCamera,
		&mDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, NewNotFoundError("asset not found")
		}
		return Asset{}, NewStorageError("get asset record", err)
	}

	a.ID, err = uuid.Parse(rawID)
	if err != nil {
		return Asset{}, NewStorageError("parse asset id", err)
	}

	if mType != nil {
		a.Meta = &Metadata{
			AssetType:         *mType,
			AssetClass:        *mClass,
			AssetLocationName: *mLoc,
			AssetCamera:       *mCamera,
			AssetDateLabel:    *mDate,
		}
	}
	return a, nil
}

// UpsertMeta creates or fully replaces the metadata record for an asset.
// Every column is rewritten from the input; there is no partial patch.
func (r *Repository) UpsertMeta(ctx context.Context, assetID uuid.UUID, meta Metadata) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	const query = `
INSERT INTO asset_meta_base (asset_type, asset_class, asset_location_name, asset_camera, asset_date_label, asset_id)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (asset_id) DO UPDATE SET
	asset_type          = EXCLUDED.asset_type,
	asset_class         = EXCLUDED.asset_class,
	asset_location_name = EXCLUDED.asset_location_name,
	asset_camera        = EXCLUDED.asset_camera,
	asset_date_label    = EXCLUDED.asset_date_label;`

	if _, err := r.pool.Exec(ctx, query,
		meta.AssetType,
		meta.AssetClass,
		meta.AssetLocationName,
		meta.AssetCamera,
		meta.AssetDateLabel,
		assetID.String(),
	); err != nil {
		return NewStorageError("upsert asset metadata", err)
	}
	return nil
}
