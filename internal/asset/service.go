package asset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"github.com/abenov/mediavault/internal/metrics"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

type repository interface {
	CreateWithMeta(ctx context.Context, a Asset) (Asset, error)
	Get(ctx context.Context, id uuid.UUID) (Asset, error)
	UpsertMeta(ctx context.Context, assetID uuid.UUID, meta Metadata) error
}

type objectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	PresignedGetURL(ctx context.Context, bucketName, objectName string, ttl time.Duration) (string, error)
}

type publisher interface {
	AssetIngested(ctx context.Context, evt IngestedEvent) error
}

// Service orchestrates the ingestion workflow and metadata upserts.
type Service struct {
	repo         repository
	objectStore  objectStore
	events       publisher
	objectBucket string
	presignTTL   time.Duration
	maxFileSize  int64
	log          *zap.Logger
}

// NewService constructs the asset service.
func NewService(repo repository, store objectStore, events publisher, objectBucket string, presignTTL time.Duration, maxFileSize int64, log *zap.Logger) *Service {
	return &Service{
		repo:         repo,
		objectStore:  store,
		events:       events,
		objectBucket: objectBucket,
		presignTTL:   presignTTL,
		maxFileSize:  maxFileSize,
		log:          log,
	}
}

// Ingest uploads the file to the object store, persists the asset record
// (with its metadata when all five fields are supplied), and publishes an
// asset_ingested event. A database failure after a successful upload
// triggers a compensating delete of the uploaded object.
//
// Metadata is all-or-nothing: a partially filled record is discarded, not
// rejected, and the asset lands under the unclassified prefix. Callers
// wanting to classify such an asset use UpsertMetadata afterwards.
func (s *Service) Ingest(ctx context.Context, fileHeader *multipart.FileHeader, meta *Metadata) (Asset, error) {
	if fileHeader == nil {
		metrics.IngestsTotal.WithLabelValues("validation").Inc()
		return Asset{}, NewValidationError("file field is required")
	}
	if s.maxFileSize > 0 && fileHeader.Size > s.maxFileSize {
		metrics.IngestsTotal.WithLabelValues("validation").Inc()
		return Asset{}, NewValidationError("file too large")
	}

	accepted := meta
	if accepted != nil && !accepted.Complete() {
		if !accepted.Empty() {
			s.log.Warn("discarding partial metadata at ingestion",
				zap.Strings("missing_fields", accepted.MissingFields()))
		}
		accepted = nil
	}

	id := uuid.New()
	importedPath := strings.TrimSpace(fileHeader.Filename)
	if importedPath == "" {
		importedPath = "upload"
	}
	importedName := path.Base(importedPath)
	ext := strings.ToLower(path.Ext(importedName))
	storedPath := StoragePath(id.String(), ext, accepted)

	file, err := fileHeader.Open()
	if err != nil {
		metrics.IngestsTotal.WithLabelValues("storage").Inc()
		return Asset{}, NewStorageError("open upload file", err)
	}
	defer file.Close()

	hasher := sha256.New()
	reader := io.TeeReader(file, hasher)

	putOpts := minio.PutObjectOptions{ContentType: detectContentType(fileHeader)}
	uploadInfo, err := s.objectStore.PutObject(ctx, s.objectBucket, storedPath, reader, fileHeader.Size, putOpts)
	if err != nil {
		metrics.IngestsTotal.WithLabelValues("storage").Inc()
		return Asset{}, NewStorageError("store object", err)
	}

	storedURL, err := s.objectStore.PresignedGetURL(ctx, s.objectBucket, storedPath, s.presignTTL)
	if err != nil {
		metrics.IngestsTotal.WithLabelValues("storage").Inc()
		return Asset{}, NewStorageError("presign retrieval url", err)
	}

	size := uploadInfo.Size
	if size <= 0 {
		size = fileHeader.Size
	}
	contentHash := hex.EncodeToString(hasher.Sum(nil))

	a := Asset{
		ID:               id,
		ImportedPath:     importedPath,
		ImportedFilename: importedName,
		StoredPath:       storedPath,
		StoredURL:        storedURL,
		SizeBytes:        size,
		StoredFilename:   path.Base(storedPath),
		Extension:        strings.TrimPrefix(ext, "."),
		ContentHash:      &contentHash,
		Meta:             accepted,
	}

	stored, err := s.repo.CreateWithMeta(ctx, a)
	if err != nil {
		s.compensate(ctx, id, ext, accepted)
		metrics.IngestsTotal.WithLabelValues("storage").Inc()
		return Asset{}, err
	}

	s.publishIngested(ctx, stored)
	metrics.IngestsTotal.WithLabelValues("ok").Inc()
	return stored, nil
}

// compensate removes the object uploaded earlier in a failed ingestion. The
// path is recomputed from the original inputs rather than taken from the
// write path, so a derivation bug cannot hide behind a captured value.
func (s *Service) compensate(ctx context.Context, id uuid.UUID, ext string, meta *Metadata) {
	cleanupPath := StoragePath(id.String(), ext, meta)
	if err := s.objectStore.RemoveObject(ctx, s.objectBucket, cleanupPath, minio.RemoveObjectOptions{}); err != nil {
		metrics.CompensationsTotal.WithLabelValues("failed").Inc()
		s.log.Error("compensating object delete failed; object may be orphaned",
			zap.String("stored_path", cleanupPath),
			zap.Error(err))
		return
	}
	metrics.CompensationsTotal.WithLabelValues("ok").Inc()
	s.log.Info("rolled back object upload after database failure",
		zap.String("stored_path", cleanupPath))
}

// publishIngested emits the asset_ingested event. Failures are logged and
// never fail the ingestion.
func (s *Service) publishIngested(ctx context.Context, a Asset) {
	evt := IngestedEvent{
		Asset: IngestedAsset{
			ID:        a.ID,
			Filename:  a.StoredFilename,
			URL:       a.StoredURL,
			Extension: a.Extension,
			Size:      a.SizeBytes,
		},
		Meta: a.Meta,
	}
	if err := s.events.AssetIngested(ctx, evt); err != nil {
		metrics.EventsTotal.WithLabelValues("failed").Inc()
		s.log.Error("publish asset_ingested event", zap.String("asset_id", a.ID.String()), zap.Error(err))
		return
	}
	metrics.EventsTotal.WithLabelValues("ok").Inc()
}

// UpsertMetadata creates or fully replaces the metadata record of an
// existing asset. All five fields are required here; the asset is returned
// re-read with the metadata attached.
func (s *Service) UpsertMetadata(ctx context.Context, assetID uuid.UUID, meta Metadata) (Asset, error) {
	if missing := meta.MissingFields(); len(missing) > 0 {
		return Asset{}, NewValidationError("missing required metadata fields: "+strings.Join(missing, ", "), missing...)
	}

	if _, err := s.repo.Get(ctx, assetID); err != nil {
		return Asset{}, err
	}

	if err := s.repo.UpsertMeta(ctx, assetID, meta); err != nil {
		return Asset{}, err
	}

	return s.repo.Get(ctx, assetID)
}

// Get returns one asset with its metadata.
func (s *Service) Get(ctx context.Context, assetID uuid.UUID) (Asset, error) {
	return s.repo.Get(ctx, assetID)
}

func detectContentType(fileHeader *multipart.FileHeader) string {
	if fileHeader == nil {
		return "application/octet-stream"
	}
	if contentType := fileHeader.Header.Get("Content-Type"); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}
