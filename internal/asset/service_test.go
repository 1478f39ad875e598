package asset

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

func newTestService(repo *fakeRepo, store *fakeObjectStore, events *fakePublisher) *Service {
	return NewService(repo, store, events, "mediavault", 24*time.Hour, 100*1024*1024, zap.NewNop())
}

func TestIngestWithFullMetadata(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeObjectStore{}
	events := &fakePublisher{}
	service := newTestService(repo, store, events)

	content := bytes.Repeat([]byte("x"), 1024)
	fileHeader := buildFileHeader(t, "file", "photo.jpg", "image/jpeg", content)

	stored, err := service.Ingest(context.Background(), fileHeader, fullMeta())
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}

	wantPath := "assets/img/family/lake_house/canonr5/20240701/" + stored.ID.String() + ".jpg"
	if stored.StoredPath != wantPath {
		t.Fatalf("stored path = %q, want %q", stored.StoredPath, wantPath)
	}
	if stored.Extension != "jpg" {
		t.Fatalf("extension = %q, want %q", stored.Extension, "jpg")
	}
	if stored.SizeBytes != int64(len(content)) {
		t.Fatalf("size = %d, want %d", stored.SizeBytes, len(content))
	}
	if stored.ImportedFilename != "photo.jpg" {
		t.Fatalf("imported filename = %q", stored.ImportedFilename)
	}
	if stored.Meta == nil || *stored.Meta != *fullMeta() {
		t.Fatalf("metadata not stored verbatim: %+v", stored.Meta)
	}

	sum := sha256.Sum256(content)
	if stored.ContentHash == nil || *stored.ContentHash != hex.EncodeToString(sum[:]) {
		t.Fatalf("content hash mismatch")
	}

	if !store.putCalled {
		t.Fatalf("expected PutObject to be called")
	}
	if store.putPath != wantPath {
		t.Fatalf("object uploaded to %q, want %q", store.putPath, wantPath)
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected one record, got %d", len(repo.records))
	}

	if len(events.events) != 1 {
		t.Fatalf("expected one event, got %d", len(events.events))
	}
	evt := events.events[0]
	if evt.Asset.ID != stored.ID || evt.Asset.URL != stored.StoredURL || evt.Asset.Size != stored.SizeBytes {
		t.Fatalf("event projection mismatch: %+v", evt.Asset)
	}
	if evt.Meta == nil || *evt.Meta != *fullMeta() {
		t.Fatalf("event metadata mismatch: %+v", evt.Meta)
	}
}

func TestIngestWithoutMetadata(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeObjectStore{}
	events := &fakePublisher{}
	service := newTestService(repo, store, events)

	fileHeader := buildFileHeader(t, "file", "clip.mov", "video/quicktime", []byte("movie"))

	stored, err := service.Ingest(context.Background(), fileHeader, nil)
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}

	wantPath := "assets/unclassified/" + stored.ID.String() + ".mov"
	if stored.StoredPath != wantPath {
		t.Fatalf("stored path = %q, want %q", stored.StoredPath, wantPath)
	}
	if stored.Meta != nil {
		t.Fatalf("expected nil metadata, got %+v", stored.Meta)
	}
	if events.events[0].Meta != nil {
		t.Fatalf("expected nil metadata in event")
	}
}

func TestIngestDiscardsPartialMetadata(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeObjectStore{}
	events := &fakePublisher{}
	service := newTestService(repo, store, events)

	partial := fullMeta()
	partial.AssetCamera = ""
	fileHeader := buildFileHeader(t, "file", "photo.jpg", "image/jpeg", []byte("img"))

	stored, err := service.Ingest(context.Background(), fileHeader, partial)
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}

	if !strings.HasPrefix(stored.StoredPath, "assets/unclassified/") {
		t.Fatalf("partial metadata must not classify the path, got %q", stored.StoredPath)
	}
	if stored.Meta != nil {
		t.Fatalf("partial metadata must be discarded, got %+v", stored.Meta)
	}
}

func TestIngestCompensatesWhenDatabaseWriteFails(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = errors.New("connection reset")
	store := &fakeObjectStore{}
	events := &fakePublisher{}
	service := newTestService(repo, store, events)

	fileHeader := buildFileHeader(t, "file", "photo.jpg", "image/jpeg", []byte("img"))

	_, err := service.Ingest(context.Background(), fileHeader, fullMeta())
	if err == nil {
		t.Fatalf("expected error when database write fails")
	}

	e := From(err)
	if e.Kind != KindStorage || e.Status != http.StatusInternalServerError {
		t.Fatalf("expected storage error, got kind=%s status=%d", e.Kind, e.Status)
	}

	if len(store.removed) != 1 {
		t.Fatalf("expected one compensating delete, got %d", len(store.removed))
	}
	if store.removed[0] != store.putPath {
		t.Fatalf("compensating delete at %q, object uploaded at %q", store.removed[0], store.putPath)
	}
	if len(events.events) != 0 {
		t.Fatalf("no event must be published on failure")
	}
}

func TestIngestPresignFailureSurfacesWithoutCompensation(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeObjectStore{presignErr: errors.New("signature failure")}
	events := &fakePublisher{}
	service := newTestService(repo, store, events)

	fileHeader := buildFileHeader(t, "file", "photo.jpg", "image/jpeg", []byte("img"))

	_, err := service.Ingest(context.Background(), fileHeader, nil)
	if err == nil {
		t.Fatalf("expected error when presigning fails")
	}
	if len(store.removed) != 0 {
		t.Fatalf("presign failure must not trigger a compensating delete")
	}
	if len(repo.records) != 0 {
		t.Fatalf("no record must be written after presign failure")
	}
}

func TestIngestUploadFailureLeavesNothingBehind(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeObjectStore{putErr: errors.New("disk full")}
	events := &fakePublisher{}
	service := newTestService(repo, store, events)

	fileHeader := buildFileHeader(t, "file", "photo.jpg", "image/jpeg", []byte("img"))

	_, err := service.Ingest(context.Background(), fileHeader, nil)
	if err == nil {
		t.Fatalf("expected error when upload fails")
	}
	if len(store.removed) != 0 {
		t.Fatalf("failed upload must not trigger a compensating delete")
	}
	if len(repo.records) != 0 {
		t.Fatalf("no record must be written after a failed upload")
	}
}

func TestIngestSucceedsWhenPublishFails(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeObjectStore{}
	events := &fakePublisher{err: errors.New("broker down")}
	service := newTestService(repo, store, events)

	fileHeader := buildFileHeader(t, "file", "clip.mov", "video/quicktime", []byte("movie"))

	stored, err := service.Ingest(context.Background(), fileHeader, nil)
	if err != nil {
		t.Fatalf("publish failure must not fail ingestion: %v", err)
	}
	if _, ok := repo.records[stored.ID]; !ok {
		t.Fatalf("asset must be persisted despite publish failure")
	}
}

func TestIngestRejectsOversizedFile(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeObjectStore{}
	service := NewService(repo, store, &fakePublisher{}, "mediavault", 24*time.Hour, 4, zap.NewNop())

	fileHeader := buildFileHeader(t, "file", "big.bin", "application/octet-stream", []byte("too large"))

	_, err := service.Ingest(context.Background(), fileHeader, nil)
	if err == nil {
		t.Fatalf("expected error for oversized upload")
	}
	if e := From(err); e.Kind != KindValidation {
		t.Fatalf("expected validation error, got %s", e.Kind)
	}
	if store.putCalled {
		t.Fatalf("oversized upload must be rejected before the object store")
	}
}

func TestUpsertMetadataListsMissingFields(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo, &fakeObjectStore{}, &fakePublisher{})

	meta := *fullMeta()
	meta.AssetCamera = ""

	_, err := service.UpsertMetadata(context.Background(), uuid.New(), meta)
	if err == nil {
		t.Fatalf("expected validation error")
	}

	e := From(err)
	if e.Kind != KindValidation || e.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 validation error, got kind=%s status=%d", e.Kind, e.Status)
	}
	if len(e.Missing) != 1 || e.Missing[0] != "asset_camera" {
		t.Fatalf("missing fields = %v, want [asset_camera]", e.Missing)
	}
	if repo.upsertCalls != 0 {
		t.Fatalf("validation must reject before any write")
	}
}

func TestUpsertMetadataOnMissingAsset(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo, &fakeObjectStore{}, &fakePublisher{})

	_, err := service.UpsertMetadata(context.Background(), uuid.New(), *fullMeta())
	if err == nil {
		t.Fatalf("expected not found error")
	}
	if e := From(err); e.Kind != KindNotFound || e.Status != http.StatusNotFound {
		t.Fatalf("expected 404 not found, got kind=%s status=%d", e.Kind, e.Status)
	}
	if repo.upsertCalls != 0 {
		t.Fatalf("no rows must be written for a missing asset")
	}
}

func TestUpsertMetadataIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	service := newTestService(repo, &fakeObjectStore{}, &fakePublisher{})

	id := uuid.New()
	repo.records[id] = Asset{ID: id, StoredPath: "assets/unclassified/" + id.String() + ".jpg"}

	first, err := service.UpsertMetadata(context.Background(), id, *fullMeta())
	if err != nil {
		t.Fatalf("first upsert returned error: %v", err)
	}
	second, err := service.UpsertMetadata(context.Background(), id, *fullMeta())
	if err != nil {
		t.Fatalf("second upsert returned error: %v", err)
	}

	if first.Meta == nil || second.Meta == nil || *first.Meta != *second.Meta {
		t.Fatalf("repeated upsert changed the stored metadata")
	}
	if *second.Meta != *fullMeta() {
		t.Fatalf("metadata not stored verbatim: %+v", second.Meta)
	}
}

// --- helpers & fakes ---

func buildFileHeader(t *testing.T, fieldName, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, filename)
	if err != nil {
		t.Fatalf("CreateFormFile error: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(int64(len(content)) + 1024); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}

	return req.MultipartForm.File[fieldName][0]
}

type fakeRepo struct {
	records     map[uuid.UUID]Asset
	createErr   error
	upsertCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[uuid.UUID]Asset)}
}

func (f *fakeRepo) CreateWithMeta(ctx context.Context, a Asset) (Asset, error) {
	if f.createErr != nil {
		return Asset{}, NewStorageError("create asset record", f.createErr)
	}
	a.UploadedAt = time.Now()
	f.records[a.ID] = a
	return a, nil
}

func (f *fakeRepo) Get(ctx context.Context, id uuid.UUID) (Asset, error) {
	a, ok := f.records[id]
	if !ok {
		return Asset{}, NewNotFoundError("asset not found")
	}
	return a, nil
}

func (f *fakeRepo) UpsertMeta(ctx context.Context, assetID uuid.UUID, meta Metadata) error {
	f.upsertCalls++
	a, ok := f.records[assetID]
	if !ok {
		return NewStorageError("upsert asset metadata", errors.New("missing asset row"))
	}
	m := meta
	a.Meta = &m
	f.records[assetID] = a
	return nil
}

type fakeObjectStore struct {
	putCalled  bool
	putPath    string
	removed    []string
	putErr     error
	presignErr error
}

func (f *fakeObjectStore) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	f.putCalled = true
	f.putPath = objectName
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	return minio.UploadInfo{Size: int64(len(data))}, nil
}

func (f *fakeObjectStore) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	f.removed = append(f.removed, objectName)
	return nil
}

func (f *fakeObjectStore) PresignedGetURL(ctx context.Context, bucketName, objectName string, ttl time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://minio.local/" + bucketName + "/" + objectName + "?X-Amz-Expires=86400", nil
}

type fakePublisher struct {
	events []IngestedEvent
	err    error
}

func (f *fakePublisher) AssetIngested(ctx context.Context, evt IngestedEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, evt)
	return nil
}
