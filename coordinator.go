package filecrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ObjectStore is the narrow contract the coordinator needs from the blob
// store. The s3 package provides the production implementation.
//
// All blocking operations accept a context for cancellation and timeout.
// Presign operations are pure computations over the store's credentials and
// do not touch the network.
type ObjectStore interface {
	// InitiateMultipart opens a multipart upload for key and returns the
	// store-issued upload id.
	InitiateMultipart(ctx context.Context, key, contentType string) (string, error)

	// UploadPart transmits one part and returns the ETag the store assigned.
	UploadPart(ctx context.Context, key, uploadID string, partNumber int, body io.Reader, length int64) (string, error)

	// CompleteMultipart finalizes an upload with a manifest that must be
	// ascending and contiguous by part number. Returns the object location.
	CompleteMultipart(ctx context.Context, key, uploadID string, parts []CompletedPart) (string, error)

	// AbortMultipart releases all stored part bytes for an upload.
	AbortMultipart(ctx context.Context, key, uploadID string) error

	// PresignUploadPart returns a time-limited URL for uploading exactly one
	// part of one upload id.
	PresignUploadPart(key, uploadID string, partNumber int, expires time.Duration) (string, error)

	// PresignPut returns a time-limited URL for a whole-object PUT.
	PresignPut(key, contentType string, expires time.Duration) (string, error)

	// DeleteObject removes a committed object.
	DeleteObject(ctx context.Context, key string) error

	// ListObjects returns every object under the prefix.
	ListObjects(ctx context.Context, prefix string) ([]ObjectEntry, error)

	// HeadObject returns the stored content type for a committed object.
	HeadObject(ctx context.Context, key string) (string, error)
}

// MetadataRepo persists file and folder records. Implementations live in the
// database package (postgres, sqlite) and must be safe for concurrent use.
type MetadataRepo interface {
	InsertFile(ctx context.Context, record FileRecord) (FileRecord, error)
	FileByID(ctx context.Context, id uuid.UUID) (FileRecord, error)
	FilesByOwner(ctx context.Context, ownerID string) ([]FileRecord, error)
	AllFiles(ctx context.Context) ([]FileRecord, error)
	DeleteFile(ctx context.Context, id uuid.UUID) error
	InsertFolder(ctx context.Context, folder Folder) (Folder, error)
	FoldersByOwner(ctx context.Context, ownerID string) ([]Folder, error)
}

const (
	// PartURLExpiry bounds how long a per-part pre-signed URL stays valid.
	PartURLExpiry = 5 * time.Minute
	// PutURLExpiry bounds how long a whole-object pre-signed URL stays valid.
	PutURLExpiry = 60 * time.Second
)

// Coordinator owns the multipart transfer lifecycle: it opens uploads against
// the object store, tracks part completion through the session registry, and
// finalizes or aborts transfers. Finalization is atomic with respect to
// metadata persistence: a FileRecord is written only after the store commits,
// and a failed finalization always triggers exactly one abort attempt so no
// orphaned remote upload survives a failed request.
type Coordinator struct {
	store        ObjectStore
	repo         MetadataRepo
	registry     *SessionRegistry
	abortTimeout time.Duration
}

// CoordinatorConfig holds configuration options for Coordinator.
type CoordinatorConfig struct {
	AbortTimeout time.Duration // Timeout for best-effort aborts on failure paths (default: 30s)
}

func NewCoordinator(store ObjectStore, repo MetadataRepo, registry *SessionRegistry, cfg CoordinatorConfig) (*Coordinator, error) {
	if store == nil {
		return nil, errors.New("new coordinator: object store is required")
	}
	if repo == nil {
		return nil, errors.New("new coordinator: metadata repo is required")
	}
	if registry == nil {
		registry = NewSessionRegistry()
	}
	abortTimeout := cfg.AbortTimeout
	if abortTimeout <= 0 {
		abortTimeout = 30 * time.Second
	}
	return &Coordinator{
		store:        store,
		repo:         repo,
		registry:     registry,
		abortTimeout: abortTimeout,
	}, nil
}

// Registry exposes the session registry for out-of-band lookups.
func (c *Coordinator) Registry() *SessionRegistry {
	return c.registry
}

// Begin opens a multipart upload for objectKey and registers a session for
// it. On initiation failure nothing is registered and ErrInitiationFailed is
// returned; there is no remote state to clean up in that case.
func (c *Coordinator) Begin(ctx context.Context, objectKey, contentType string, totalSize int64) (*UploadSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("begin upload: %w", err)
	}

	if !IsValidKey(objectKey) {
		return nil, fmt.Errorf("begin upload %q: %w", objectKey, ErrInvalidInput)
	}

	if contentType == "" {
		return nil, fmt.Errorf("begin upload %q: %w: content type cannot be empty", objectKey, ErrInvalidInput)
	}

	expectedParts, err := ExpectedPartCount(totalSize)
	if err != nil {
		return nil, fmt.Errorf("begin upload %q: %w", objectKey, err)
	}

	uploadID, err := c.store.InitiateMultipart(ctx, objectKey, contentType)
	if err != nil {
		return nil, fmt.Errorf("begin upload %q: %w: %w", objectKey, ErrInitiationFailed, err)
	}

	session := NewUploadSession(uploadID, objectKey, contentType, totalSize, expectedParts)
	c.registry.Create(session)

	return session, nil
}

// UploadPart streams one part to the object store on behalf of the caller
// (the server-buffered path) and records the resulting ETag in the session.
// Out-of-range part numbers are rejected before any store call. Parts may be
// dispatched concurrently and complete in any order.
func (c *Coordinator) UploadPart(ctx context.Context, session *UploadSession, partNumber int, body io.Reader, length int64) (CompletedPart, error) {
	if err := ctx.Err(); err != nil {
		return CompletedPart{}, fmt.Errorf("upload part: %w", err)
	}

	if partNumber < 1 || partNumber > session.ExpectedPartCount {
		return CompletedPart{}, fmt.Errorf("upload part %d: expected 1..%d: %w", partNumber, session.ExpectedPartCount, ErrInvalidPartNumber)
	}

	etag, err := c.store.UploadPart(ctx, session.ObjectKey, session.UploadID, partNumber, body, length)
	if err != nil {
		return CompletedPart{}, fmt.Errorf("upload part %d of %q: %w: %w", partNumber, session.ObjectKey, ErrPartUploadFailed, err)
	}

	if err := session.RecordPart(partNumber, etag); err != nil {
		return CompletedPart{}, fmt.Errorf("upload part %d of %q: %w", partNumber, session.ObjectKey, err)
	}

	return CompletedPart{PartNumber: partNumber, ETag: etag}, nil
}

// PresignPart issues a short-lived URL scoped to exactly one part number of
// one upload id, for the client-driven path. Session part state is not
// mutated; the client reports the resulting ETag later via RegisterPart.
func (c *Coordinator) PresignPart(session *UploadSession, partNumber int) (string, error) {
	if partNumber < 1 || partNumber > session.ExpectedPartCount {
		return "", fmt.Errorf("presign part %d: expected 1..%d: %w", partNumber, session.ExpectedPartCount, ErrInvalidPartNumber)
	}

	signedURL, err := c.store.PresignUploadPart(session.ObjectKey, session.UploadID, partNumber, PartURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign part %d of %q: %w: %w", partNumber, session.ObjectKey, ErrSigningFailed, err)
	}

	return signedURL, nil
}

// RegisterPart feeds an ETag from a client-driven part upload back into the
// session identified by uploadID. Identical re-registration is a no-op;
// conflicting ETags are rejected with ErrDuplicatePart.
func (c *Coordinator) RegisterPart(uploadID string, partNumber int, etag string) error {
	session, err := c.registry.Get(uploadID)
	if err != nil {
		return fmt.Errorf("register part %d: %w", partNumber, err)
	}

	if etag == "" {
		return fmt.Errorf("register part %d: %w: etag cannot be empty", partNumber, ErrInvalidInput)
	}

	if err := session.RecordPart(partNumber, etag); err != nil {
		return fmt.Errorf("register part %d of %q: %w", partNumber, session.ObjectKey, err)
	}
	return nil
}

// Complete finalizes the upload and persists its FileRecord.
//
// Every part number 1..ExpectedPartCount must be recorded; otherwise it fails
// with ErrIncompletePartsSet without contacting the object store. On store
// finalization failure the session ends Failed and exactly one abort attempt
// is issued before ErrFinalizationFailed is returned. If metadata persistence
// fails after the store has committed, the object exists without a record:
// the session still ends Completed and the distinct ErrMetadataPersistFailed
// is surfaced so operators can reconcile.
//
// Concurrent finalization attempts for the same session serialize: the first
// caller claims the session and later ones fail with ErrUnknownSession
// without reaching the object store.
func (c *Coordinator) Complete(ctx context.Context, session *UploadSession, filename string, folderID *uuid.UUID, ownerID string) (FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return FileRecord{}, fmt.Errorf("complete upload: %w", err)
	}

	manifest, err := session.Manifest()
	if err != nil {
		return FileRecord{}, fmt.Errorf("complete upload %q: %w", session.ObjectKey, err)
	}

	// Claim the session before touching the store: a concurrent complete or
	// abort must not tear down an upload this call is about to commit.
	if err := session.BeginFinalize(); err != nil {
		return FileRecord{}, fmt.Errorf("complete upload %q: %w", session.ObjectKey, err)
	}

	location, err := c.store.CompleteMultipart(ctx, session.ObjectKey, session.UploadID, manifest)
	if err != nil {
		session.Finish(StatusFailed)
		c.abortQuietly(session)
		c.registry.Remove(session.UploadID)
		return FileRecord{}, fmt.Errorf("complete upload %q: %w: %w", session.ObjectKey, ErrFinalizationFailed, err)
	}

	if filename == "" {
		filename = baseName(session.ObjectKey)
	}

	record := FileRecord{
		ID:        uuid.New(),
		Filename:  filename,
		Path:      location,
		SizeBytes: session.TotalSize,
		FolderID:  folderID,
		OwnerID:   ownerID,
	}

	saved, err := c.repo.InsertFile(ctx, record)
	if err != nil {
		// The object store side has committed; do not abort.
		session.Finish(StatusCompleted)
		c.registry.Remove(session.UploadID)
		return FileRecord{}, fmt.Errorf("complete upload %q: object committed at %s: %w: %w", session.ObjectKey, location, ErrMetadataPersistFailed, err)
	}

	session.Finish(StatusCompleted)
	c.registry.Remove(session.UploadID)

	return saved, nil
}

// Abort releases the remote multipart upload and removes the session. A
// session already claimed by a concurrent complete or abort is reported as
// ErrUnknownSession.
func (c *Coordinator) Abort(ctx context.Context, session *UploadSession) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("abort upload: %w", err)
	}

	if err := session.BeginFinalize(); err != nil {
		return fmt.Errorf("abort upload %q: %w", session.ObjectKey, err)
	}

	err := c.store.AbortMultipart(ctx, session.ObjectKey, session.UploadID)
	session.Finish(StatusAborted)
	c.registry.Remove(session.UploadID)
	if err != nil {
		return fmt.Errorf("abort upload %q: %w: %w", session.ObjectKey, ErrAbortFailed, err)
	}

	return nil
}

// failAndAbort tears down a session whose transfer failed before
// finalization. If another caller already claimed the session the abort is
// skipped so the remote upload is not released twice.
func (c *Coordinator) failAndAbort(session *UploadSession) {
	if session.BeginFinalize() == nil {
		session.Finish(StatusFailed)
		c.abortQuietly(session)
	}
	c.registry.Remove(session.UploadID)
}

// abortQuietly is the best-effort abort used on terminal failure paths. The
// caller already holds its primary error, so an abort failure is only logged.
// A background context is used because the request context may be cancelled.
func (c *Coordinator) abortQuietly(session *UploadSession) {
	abortCtx, cancel := context.WithTimeout(context.Background(), c.abortTimeout)
	defer cancel()

	if err := c.store.AbortMultipart(abortCtx, session.ObjectKey, session.UploadID); err != nil {
		slog.Warn("abort multipart upload failed",
			"key", session.ObjectKey,
			"upload_id", session.UploadID,
			"err", fmt.Errorf("%w: %w", ErrAbortFailed, err))
	}
}

// Upload is the server-buffered relay: it opens a session, dispatches every
// part concurrently from content, awaits them all, and finalizes. Any part
// failure aborts the whole transfer. Finalization never starts before every
// dispatched part has either succeeded or the operation has been aborted.
func (c *Coordinator) Upload(ctx context.Context, objectKey, contentType string, content io.ReaderAt, totalSize int64, filename string, folderID *uuid.UUID, ownerID string) (FileRecord, error) {
	session, err := c.Begin(ctx, objectKey, contentType, totalSize)
	if err != nil {
		return FileRecord{}, err
	}

	ranges, err := PartRanges(totalSize)
	if err != nil {
		c.failAndAbort(session)
		return FileRecord{}, fmt.Errorf("upload %q: %w", objectKey, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, pr := range ranges {
		g.Go(func() error {
			body := io.NewSectionReader(content, pr.Offset, pr.Length)
			_, err := c.UploadPart(gctx, session, pr.PartNumber, body, pr.Length)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		c.failAndAbort(session)
		return FileRecord{}, fmt.Errorf("upload %q: %w", objectKey, err)
	}

	return c.Complete(ctx, session, filename, folderID, ownerID)
}

// PresignPut issues a short-lived whole-object PUT URL with no multipart
// session involved. There is no server-side confirmation that the object
// lands; the caller registers the record separately via SaveFile.
func (c *Coordinator) PresignPut(objectKey, contentType string) (string, error) {
	if !IsValidKey(objectKey) {
		return "", fmt.Errorf("presign put %q: %w", objectKey, ErrInvalidInput)
	}

	signedURL, err := c.store.PresignPut(objectKey, contentType, PutURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign put %q: %w: %w", objectKey, ErrSigningFailed, err)
	}

	return signedURL, nil
}

// SaveFile persists a FileRecord for an upload that bypassed the coordinator
// (the whole-object pre-signed PUT path), where filename, path, and size are
// already known to the caller.
func (c *Coordinator) SaveFile(ctx context.Context, filename, path string, size int64, folderID *uuid.UUID, ownerID string) (FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return FileRecord{}, fmt.Errorf("save file: %w", err)
	}

	if filename == "" || path == "" {
		return FileRecord{}, fmt.Errorf("save file: %w: filename and path are required", ErrInvalidInput)
	}
	if size <= 0 {
		return FileRecord{}, fmt.Errorf("save file %q: %w: size must be positive", filename, ErrInvalidInput)
	}
	if ownerID == "" {
		return FileRecord{}, fmt.Errorf("save file %q: %w: owner is required", filename, ErrInvalidInput)
	}

	record := FileRecord{
		ID:        uuid.New(),
		Filename:  filename,
		Path:      path,
		SizeBytes: size,
		FolderID:  folderID,
		OwnerID:   ownerID,
	}

	saved, err := c.repo.InsertFile(ctx, record)
	if err != nil {
		return FileRecord{}, fmt.Errorf("save file %q: %w: %w", filename, ErrMetadataPersistFailed, err)
	}

	return saved, nil
}

// DeleteFile removes the object and then its metadata record.
func (c *Coordinator) DeleteFile(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	record, err := c.repo.FileByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete file %s: %w", id, err)
	}

	if err := c.store.DeleteObject(ctx, KeyFromPath(record.Path)); err != nil {
		return fmt.Errorf("delete file %s: delete object: %w", id, err)
	}

	if err := c.repo.DeleteFile(ctx, id); err != nil {
		return fmt.Errorf("delete file %s: %w", id, err)
	}

	return nil
}

// FilesForOwner lists the records owned by a principal.
func (c *Coordinator) FilesForOwner(ctx context.Context, ownerID string) ([]FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	files, err := c.repo.FilesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list files for %q: %w", ownerID, err)
	}
	return files, nil
}

// ListBucket lists every object in the bucket, resolving each object's
// content type from the store.
func (c *Coordinator) ListBucket(ctx context.Context) ([]ObjectEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list bucket: %w", err)
	}

	entries, err := c.store.ListObjects(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list bucket: %w", err)
	}

	for i := range entries {
		contentType, headErr := c.store.HeadObject(ctx, entries[i].Key)
		if headErr != nil {
			return nil, fmt.Errorf("list bucket: head %q: %w", entries[i].Key, headErr)
		}
		entries[i].ContentType = contentType
	}

	return entries, nil
}

// CreateFolder persists a folder for a principal.
func (c *Coordinator) CreateFolder(ctx context.Context, name, ownerID string) (Folder, error) {
	if err := ctx.Err(); err != nil {
		return Folder{}, fmt.Errorf("create folder: %w", err)
	}

	if name == "" {
		return Folder{}, fmt.Errorf("create folder: %w: name cannot be empty", ErrInvalidInput)
	}

	folder, err := c.repo.InsertFolder(ctx, Folder{ID: uuid.New(), Name: name, OwnerID: ownerID})
	if err != nil {
		return Folder{}, fmt.Errorf("create folder %q: %w", name, err)
	}
	return folder, nil
}

// FoldersForOwner lists a principal's folders.
func (c *Coordinator) FoldersForOwner(ctx context.Context, ownerID string) ([]Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	folders, err := c.repo.FoldersByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list folders for %q: %w", ownerID, err)
	}
	return folders, nil
}

// ReconcileReport describes drift between the object store and the metadata
// store: records whose object is gone, and objects that carry no record.
type ReconcileReport struct {
	RecordsMissingObject []FileRecord  `json:"records_missing_object"`
	ObjectsMissingRecord []ObjectEntry `json:"objects_missing_record"`
}

// InSync reports whether both sides agree.
func (r ReconcileReport) InSync() bool {
	return len(r.RecordsMissingObject) == 0 && len(r.ObjectsMissingRecord) == 0
}

// Reconcile sweeps the bucket listing against the metadata records and
// reports drift in both directions. It is report-only: nothing is deleted or
// repaired, operators decide what to do with the findings.
func (c *Coordinator) Reconcile(ctx context.Context) (ReconcileReport, error) {
	if err := ctx.Err(); err != nil {
		return ReconcileReport{}, fmt.Errorf("reconcile: %w", err)
	}

	entries, err := c.store.ListObjects(ctx, "")
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("reconcile: list objects: %w", err)
	}

	records, err := c.repo.AllFiles(ctx)
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("reconcile: list records: %w", err)
	}

	objectKeys := make(map[string]ObjectEntry, len(entries))
	for _, e := range entries {
		objectKeys[e.Key] = e
	}

	recordKeys := make(map[string]struct{}, len(records))
	var report ReconcileReport
	for _, rec := range records {
		key := KeyFromPath(rec.Path)
		recordKeys[key] = struct{}{}
		if _, ok := objectKeys[key]; !ok {
			report.RecordsMissingObject = append(report.RecordsMissingObject, rec)
		}
	}

	for _, e := range entries {
		if _, ok := recordKeys[e.Key]; !ok {
			report.ObjectsMissingRecord = append(report.ObjectsMissingRecord, e)
		}
	}

	return report, nil
}

// KeyFromPath extracts the object key from a stored path, which may be either
// a bare key or a full object URL like
// https://bucket.s3.amazonaws.com/some/key.
func KeyFromPath(path string) string {
	if strings.Contains(path, "://") {
		if u, err := url.Parse(path); err == nil {
			return strings.TrimPrefix(u.Path, "/")
		}
	}
	return strings.TrimPrefix(path, "/")
}

func baseName(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}
