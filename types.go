package filecrate

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileRecord is the persisted metadata for a successfully stored file.
// It is written exactly once, after the object store has committed the bytes,
// and never mutated afterwards; deletion is the only later operation.
type FileRecord struct {
	ID        uuid.UUID  `json:"id"`
	Filename  string     `json:"filename"`
	Path      string     `json:"path"`
	SizeBytes int64      `json:"size_bytes"`
	FolderID  *uuid.UUID `json:"folder_id,omitempty"`
	OwnerID   string     `json:"owner_id"`
	CreatedAt time.Time  `json:"created_at"`
}

// Folder groups files for a single owner.
type Folder struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ObjectEntry describes one object as reported by the object store listing.
type ObjectEntry struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// CompletedPart pairs a part number with the ETag the object store returned
// for it. The completion manifest is a list of these, ascending by part number.
type CompletedPart struct {
	PartNumber int    `json:"part_number"`
	ETag       string `json:"etag"`
}

// PartRange is the byte range a single part covers within the source file.
// Ranges are assigned deterministically before dispatch; together they cover
// [0, totalSize) with no gaps or overlaps.
type PartRange struct {
	PartNumber int
	Offset     int64
	Length     int64
}

// SessionStatus tracks where an upload session is in its lifecycle.
type SessionStatus string

const (
	StatusInitiated     SessionStatus = "initiated"
	StatusPartsInFlight SessionStatus = "parts_in_flight"
	StatusCompleted     SessionStatus = "completed"
	StatusAborted       SessionStatus = "aborted"
	StatusFailed        SessionStatus = "failed"
)

// IsTerminal reports whether the session can no longer change state.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusAborted, StatusFailed:
		return true
	default:
		return false
	}
}

// UploadSession is the in-memory record of one multipart transfer. It is
// created when the object store issues an upload id and must end Completed,
// Aborted, or Failed; a session is never left dangling with a live remote
// upload and no abort attempt.
//
// All mutations are safe for concurrent use: different part numbers are
// independent, for the same part number the first writer wins, and lifecycle
// transitions serialize through BeginFinalize so exactly one caller tears a
// session down.
type UploadSession struct {
	UploadID          string    `json:"upload_id"`
	ObjectKey         string    `json:"object_key"`
	ContentType       string    `json:"content_type"`
	TotalSize         int64     `json:"total_size"`
	PartSize          int64     `json:"part_size"`
	ExpectedPartCount int       `json:"expected_part_count"`
	CreatedAt         time.Time `json:"created_at"`

	mu         sync.Mutex
	status     SessionStatus
	finalizing bool
	parts      map[int]CompletedPart
}

// NewUploadSession builds a session for an upload id issued by the object
// store. expectedParts must come from ExpectedPartCount for the same size.
func NewUploadSession(uploadID, objectKey, contentType string, totalSize int64, expectedParts int) *UploadSession {
	return &UploadSession{
		UploadID:          uploadID,
		ObjectKey:         objectKey,
		ContentType:       contentType,
		TotalSize:         totalSize,
		PartSize:          PartSize,
		ExpectedPartCount: expectedParts,
		CreatedAt:         time.Now().UTC(),
		status:            StatusInitiated,
		parts:             make(map[int]CompletedPart, expectedParts),
	}
}

// RecordPart stores the ETag for a completed part. Re-recording a part with
// the identical ETag is a no-op; a different ETag for an already recorded
// part is rejected with ErrDuplicatePart. Out-of-range part numbers are
// rejected with ErrInvalidPartNumber. Once finalization has started no
// further parts are accepted.
func (s *UploadSession) RecordPart(partNumber int, etag string) error {
	if partNumber < 1 || partNumber > s.ExpectedPartCount {
		return fmt.Errorf("record part %d: expected 1..%d: %w", partNumber, s.ExpectedPartCount, ErrInvalidPartNumber)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalizing || s.status.IsTerminal() {
		return fmt.Errorf("record part %d: %w", partNumber, ErrUnknownSession)
	}

	if existing, ok := s.parts[partNumber]; ok {
		if existing.ETag == etag {
			return nil
		}
		return fmt.Errorf("record part %d: etag %q already recorded: %w", partNumber, existing.ETag, ErrDuplicatePart)
	}

	s.parts[partNumber] = CompletedPart{PartNumber: partNumber, ETag: etag}
	if s.status == StatusInitiated {
		s.status = StatusPartsInFlight
	}
	return nil
}

// Status returns the session's current lifecycle state.
func (s *UploadSession) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// BeginFinalize claims the session for completion or abort. Only the first
// caller wins; later callers get ErrUnknownSession, since by the time they
// ran the session was already being torn down.
func (s *UploadSession) BeginFinalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalizing || s.status.IsTerminal() {
		return fmt.Errorf("finalize upload %q: %w", s.UploadID, ErrUnknownSession)
	}
	s.finalizing = true
	return nil
}

// Finish records the terminal status reached by the caller that won
// BeginFinalize.
func (s *UploadSession) Finish(status SessionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// PartCount returns how many distinct parts have been recorded so far.
func (s *UploadSession) PartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.parts)
}

// MissingParts returns the part numbers not yet recorded, ascending.
func (s *UploadSession) MissingParts() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var missing []int
	for n := 1; n <= s.ExpectedPartCount; n++ {
		if _, ok := s.parts[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

// Manifest returns the completion manifest sorted ascending by part number,
// regardless of the order parts were recorded. It fails with
// ErrIncompletePartsSet when any expected part is missing.
func (s *UploadSession) Manifest() ([]CompletedPart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.parts) < s.ExpectedPartCount {
		return nil, fmt.Errorf("manifest: %d of %d parts recorded: %w", len(s.parts), s.ExpectedPartCount, ErrIncompletePartsSet)
	}

	manifest := make([]CompletedPart, 0, s.ExpectedPartCount)
	for n := 1; n <= s.ExpectedPartCount; n++ {
		part, ok := s.parts[n]
		if !ok {
			return nil, fmt.Errorf("manifest: part %d missing: %w", n, ErrIncompletePartsSet)
		}
		manifest = append(manifest, part)
	}
	return manifest, nil
}
