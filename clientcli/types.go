package clientcli

import (
	"time"

	"github.com/google/uuid"
)

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath   string
	RemotePath  string     // empty = derive from local filename
	ContentType string     // optional, auto-detect if empty
	FolderID    *uuid.UUID // optional folder to file the record under
	Concurrency int        // parallel part uploads, default 4
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath  string    `json:"local_path"`
	RemotePath string    `json:"remote_path"`
	ID         uuid.UUID `json:"id"`
	Size       int64     `json:"size_bytes"`
	Parts      int       `json:"parts"`
	CreatedAt  time.Time `json:"created_at"`
}

// DeleteResult represents the result of deleting a single file.
type DeleteResult struct {
	ID      uuid.UUID `json:"id"`
	Deleted bool      `json:"deleted"`
	Err     error     `json:"-"` // nil on success
}

// startSession mirrors the server's upload start response.
type startSession struct {
	UploadID  string `json:"upload_id"`
	Key       string `json:"key"`
	PartSize  int64  `json:"part_size"`
	PartCount int    `json:"part_count"`
}

// signedPart mirrors the server's sign-part response.
type signedPart struct {
	URL        string `json:"url"`
	PartNumber int    `json:"part_number"`
}

// FileInfo mirrors the server's file record JSON.
type FileInfo struct {
	ID        uuid.UUID  `json:"id"`
	Filename  string     `json:"filename"`
	Path      string     `json:"path"`
	SizeBytes int64      `json:"size_bytes"`
	FolderID  *uuid.UUID `json:"folder_id,omitempty"`
	OwnerID   string     `json:"owner_id"`
	CreatedAt time.Time  `json:"created_at"`
}

// ObjectInfo mirrors the server's bucket listing JSON.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// serverErrorBody mirrors the server's JSON error response.
type serverErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
