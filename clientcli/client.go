package clientcli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTimeout is the default HTTP client timeout. Part uploads can be
	// large, so this is generous.
	DefaultTimeout = 10 * time.Minute

	// DefaultConcurrency is how many parts upload in parallel.
	DefaultConcurrency = 4
)

// Client performs operations against a filecrate server.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()

	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")

	c := &Client{
		config: &Config{
			Endpoint: endpoint,
			Token:    cfg.Token,
		},
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Upload uploads a file through the multipart protocol: it starts a session,
// PUTs every part directly to the object store through pre-signed URLs,
// registers the resulting ETags, and completes the upload. On any part
// failure the session is aborted server-side before the error is returned.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) (*UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}

	file, err := os.Open(opts.LocalPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	remotePath := opts.RemotePath
	if remotePath == "" {
		remotePath = filepath.Base(opts.LocalPath)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = detectContentType(opts.LocalPath)
	}

	session, err := c.startUpload(ctx, remotePath, contentType, info.Size())
	if err != nil {
		return nil, err
	}

	if err := c.uploadParts(ctx, session, file, info.Size(), opts.Concurrency); err != nil {
		c.abortUpload(session.UploadID)
		return nil, err
	}

	record, err := c.completeUpload(ctx, session.UploadID, filepath.Base(opts.LocalPath), opts.FolderID)
	if err != nil {
		return nil, err
	}

	return &UploadResult{
		LocalPath:  opts.LocalPath,
		RemotePath: record.Path,
		ID:         record.ID,
		Size:       record.SizeBytes,
		Parts:      session.PartCount,
		CreatedAt:  record.CreatedAt,
	}, nil
}

func (c *Client) startUpload(ctx context.Context, filename, contentType string, size int64) (*startSession, error) {
	var session startSession
	err := c.postJSON(ctx, "/api/upload/start", map[string]any{
		"filename":     filename,
		"content_type": contentType,
		"size":         size,
	}, &session)
	if err != nil {
		return nil, fmt.Errorf("start upload: %w", err)
	}
	return &session, nil
}

// uploadParts PUTs every part concurrently. Each part gets its own signed URL
// and reports its ETag back before the group is done.
func (c *Client) uploadParts(ctx context.Context, session *startSession, file io.ReaderAt, size int64, concurrency int) error {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for part := 1; part <= session.PartCount; part++ {
		offset := int64(part-1) * session.PartSize
		length := min(session.PartSize, size-offset)

		g.Go(func() error {
			var signed signedPart
			err := c.postJSON(gctx, "/api/upload/sign-part", map[string]any{
				"upload_id":   session.UploadID,
				"part_number": part,
			}, &signed)
			if err != nil {
				return fmt.Errorf("sign part %d: %w", part, err)
			}

			etag, err := c.putPart(gctx, signed.URL, io.NewSectionReader(file, offset, length), length)
			if err != nil {
				return fmt.Errorf("put part %d: %w", part, err)
			}

			err = c.postJSON(gctx, "/api/upload/register-part", map[string]any{
				"upload_id":   session.UploadID,
				"part_number": part,
				"etag":        etag,
			}, nil)
			if err != nil {
				return fmt.Errorf("register part %d: %w", part, err)
			}

			return nil
		})
	}

	return g.Wait()
}

// putPart uploads one part body to its pre-signed URL and returns the ETag.
func (c *Client) putPart(ctx context.Context, signedURL string, body io.Reader, length int64) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signedURL, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.ContentLength = length

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("object store returned status %d", resp.StatusCode)
	}

	etag := strings.Trim(resp.Header.Get("ETag"), `"`)
	if etag == "" {
		return "", fmt.Errorf("object store returned no etag")
	}
	return etag, nil
}

func (c *Client) completeUpload(ctx context.Context, uploadID, filename string, folderID *uuid.UUID) (*FileInfo, error) {
	var record FileInfo
	err := c.postJSON(ctx, "/api/upload/complete", map[string]any{
		"upload_id": uploadID,
		"filename":  filename,
		"folder_id": folderID,
	}, &record)
	if err != nil {
		return nil, fmt.Errorf("complete upload: %w", err)
	}
	return &record, nil
}

// abortUpload is best-effort cleanup after a failed part; the caller already
// holds the primary error. A fresh context is used because the upload's
// context may be cancelled.
func (c *Client) abortUpload(uploadID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_ = c.postJSON(ctx, "/api/upload/abort", map[string]any{"upload_id": uploadID}, nil)
}

// Files lists the caller's file records.
func (c *Client) Files(ctx context.Context) ([]FileInfo, error) {
	var records []FileInfo
	if err := c.getJSON(ctx, "/api/files", &records); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return records, nil
}

// ListBucket lists every object in the server's bucket.
func (c *Client) ListBucket(ctx context.Context) ([]ObjectInfo, error) {
	var entries []ObjectInfo
	if err := c.getJSON(ctx, "/api/files/bucket", &entries); err != nil {
		return nil, fmt.Errorf("list bucket: %w", err)
	}
	return entries, nil
}

// Delete removes file records and their objects by id.
func (c *Client) Delete(ctx context.Context, ids []uuid.UUID) ([]DeleteResult, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("delete: %w", ErrEmptyPath)
	}

	results := make([]DeleteResult, 0, len(ids))
	for _, id := range ids {
		err := c.doJSON(ctx, http.MethodDelete, "/api/files/"+id.String(), nil, nil)
		results = append(results, DeleteResult{ID: id, Deleted: err == nil, Err: err})
	}
	return results, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, payload, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

// doJSON sends one JSON request to the server, attaching the bearer token
// when configured, and decodes the response into out (if non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.Endpoint+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseServerError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

// parseServerError turns a non-2xx response into an error, preferring the
// server's structured error body when present.
func parseServerError(status int, body []byte) error {
	var serverErr serverErrorBody
	if err := json.Unmarshal(body, &serverErr); err == nil && serverErr.Error != "" {
		return fmt.Errorf("server returned %d: %s: %s", status, serverErr.Error, serverErr.Message)
	}
	return fmt.Errorf("server returned %d", status)
}

// detectContentType guesses the content type from the file extension.
func detectContentType(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
