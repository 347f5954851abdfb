package s3

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avelts/filecrate"
)

// Config holds the connection settings for one bucket.
type Config struct {
	// Region the bucket lives in, e.g. "us-east-1".
	Region string `mapstructure:"region" validate:"required"`
	// Bucket is the destination bucket name.
	Bucket string `mapstructure:"bucket" validate:"required"`
	// Endpoint overrides the AWS endpoint for S3-compatible stores
	// (MinIO, localstack). When set, path-style addressing is used.
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key" validate:"required"`
	SecretKey string `mapstructure:"secret_key" validate:"required"`
}

// Client talks to a single bucket of an S3-compatible object store. It is
// immutable after construction: build one at startup and inject it wherever
// an ObjectStore is needed.
type Client struct {
	bucket     string
	baseURL    *url.URL
	signer     *Signer
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client, e.g. to tune timeouts.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a client for one bucket. Without an explicit endpoint the
// virtual-hosted AWS URL https://<bucket>.s3.<region>.amazonaws.com is used;
// with one, path-style <endpoint>/<bucket>.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("new s3 client: bucket is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("new s3 client: region is required")
	}

	base := cfg.Endpoint
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	} else {
		base = strings.TrimSuffix(base, "/") + "/" + cfg.Bucket
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("new s3 client: parse endpoint: %w", err)
	}

	c := &Client{
		bucket:  cfg.Bucket,
		baseURL: baseURL,
		signer:  NewSigner(cfg.Region, Credentials{AccessKey: cfg.AccessKey, SecretKey: cfg.SecretKey}),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// objectURL returns the full URL for a key, without query parameters.
func (c *Client) objectURL(key string) *url.URL {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + key
	return &u
}

// ObjectLocation returns the public URL for a committed object.
func (c *Client) ObjectLocation(key string) string {
	return c.objectURL(key).String()
}

// InitiateMultipart opens a multipart upload and returns the upload id.
func (c *Client) InitiateMultipart(ctx context.Context, key, contentType string) (string, error) {
	u := c.objectURL(key)
	u.RawQuery = url.Values{"uploads": []string{""}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("initiate multipart %q: %w", key, err)
	}
	req.Header.Set("Content-Type", contentType)

	var result initiateMultipartUploadResult
	if err := c.do(req, &result); err != nil {
		return "", fmt.Errorf("initiate multipart %q: %w", key, err)
	}

	if result.UploadID == "" {
		return "", fmt.Errorf("initiate multipart %q: empty upload id in response", key)
	}
	return result.UploadID, nil
}

// UploadPart transmits one part and returns its ETag.
func (c *Client) UploadPart(ctx context.Context, key, uploadID string, partNumber int, body io.Reader, length int64) (string, error) {
	u := c.objectURL(key)
	u.RawQuery = url.Values{
		"partNumber": []string{strconv.Itoa(partNumber)},
		"uploadId":   []string{uploadID},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.String(), body)
	if err != nil {
		return "", fmt.Errorf("upload part %d of %q: %w", partNumber, key, err)
	}
	req.ContentLength = length

	c.signer.SignRequest(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload part %d of %q: %w", partNumber, key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload part %d of %q: %w", partNumber, key, responseError(resp))
	}

	etag := strings.Trim(resp.Header.Get("ETag"), `"`)
	if etag == "" {
		return "", fmt.Errorf("upload part %d of %q: no etag in response", partNumber, key)
	}
	return etag, nil
}

// CompleteMultipart submits the completion manifest. The manifest must be
// ascending and contiguous by part number; the store rejects it otherwise.
// Returns the object location.
func (c *Client) CompleteMultipart(ctx context.Context, key, uploadID string, parts []filecrate.CompletedPart) (string, error) {
	manifest := completeMultipartUpload{Parts: make([]completePart, 0, len(parts))}
	for _, p := range parts {
		manifest.Parts = append(manifest.Parts, completePart{PartNumber: p.PartNumber, ETag: p.ETag})
	}

	payload, err := xml.Marshal(manifest)
	if err != nil {
		return "", fmt.Errorf("complete multipart %q: marshal manifest: %w", key, err)
	}

	u := c.objectURL(key)
	u.RawQuery = url.Values{"uploadId": []string{uploadID}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("complete multipart %q: %w", key, err)
	}
	req.Header.Set("Content-Type", "application/xml")
	req.ContentLength = int64(len(payload))

	var result completeMultipartUploadResult
	if err := c.do(req, &result); err != nil {
		return "", fmt.Errorf("complete multipart %q: %w", key, err)
	}

	if result.Location == "" {
		return c.ObjectLocation(key), nil
	}
	return result.Location, nil
}

// AbortMultipart releases all stored part bytes for an upload.
func (c *Client) AbortMultipart(ctx context.Context, key, uploadID string) error {
	u := c.objectURL(key)
	u.RawQuery = url.Values{"uploadId": []string{uploadID}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u.String(), nil)
	if err != nil {
		return fmt.Errorf("abort multipart %q: %w", key, err)
	}

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("abort multipart %q: %w", key, err)
	}
	return nil
}

// DeleteObject removes a committed object. Deleting a missing key succeeds,
// matching S3 semantics.
func (c *Client) DeleteObject(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.objectURL(key).String(), nil)
	if err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

// ListObjects walks the bucket with ListObjectsV2, following continuation
// tokens until the listing is exhausted.
func (c *Client) ListObjects(ctx context.Context, prefix string) ([]filecrate.ObjectEntry, error) {
	entries := []filecrate.ObjectEntry{}
	continuation := ""

	for {
		query := url.Values{"list-type": []string{"2"}}
		if prefix != "" {
			query.Set("prefix", prefix)
		}
		if continuation != "" {
			query.Set("continuation-token", continuation)
		}

		u := *c.baseURL
		u.RawQuery = query.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}

		var result listBucketResult
		if err := c.do(req, &result); err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}

		for _, obj := range result.Contents {
			entries = append(entries, filecrate.ObjectEntry{
				Key:          obj.Key,
				Size:         obj.Size,
				ETag:         strings.Trim(obj.ETag, `"`),
				LastModified: obj.LastModified,
			})
		}

		if !result.IsTruncated || result.NextContinuationToken == "" {
			break
		}
		continuation = result.NextContinuationToken
	}

	return entries, nil
}

// HeadObject returns the stored content type for a key.
func (c *Client) HeadObject(ctx context.Context, key string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.objectURL(key).String(), nil)
	if err != nil {
		return "", fmt.Errorf("head object %q: %w", key, err)
	}

	c.signer.SignRequest(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("head object %q: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("head object %q: %w", key, filecrate.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("head object %q: unexpected status %d", key, resp.StatusCode)
	}

	return resp.Header.Get("Content-Type"), nil
}

// PresignUploadPart returns a URL permitting a PUT of exactly one part of one
// upload id, valid for expires.
func (c *Client) PresignUploadPart(key, uploadID string, partNumber int, expires time.Duration) (string, error) {
	u := c.objectURL(key)
	u.RawQuery = url.Values{
		"partNumber": []string{strconv.Itoa(partNumber)},
		"uploadId":   []string{uploadID},
	}.Encode()

	return c.signer.Presign(http.MethodPut, u, nil, expires)
}

// PresignPut returns a URL permitting a whole-object PUT, valid for expires.
// When contentType is non-empty the client must send it unchanged.
func (c *Client) PresignPut(key, contentType string, expires time.Duration) (string, error) {
	u := c.objectURL(key)

	var signHeaders http.Header
	if contentType != "" {
		signHeaders = http.Header{"Content-Type": []string{contentType}}
	}

	return c.signer.Presign(http.MethodPut, u, signHeaders, expires)
}

// do signs and executes req, decoding an XML response body into out when out
// is non-nil. Non-2xx responses are turned into errors carrying the store's
// error code.
func (c *Client) do(req *http.Request, out any) error {
	c.signer.SignRequest(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))

	var e errorResult
	if err := xml.Unmarshal(body, &e); err == nil && e.Code != "" {
		return fmt.Errorf("status %d: %s: %s", resp.StatusCode, e.Code, e.Message)
	}
	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}
