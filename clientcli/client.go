package clientcli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ptrevino/mediashelf"
)

const (
	// DefaultTimeout is the default HTTP client timeout for presign calls
	// and uploads. Downloads use no timeout; they are bounded by the
	// server's idle watchdog and the caller's context.
	DefaultTimeout = 30 * time.Second
)

// Client performs operations against a Mediashelf gateway.
type Client struct {
	config *Config
	// httpClient issues presign calls and direct-store uploads.
	httpClient *http.Client
	// streamClient issues media downloads. No Timeout: a client-side
	// deadline would cap total transfer time regardless of progress.
	streamClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client for presign and upload calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout for presign and upload calls.
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

	// Apply defaults
	cfg = cfg.WithDefaults()

	// Normalize endpoint URL (remove trailing slash)
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")

	c := &Client{
		config:       &Config{Endpoint: endpoint},
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		streamClient: &http.Client{},
	}

	// Apply options
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// PresignUpload asks the gateway to mint a store-signed upload URL for key.
func (c *Client) PresignUpload(ctx context.Context, key, contentType string, ttlSeconds int) (*Presigned, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	return c.presign(ctx, "/presign/upload", presignRequest{
		Key:         key,
		ContentType: contentType,
		TTLSeconds:  ttlSeconds,
	})
}

// PresignDownload asks the gateway to mint a store-signed download URL for key.
func (c *Client) PresignDownload(ctx context.Context, key string, ttlSeconds int) (*Presigned, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, fmt.Errorf("presign download: %w", err)
	}

	return c.presign(ctx, "/presign/download", presignRequest{
		Key:        key,
		TTLSeconds: ttlSeconds,
	})
}

// presign posts a presign request to the given gateway route.
func (c *Client) presign(ctx context.Context, route string, body presignRequest) (*Presigned, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint+route, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseServerError(resp.StatusCode, respBody)
	}

	var p Presigned
	if err := json.Unmarshal(respBody, &p); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &p, nil
}

// Upload uploads file(s) to the store through gateway-minted presigned URLs.
// For recursive uploads, walks the directory and appends relative paths to
// the key prefix.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}
	if opts.Recursive {
		return c.uploadRecursive(ctx, opts)
	}
	result, err := c.uploadSingle(ctx, opts.LocalPath, opts.Key, opts.ContentType, opts.TTLSeconds)
	if err != nil {
		return nil, err
	}
	return []UploadResult{result}, nil
}

// uploadRecursive walks a directory and uploads all files under the key prefix.
func (c *Client) uploadRecursive(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	info, err := os.Stat(opts.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("stat local path: %w", err)
	}

	if !info.IsDir() {
		// Not a directory, just upload single file
		result, uploadErr := c.uploadSingle(ctx, opts.LocalPath, opts.Key, opts.ContentType, opts.TTLSeconds)
		if uploadErr != nil {
			return nil, uploadErr
		}
		return []UploadResult{result}, nil
	}

	var results []UploadResult
	baseDir := opts.LocalPath
	keyPrefix := strings.TrimSuffix(opts.Key, "/")

	walkErr := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, fileErr error) error {
		if fileErr != nil {
			return fileErr
		}

		// Check context cancellation
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		// Skip directories
		if d.IsDir() {
			return nil
		}

		// Calculate relative path
		relPath, relErr := filepath.Rel(baseDir, path)
		if relErr != nil {
			results = append(results, UploadResult{
				LocalPath: path,
				Err:       fmt.Errorf("calculate relative path: %w", relErr),
			})
			return nil
		}

		// Convert to forward slashes for the storage key
		relPath = filepath.ToSlash(relPath)
		key := keyPrefix + "/" + relPath

		result, uploadErr := c.uploadSingle(ctx, path, key, "", opts.TTLSeconds)
		if uploadErr != nil {
			result = UploadResult{
				LocalPath: path,
				Key:       key,
				Err:       uploadErr,
			}
		}
		results = append(results, result)
		return nil
	})

	if walkErr != nil {
		return results, fmt.Errorf("walk directory: %w", walkErr)
	}

	return results, nil
}

// uploadSingle uploads a single file: one presign call, then a direct PUT
// of the file bytes to the store.
func (c *Client) uploadSingle(ctx context.Context, localPath, key, contentType string, ttlSeconds int) (UploadResult, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload %s: %w", localPath, err)
	}

	// Open the file
	file, err := os.Open(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return UploadResult{}, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Get file info for size
	info, err := file.Stat()
	if err != nil {
		return UploadResult{}, fmt.Errorf("stat file: %w", err)
	}

	// Auto-detect content type if not provided
	if contentType == "" {
		contentType = detectContentType(localPath)
	}

	presigned, err := c.PresignUpload(ctx, key, contentType, ttlSeconds)
	if err != nil {
		return UploadResult{}, err
	}

	method := presigned.Method
	if method == "" {
		method = http.MethodPut
	}

	// Stream the file as the request body, no in-memory copy
	req, err := http.NewRequestWithContext(ctx, method, presigned.URL, file)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = info.Size()

	// Execute request against the store, not the gateway
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UploadResult{}, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return UploadResult{}, parseServerError(resp.StatusCode, body)
	}

	return UploadResult{
		LocalPath:   localPath,
		Key:         key,
		ContentType: contentType,
		ETag:        strings.Trim(resp.Header.Get("ETag"), `"`),
		Size:        info.Size(),
	}, nil
}

// Download streams an object from the gateway.
// If opts.LocalPath is "-", the content is returned via the io.ReadCloser and must be closed by the caller.
// Otherwise, the content is written to the file and the io.ReadCloser is nil.
// With opts.Resume, an existing partial local file continues from its
// current size via a Range request.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	key, err := normalizeKey(opts.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("download: %w", err)
	}

	// If stdout requested, hand the body to the caller
	if opts.LocalPath == "-" {
		return c.downloadStream(ctx, key)
	}

	// Determine local path
	localPath := opts.LocalPath
	if localPath == "" {
		// Derive from the key's final segment
		localPath = filepath.Base(key)
	}

	var offset int64
	if opts.Resume {
		if info, statErr := os.Stat(localPath); statErr == nil {
			offset = info.Size()
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.mediaURL(key), http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}

	result := &DownloadResult{
		Key:         key,
		LocalPath:   localPath,
		ContentType: resp.Header.Get("Content-Type"),
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// Full object: either no resume was requested or the server
		// degraded the range. Start the file over.
		offset = 0

	case http.StatusPartialContent:
		result.Offset = offset
		result.Resumed = true

	case http.StatusRequestedRangeNotSatisfiable:
		// The local file already covers the whole object
		total, okTotal := parseContentRangeTotal(resp.Header.Get("Content-Range"))
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if okTotal && total == offset {
			result.Offset = offset
			result.Resumed = true
			return result, nil, nil
		}
		return nil, nil, parseServerError(resp.StatusCode, body)

	default:
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, parseServerError(resp.StatusCode, body)
	}

	written, err := writeLocal(localPath, offset, resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, nil, err
	}

	result.Size = written
	return result, nil, nil
}

// downloadStream fetches the full object and returns the body for the caller.
func (c *Client) downloadStream(ctx context.Context, key string) (*DownloadResult, io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.mediaURL(key), http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, parseServerError(resp.StatusCode, body)
	}

	result := &DownloadResult{
		Key:         key,
		LocalPath:   "-",
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}

	return result, resp.Body, nil
}

// writeLocal writes body to localPath, appending at offset when resuming
// and truncating otherwise. Returns the number of bytes written.
func writeLocal(localPath string, offset int64, body io.Reader) (int64, error) {
	// Create parent directories if needed
	dir := filepath.Dir(localPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			return 0, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	var file *os.File
	var err error
	if offset > 0 {
		file, err = os.OpenFile(localPath, os.O_WRONLY|os.O_APPEND, 0o600) //#nosec G304 -- localPath is user-provided input
	} else {
		file, err = os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	}
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}

	written, copyErr := io.Copy(file, body)
	if copyErr != nil {
		_ = file.Close()
		return written, fmt.Errorf("write file: %w", copyErr)
	}

	if closeErr := file.Close(); closeErr != nil {
		return written, fmt.Errorf("close file: %w", closeErr)
	}

	return written, nil
}

// mediaURL builds the gateway streaming URL for a key.
func (c *Client) mediaURL(key string) string {
	return c.config.Endpoint + "/media/" + key
}

// normalizeKey strips a leading slash and validates the key against the
// gateway's namespace rules, giving a local error before any network call.
func normalizeKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", ErrEmptyKey
	}
	if _, ok := mediashelf.KeyNamespace(key); !ok {
		return "", fmt.Errorf("%w: %s", mediashelf.ErrInvalidKey, key)
	}
	return key, nil
}

// parseContentRangeTotal extracts the total size from an unsatisfied-range
// header of the form "bytes */<size>".
func parseContentRangeTotal(header string) (int64, bool) {
	rest, ok := strings.CutPrefix(header, "bytes */")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// detectContentType returns MIME type based on file extension.
func detectContentType(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return "application/octet-stream"
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return "application/octet-stream"
	}

	return mimeType
}

// parseServerError extracts the error payload from a server response.
// Gateway errors carry a JSON {error, message} body; store errors (failed
// direct uploads) carry whatever the store sent.
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{
		StatusCode: statusCode,
		Body:       string(body),
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		apiErr.Code = payload.Error
		apiErr.Message = payload.Message
	}

	return apiErr
}

// APIError represents an error response from the gateway or the store.
type APIError struct {
	StatusCode int
	// Code and Message are set when the response carried the gateway's
	// JSON error shape.
	Code    string
	Message string
	Body    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Code + ": " + e.Message
	}
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the requested object does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrStoreUnavailable is returned when the gateway has no usable
	// backing store (503).
	ErrStoreUnavailable = &APIError{StatusCode: http.StatusServiceUnavailable}

	// ErrUpstreamTimeout is returned when the store did not answer the
	// gateway in time (504).
	ErrUpstreamTimeout = &APIError{StatusCode: http.StatusGatewayTimeout}
)
