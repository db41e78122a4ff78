package clientcli

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath   string
	Key         string // storage key, or key prefix for recursive uploads
	ContentType string // optional, auto-detect if empty
	Recursive   bool
	TTLSeconds  int // presigned URL validity, server default if zero
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath   string `json:"local_path"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	ETag        string `json:"etag,omitempty"`
	Size        int64  `json:"size_bytes"`
	Err         error  `json:"-"` // nil on success
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	Key       string
	LocalPath string // empty = derive from key, "-" = stdout
	Resume    bool   // continue a partial local file via a Range request
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	Key         string `json:"key"`
	LocalPath   string `json:"local_path"`
	ContentType string `json:"content_type,omitempty"`
	// Size is the number of bytes written by this call.
	Size int64 `json:"size_bytes"`
	// Offset is the byte position the transfer started at. Non-zero only
	// for resumed downloads.
	Offset  int64 `json:"offset,omitempty"`
	Resumed bool  `json:"resumed,omitempty"`
}

// Presigned is a store-signed URL minted by the gateway for direct
// client-store transfer.
type Presigned struct {
	URL              string `json:"url"`
	Method           string `json:"method"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

// presignRequest mirrors the gateway's presign request body.
type presignRequest struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type,omitempty"`
	TTLSeconds  int    `json:"ttl_seconds,omitempty"`
}
