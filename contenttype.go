package mediashelf

import (
	"mime"
	"path"
	"strings"
)

// DefaultContentType is served when no better type can be resolved.
const DefaultContentType = "application/octet-stream"

// mediaTypes maps media file extensions to MIME types. Consulted before
// the platform mime registry so results do not depend on host mime files.
var mediaTypes = map[string]string{
	// books
	".epub": "application/epub+zip",
	".mobi": "application/x-mobipocket-ebook",
	".azw3": "application/vnd.amazon.ebook",
	".pdf":  "application/pdf",
	".cbz":  "application/vnd.comicbook+zip",
	".cbr":  "application/vnd.comicbook-rar",
	".djvu": "image/vnd.djvu",

	// audio
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".m4b":  "audio/mp4",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".wav":  "audio/wav",
	".aac":  "audio/aac",

	// video
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".ts":   "video/mp2t",

	// images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".avif": "image/avif",
	".svg":  "image/svg+xml",
	".bmp":  "image/bmp",
	".heic": "image/heic",
}

// ContentTypeFor resolves the Content-Type served for an object: upstream
// metadata wins, then the curated media extension table, then the platform
// mime registry, then DefaultContentType. A generic octet-stream from the
// upstream counts as absent since stores report it for objects uploaded
// without a type.
func ContentTypeFor(meta, key string) string {
	if meta != "" && meta != DefaultContentType && meta != "binary/octet-stream" {
		return meta
	}

	ext := strings.ToLower(path.Ext(key))
	if ext != "" {
		if ct, ok := mediaTypes[ext]; ok {
			return ct
		}
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
	}

	return DefaultContentType
}
