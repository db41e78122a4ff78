package mediashelf

import "fmt"

// Namespace identifies a media category. Storage keys are scoped to
// exactly one namespace through their leading path segment.
type Namespace string

const (
	NamespaceBook        Namespace = "book"
	NamespaceBookCover   Namespace = "book-cover"
	NamespaceAudio       Namespace = "audio"
	NamespaceAudioCover  Namespace = "audio-cover"
	NamespaceVideo       Namespace = "video"
	NamespaceVideoCover  Namespace = "video-cover"
	NamespaceImage       Namespace = "image"
	NamespaceImageThumb  Namespace = "image-thumb"
	NamespaceFolderCover Namespace = "folder-cover"
)

// namespaces holds every valid namespace in route declaration order.
var namespaces = []Namespace{
	NamespaceBook,
	NamespaceBookCover,
	NamespaceAudio,
	NamespaceAudioCover,
	NamespaceVideo,
	NamespaceVideoCover,
	NamespaceImage,
	NamespaceImageThumb,
	NamespaceFolderCover,
}

// Namespaces returns all valid namespaces in a stable order.
func Namespaces() []Namespace {
	out := make([]Namespace, len(namespaces))
	copy(out, namespaces)
	return out
}

func (n Namespace) IsValid() bool {
	switch n {
	case NamespaceBook, NamespaceBookCover,
		NamespaceAudio, NamespaceAudioCover,
		NamespaceVideo, NamespaceVideoCover,
		NamespaceImage, NamespaceImageThumb,
		NamespaceFolderCover:
		return true
	default:
		return false
	}
}

// Prefix returns the key prefix for the namespace, including the
// trailing separator.
func (n Namespace) Prefix() string {
	return string(n) + "/"
}

const (
	// Thumbnails are content-addressed: a changed image gets a new key,
	// so clients may cache forever.
	thumbnailCacheControl = "public, max-age=31536000, immutable"
	// Everything else is mutable in place (covers get replaced, content
	// gets re-uploaded under the same key).
	mutableCacheControl = "private, max-age=3600"
)

// CacheControl returns the Cache-Control header value served for objects
// in the namespace.
func (n Namespace) CacheControl() string {
	if n == NamespaceImageThumb {
		return thumbnailCacheControl
	}
	return mutableCacheControl
}

func ParseNamespace(s string) (Namespace, error) {
	ns := Namespace(s)
	if !ns.IsValid() {
		return "", fmt.Errorf("invalid namespace: %s", s)
	}
	return ns, nil
}
