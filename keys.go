package mediashelf

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ValidKey validates that key is a well-formed storage key scoped to the
// namespace ns. It is a pure function of its arguments and performs no I/O;
// the gateway runs it before any store access.
//
// A key is well formed when it:
//   - is not empty, ".", or "/"
//   - starts with the namespace prefix (e.g. "video/") and has a non-empty
//     remainder
//   - is relative (does not start with "/") and does not end with "/"
//   - does not contain ".." (path traversal)
//   - does not contain "//" (empty segments)
//   - does not contain invalid characters: \ ? # ~
//   - is valid UTF-8
//   - does not contain "." segments
//   - does not contain null bytes, control characters (< 0x20), DEL (0x7f),
//     or whitespace
//
// Video content keys must additionally have exactly the shape
// video/<opaque-id>/<filename>, since the filename segment seeds the
// suggested download filename.
//
// Returns true if the key is valid for ns, false otherwise.
func ValidKey(key string, ns Namespace) bool {
	if !ns.IsValid() {
		return false
	}

	if !wellFormedKey(key) {
		return false
	}

	if !strings.HasPrefix(key, ns.Prefix()) {
		return false
	}

	if ns == NamespaceVideo && strings.Count(key, "/") != 2 {
		return false
	}

	return true
}

// KeyNamespace returns the namespace a valid key belongs to. It returns
// false for keys that are not valid in any namespace.
func KeyNamespace(key string) (Namespace, bool) {
	for _, ns := range namespaces {
		if ValidKey(key, ns) {
			return ns, true
		}
	}
	return "", false
}

// VideoFilename returns the filename segment of a valid video content key.
func VideoFilename(key string) (string, bool) {
	if !ValidKey(key, NamespaceVideo) {
		return "", false
	}
	return key[strings.LastIndex(key, "/")+1:], true
}

func wellFormedKey(key string) bool {
	if key == "" || key == "/" || key == "." {
		return false
	}

	if key[0] == '/' {
		return false
	}

	if strings.HasSuffix(key, "/") {
		return false
	}

	if strings.Contains(key, "..") {
		return false
	}

	if strings.Contains(key, "//") {
		return false
	}

	if strings.ContainsAny(key, `\?#~`) {
		return false
	}

	if !utf8.ValidString(key) {
		return false
	}

	if strings.HasPrefix(key, "./") || strings.Contains(key, "/./") || strings.HasSuffix(key, "/.") {
		return false
	}

	for _, r := range key {
		if r == 0 || r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}
