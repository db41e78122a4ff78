package mediashelf_test

import (
	"testing"

	"github.com/ptrevino/mediashelf"
	"github.com/stretchr/testify/assert"
)

func TestNamespace_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		ns    mediashelf.Namespace
		valid bool
	}{
		{name: "book is valid", ns: mediashelf.NamespaceBook, valid: true},
		{name: "book cover is valid", ns: mediashelf.NamespaceBookCover, valid: true},
		{name: "audio is valid", ns: mediashelf.NamespaceAudio, valid: true},
		{name: "audio cover is valid", ns: mediashelf.NamespaceAudioCover, valid: true},
		{name: "video is valid", ns: mediashelf.NamespaceVideo, valid: true},
		{name: "video cover is valid", ns: mediashelf.NamespaceVideoCover, valid: true},
		{name: "image is valid", ns: mediashelf.NamespaceImage, valid: true},
		{name: "image thumb is valid", ns: mediashelf.NamespaceImageThumb, valid: true},
		{name: "folder cover is valid", ns: mediashelf.NamespaceFolderCover, valid: true},
		{name: "empty is invalid", ns: "", valid: false},
		{name: "plural is invalid", ns: "videos", valid: false},
		{name: "uppercase is invalid", ns: "BOOK", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.ns.IsValid())
		})
	}
}

func TestParseNamespace(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantNS    mediashelf.Namespace
		wantError bool
	}{
		{name: "parse book", input: "book", wantNS: mediashelf.NamespaceBook},
		{name: "parse image thumb", input: "image-thumb", wantNS: mediashelf.NamespaceImageThumb},
		{name: "parse folder cover", input: "folder-cover", wantNS: mediashelf.NamespaceFolderCover},
		{name: "empty string returns error", input: "", wantError: true},
		{name: "unknown namespace returns error", input: "documents", wantError: true},
		{name: "uppercase returns error", input: "VIDEO", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns, err := mediashelf.ParseNamespace(tt.input)

			if tt.wantError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "invalid namespace")
				assert.Equal(t, mediashelf.Namespace(""), ns)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantNS, ns)
			}
		})
	}
}

func TestNamespace_Prefix(t *testing.T) {
	assert.Equal(t, "book/", mediashelf.NamespaceBook.Prefix())
	assert.Equal(t, "image-thumb/", mediashelf.NamespaceImageThumb.Prefix())
}

func TestNamespace_CacheControl(t *testing.T) {
	t.Run("thumbnails cache immutably", func(t *testing.T) {
		assert.Equal(t, "public, max-age=31536000, immutable", mediashelf.NamespaceImageThumb.CacheControl())
	})

	t.Run("mutable namespaces cache privately", func(t *testing.T) {
		for _, ns := range mediashelf.Namespaces() {
			if ns == mediashelf.NamespaceImageThumb {
				continue
			}
			assert.Equal(t, "private, max-age=3600", ns.CacheControl(), "namespace %s", ns)
		}
	})
}

func TestNamespaces(t *testing.T) {
	all := mediashelf.Namespaces()
	assert.Len(t, all, 9)
	for _, ns := range all {
		assert.True(t, ns.IsValid())
	}

	t.Run("returned slice is a copy", func(t *testing.T) {
		all[0] = "mutated"
		assert.Equal(t, mediashelf.NamespaceBook, mediashelf.Namespaces()[0])
	})
}
