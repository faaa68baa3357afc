package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsImageType(t *testing.T) {
	for ct, want := range map[string]bool{
		"image/png":                 true,
		"image/svg+xml":             true,
		"IMAGE/JPEG":                true,
		"image/webp; q=1":           true,
		"application/pdf":           false,
		"text/plain; charset=utf-8": false,
		"":                          false,
		"garbage":                   false,
		"imagery/png":               false,
	} {
		assert.Equal(t, want, IsImageType(ct), ct)
	}
}

func TestResolveContentType(t *testing.T) {
	assert.Equal(t, "image/png", resolveContentType("application/octet-stream", pngHeader))
	assert.Equal(t, "image/png", resolveContentType("text/plain", pngHeader))
	assert.Equal(t, "application/pdf", resolveContentType("", []byte("%PDF-1.4\n")))
	assert.Equal(t, "text/plain", resolveContentType("", []byte("just words")))
	assert.Equal(t, "text/markdown", resolveContentType("text/markdown", []byte("# title")))
	assert.Equal(t, "application/octet-stream", resolveContentType("nonsense", []byte{0, 1, 2, 3}))
}

func TestResolveContentType_DeclaredImageNeedsImageBytes(t *testing.T) {
	ct := resolveContentType("image/png", []byte("not a picture at all"))
	assert.Equal(t, "text/plain", ct)
	assert.False(t, IsImageType(ct))

	assert.Equal(t, "image/png", resolveContentType("image/png", pngHeader))
	assert.Equal(t, "application/octet-stream", resolveContentType("image/jpeg", []byte{0, 1, 2, 3}))
}
