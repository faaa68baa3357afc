package catalog

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// IsImageType reports whether contentType is image/*. Empty or unparseable
// types are not images.
func IsImageType(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt, "image/")
}

// resolveContentType prefers what the bytes say. When sniffing only finds a
// generic type, a specific declared type is kept, except image/*: only the
// bytes can make a file previewable.
func resolveContentType(declared string, head []byte) string {
	sniffed := mimetype.Detect(head)
	if generic(sniffed.String()) {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(declared))
		if err == nil && !generic(mt) && !IsImageType(mt) {
			return mt
		}
	}
	mt, _, _ := mime.ParseMediaType(sniffed.String())
	return mt
}

func generic(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.Contains(mt, "/") {
		return true
	}
	return mt == "application/octet-stream" || mt == "text/plain"
}
