package delivery

import (
	"net/url"
	"strings"
	"unicode"
)

// ContentDisposition builds the header for a download or inline preview.
// The plain filename parameter comes last and holds an ASCII-only name;
// filename* carries the exact UTF-8 name for clients that read it.
func ContentDisposition(disposition, name string) string {
	ascii := asciiFileName(name)
	var b strings.Builder
	b.WriteString(disposition)
	if name != "" && ascii != name {
		b.WriteString("; filename*=UTF-8''")
		b.WriteString(url.PathEscape(name))
	}
	b.WriteString(`; filename="`)
	b.WriteString(ascii)
	b.WriteString(`"`)
	return b.String()
}

func asciiFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '"' || r == '\\' || r == '/' || r == ';':
			b.WriteRune('_')
		case r > unicode.MaxASCII || unicode.IsControl(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "download"
	}
	return out
}
