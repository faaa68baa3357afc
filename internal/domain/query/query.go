// Package query filters and pages folder listings that the permission model
// has already approved. Nothing here looks at who the caller is.
package query

import "strings"

// Searchable is a folder-like listing entry.
type Searchable[F any] interface {
	DisplayName() string
	// Narrow returns a copy keeping only the files whose names satisfy keep,
	// along with how many were kept.
	Narrow(keep func(fileName string) bool) (F, int)
}

// Search keeps folders whose name contains q, or that hold at least one file
// whose name contains q (case-insensitive). A folder kept for its own name
// keeps all files; a folder kept only for its files is narrowed to them.
// A blank query returns folders unchanged.
func Search[F Searchable[F]](folders []F, q string) []F {
	needle := Normalize(q)
	if needle == "" {
		return folders
	}

	match := func(name string) bool {
		return strings.Contains(strings.ToLower(name), needle)
	}

	out := make([]F, 0, len(folders))
	for _, f := range folders {
		if match(f.DisplayName()) {
			out = append(out, f)
			continue
		}
		if narrowed, n := f.Narrow(match); n > 0 {
			out = append(out, narrowed)
		}
	}
	return out
}

// Normalize is the form a query is compared in.
func Normalize(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
