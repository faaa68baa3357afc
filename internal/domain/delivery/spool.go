package delivery

import (
	"os"
	"path/filepath"
	"time"
)

// SweepSpool removes archive spool files in dir older than maxAge. Spools are
// normally removed when their response is closed; this catches the ones a
// crashed process left behind. An empty dir means the system temp dir.
func SweepSpool(dir string, maxAge time.Duration, now time.Time) (int, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	matches, err := filepath.Glob(filepath.Join(dir, spoolPattern))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() || now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if err := os.Remove(m); err == nil {
			removed++
		}
	}
	return removed, nil
}
