package diagfmt

import (
	"path/filepath"
	"strings"
)

// FormatPath renders path for display relative to base according to mode.
func FormatPath(path string, mode PathMode, base string) string {
	switch mode {
	case PathModeBasename:
		return filepath.Base(path)
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	case PathModeRelative, PathModeAuto:
		if base == "" {
			return path
		}
		rel, err := filepath.Rel(base, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			return path
		}
		if mode == PathModeAuto && len(rel) >= len(path) {
			return path
		}
		return rel
	}
	return path
}
