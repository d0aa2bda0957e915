package file

import (
	"path/filepath"
	"strings"
)

// ReplaceExt swaps the extension of the last path element for ext. A name
// without an extension (or a dotfile like ".cache") gets ext appended.
func ReplaceExt(path, ext string) string {
	if path == "" {
		return path
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	dir := filepath.Dir(path)
	return filepath.Join(dir, Stem(path)+ext)
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	name := filepath.Base(path)
	lastDot := strings.LastIndex(name, ".")
	if lastDot <= 0 {
		return name
	}
	return name[:lastDot]
}

// HasExt reports whether path ends in one of exts, ignoring case. exts are
// expected lowercase with a leading dot.
func HasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
