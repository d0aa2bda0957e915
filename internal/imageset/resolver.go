// Package imageset lists the page images of a comic source directory in
// reading order.
package imageset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ImageExts are the recognized page suffixes, lowercase with a leading dot.
var ImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
}

type Role string

const (
	RoleFrontCover Role = "FrontCover"
	RoleStory      Role = "Story"
	RoleBackCover  Role = "BackCover"
	RoleOther      Role = "Other"
)

// PageEntry is one page of a comic. Index is the zero-based position in
// reading order.
type PageEntry struct {
	FilePath string
	Index    int
	Role     Role
}

// IsImage reports whether name carries a recognized image suffix.
func IsImage(name string) bool {
	return ImageExts[strings.ToLower(filepath.Ext(name))]
}

// ListImages returns the image files directly inside dir, sorted by file
// name. Page order in the comic follows this order, so sources should use
// zero-padded names. An image-less directory yields an empty slice.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list images in %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsImage(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

// Pages tags each path as a story page in the given order.
func Pages(paths []string) []PageEntry {
	pages := make([]PageEntry, len(paths))
	for i, p := range paths {
		pages[i] = PageEntry{FilePath: p, Index: i, Role: RoleStory}
	}
	return pages
}
