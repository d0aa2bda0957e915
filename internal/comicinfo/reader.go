package comicinfo

import (
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/compress/zip"

	"github.com/MimeLyc/comic-packer/internal/imageset"
)

// Archive is the parsed content of a CBZ file.
type Archive struct {
	Info     ComicInfo
	HasInfo  bool
	Pages    []string
	contents map[string][]byte
}

// Page returns the bytes of the named page entry.
func (a *Archive) Page(name string) ([]byte, bool) {
	b, ok := a.contents[name]
	return b, ok
}

// Read opens a CBZ and loads its descriptor and pages. Pages are listed in
// entry-name order, which is reading order for archives this package writes.
func Read(path string) (*Archive, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	a := &Archive{contents: make(map[string][]byte)}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		data, err := readAll(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}

		switch {
		case f.Name == FileName:
			info, err := Unmarshal(data)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", FileName, err)
			}
			a.Info = info
			a.HasInfo = true
		case imageset.IsImage(f.Name):
			a.Pages = append(a.Pages, f.Name)
			a.contents[f.Name] = data
		}
	}
	sort.Strings(a.Pages)
	return a, nil
}

func readAll(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
