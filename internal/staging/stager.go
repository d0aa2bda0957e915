// Package staging unpacks a zip-compressed comic into a temporary directory
// so the rest of the pipeline can treat it like a folder source.
package staging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/klauspost/compress/zip"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/MimeLyc/comic-packer/internal/imageset"
	"github.com/MimeLyc/comic-packer/internal/packerr"
	"github.com/MimeLyc/comic-packer/pkg/log"
)

const tempPattern = "comicpacker-stage-*"

// ArchiveExts are the suffixes treated as compressed sources.
var ArchiveExts = []string{".zip"}

// Workspace is an extracted archive. Release must be called once the caller
// is done with Dir; it is safe to call more than once.
type Workspace struct {
	Dir     string
	Archive string

	once       sync.Once
	releaseErr error
}

// Release removes the staging directory and everything in it.
func (w *Workspace) Release() error {
	w.once.Do(func() {
		w.releaseErr = os.RemoveAll(w.Dir)
		if w.releaseErr != nil {
			log.Warn("Failed to remove staging dir %s: %v", w.Dir, w.releaseErr)
		}
	})
	return w.releaseErr
}

// ImageDir returns the directory that holds the pages. Zipped chapter folders
// usually wrap their pages in a single top-level directory; ImageDir descends
// through such wrappers until it reaches a directory with images.
func (w *Workspace) ImageDir() string {
	dir := w.Dir
	for {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return dir
		}

		var subdirs []string
		for _, e := range entries {
			if e.IsDir() {
				if isJunkDir(e.Name()) {
					continue
				}
				subdirs = append(subdirs, e.Name())
				continue
			}
			if imageset.IsImage(e.Name()) {
				return dir
			}
		}
		if len(subdirs) != 1 {
			return dir
		}
		dir = filepath.Join(dir, subdirs[0])
	}
}

// Stage extracts archivePath into a fresh temporary directory under tmpRoot
// (os.TempDir() when empty). On failure nothing is left on disk.
func Stage(ctx context.Context, archivePath, tmpRoot string) (*Workspace, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, packerr.Wrap(err, packerr.Extraction, "open archive").
			WithContext("archive", archivePath)
	}
	defer r.Close()

	dir, err := os.MkdirTemp(tmpRoot, tempPattern)
	if err != nil {
		return nil, packerr.Wrap(err, packerr.Extraction, "create staging dir").
			WithContext("archive", archivePath)
	}
	ws := &Workspace{Dir: dir, Archive: archivePath}

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			_ = ws.Release()
			return nil, err
		}
		if err := extractEntry(dir, f); err != nil {
			_ = ws.Release()
			return nil, packerr.Wrap(err, packerr.Extraction, "extract entry").
				WithContext("archive", archivePath).
				WithContext("entry", f.Name)
		}
	}

	log.Debug("Staged %s into %s (%d entries)", filepath.Base(archivePath), dir, len(r.File))
	return ws, nil
}

func extractEntry(root string, f *zip.File) error {
	name := entryName(f)
	target := filepath.Join(root, filepath.FromSlash(name))
	if !withinRoot(root, target) {
		return fmt.Errorf("entry %q escapes the staging dir", name)
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if !f.Mode().IsRegular() {
		log.Debug("Skipping non-regular archive entry %s", name)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// entryName decodes names written without the UTF-8 flag. Archives produced
// on Chinese-locale Windows store GBK names, which GB18030 covers.
func entryName(f *zip.File) string {
	if !f.NonUTF8 || utf8.ValidString(f.Name) {
		return f.Name
	}
	decoded, err := simplifiedchinese.GB18030.NewDecoder().String(f.Name)
	if err != nil {
		return f.Name
	}
	return decoded
}

func withinRoot(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isJunkDir(name string) bool {
	return name == "__MACOSX" || strings.HasPrefix(name, ".")
}
