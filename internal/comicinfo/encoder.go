package comicinfo

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/MimeLyc/comic-packer/internal/imageset"
	"github.com/MimeLyc/comic-packer/internal/metadata"
	"github.com/MimeLyc/comic-packer/pkg/log"
)

// Encoder packs ordered pages and metadata into CBZ bytes.
type Encoder interface {
	Encode(pages []imageset.PageEntry, meta metadata.ComicMetadata) ([]byte, error)
}

// CBZEncoder is the zip-backed Encoder. Pages are stored as 001.ext, 002.ext,
// ... in the given order, followed by ComicInfo.xml.
type CBZEncoder struct {
	// Method is the zip compression method; zero means zip.Store since page
	// images are already compressed.
	Method uint16
}

func NewCBZEncoder() *CBZEncoder {
	return &CBZEncoder{Method: zip.Store}
}

func (e *CBZEncoder) Encode(pages []imageset.PageEntry, meta metadata.ComicMetadata) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages to encode")
	}

	info := FromMetadata(meta)
	info.PageCount = len(pages)
	info.Pages = &Pages{Page: make([]PageInfo, 0, len(pages))}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	width := pageNameWidth(len(pages))
	for i, page := range pages {
		data, err := os.ReadFile(page.FilePath)
		if err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("read page %s: %w", filepath.Base(page.FilePath), err)
		}

		pi := PageInfo{
			Image:     i,
			Type:      string(page.Role),
			ImageSize: int64(len(data)),
		}
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			pi.ImageWidth = cfg.Width
			pi.ImageHeight = cfg.Height
		} else {
			log.Debug("No dimensions for %s: %v", filepath.Base(page.FilePath), err)
		}
		info.Pages.Page = append(info.Pages.Page, pi)

		name := PageName(i, width, page.FilePath)
		if err := e.writeEntry(zw, name, data); err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("write page %s: %w", name, err)
		}
	}

	xmlBody, err := info.Marshal()
	if err != nil {
		_ = zw.Close()
		return nil, fmt.Errorf("marshal %s: %w", FileName, err)
	}
	if err := e.writeEntry(zw, FileName, xmlBody); err != nil {
		_ = zw.Close()
		return nil, fmt.Errorf("write %s: %w", FileName, err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *CBZEncoder) writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: e.Method})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// PageName is the archive entry name of page i (zero-based).
func PageName(i, width int, source string) string {
	return fmt.Sprintf("%0*d%s", width, i+1, strings.ToLower(filepath.Ext(source)))
}

func pageNameWidth(count int) int {
	w := len(fmt.Sprint(count))
	if w < 3 {
		return 3
	}
	return w
}
