package comicinfo

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/comic-packer/internal/imageset"
	"github.com/MimeLyc/comic-packer/internal/metadata"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestCBZEncoder_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	first := pngBytes(t, 4, 6)
	second := []byte("not really a jpeg")
	paths := []string{
		writeFile(t, dir, "a.png", first),
		writeFile(t, dir, "b.JPG", second),
	}

	two := 2
	meta := metadata.Defaults("book", "zh-CN")
	meta.Series = "Foo"
	meta.Number = &two

	data, err := NewCBZEncoder().Encode(imageset.Pages(paths), meta)
	require.NoError(t, err)

	out := filepath.Join(dir, "book.cbz")
	require.NoError(t, os.WriteFile(out, data, 0o644))

	a, err := Read(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"001.png", "002.jpg"}, a.Pages)

	got, ok := a.Page("001.png")
	require.True(t, ok)
	assert.Equal(t, first, got)
	got, ok = a.Page("002.jpg")
	require.True(t, ok)
	assert.Equal(t, second, got)

	require.True(t, a.HasInfo)
	assert.Equal(t, "book", a.Info.Title)
	assert.Equal(t, "Foo", a.Info.Series)
	assert.Equal(t, "2", a.Info.Number)
	assert.Equal(t, "zh-CN", a.Info.LanguageISO)
	assert.Equal(t, metadata.FormatWebComic, a.Info.Format)
	assert.Equal(t, "No", a.Info.BlackAndWhite)
	assert.Equal(t, "Yes", a.Info.Manga)
	assert.Equal(t, "Rating Pending", a.Info.AgeRating)
	assert.Equal(t, 2, a.Info.PageCount)

	require.NotNil(t, a.Info.Pages)
	require.Len(t, a.Info.Pages.Page, 2)
	p0 := a.Info.Pages.Page[0]
	assert.Equal(t, 0, p0.Image)
	assert.Equal(t, "Story", p0.Type)
	assert.Equal(t, 4, p0.ImageWidth)
	assert.Equal(t, 6, p0.ImageHeight)
	assert.Equal(t, int64(len(first)), p0.ImageSize)
	assert.Zero(t, a.Info.Pages.Page[1].ImageWidth, "undecodable page has no dimensions")
}

func TestCBZEncoder_NoPages(t *testing.T) {
	_, err := NewCBZEncoder().Encode(nil, metadata.Defaults("x", "en"))
	assert.Error(t, err)
}

func TestCBZEncoder_MissingPage(t *testing.T) {
	pages := imageset.Pages([]string{filepath.Join(t.TempDir(), "gone.png")})
	_, err := NewCBZEncoder().Encode(pages, metadata.Defaults("x", "en"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestComicInfo_MarshalOmitsUnset(t *testing.T) {
	body, err := FromMetadata(metadata.ComicMetadata{Title: "T"}).Marshal()
	require.NoError(t, err)

	s := string(body)
	assert.True(t, strings.HasPrefix(s, "<?xml"))
	assert.Contains(t, s, "<Title>T</Title>")
	assert.NotContains(t, s, "<Number>")
	assert.NotContains(t, s, "<Pages>")
	assert.NotContains(t, s, "<Notes>")

	parsed, err := Unmarshal(body)
	require.NoError(t, err)
	assert.Equal(t, "T", parsed.Title)
}

func TestComicInfo_ExtraBecomesNotes(t *testing.T) {
	meta := metadata.ComicMetadata{
		Title: "T",
		Extra: map[string]string{"translator": "Ann", "color": "red"},
	}
	body, err := FromMetadata(meta).Marshal()
	require.NoError(t, err)

	parsed, err := Unmarshal(body)
	require.NoError(t, err)
	assert.Equal(t, "color=red\ntranslator=Ann", parsed.Notes)
}

func TestPageName(t *testing.T) {
	assert.Equal(t, "001.png", PageName(0, 3, "x/IMG.PNG"))
	assert.Equal(t, "0042.webp", PageName(41, 4, "p.webp"))
	assert.Equal(t, 3, pageNameWidth(12))
	assert.Equal(t, 4, pageNameWidth(1000))
}
