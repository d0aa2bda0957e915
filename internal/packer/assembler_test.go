package packer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/comic-packer/internal/comicinfo"
	"github.com/MimeLyc/comic-packer/internal/extraparam"
	"github.com/MimeLyc/comic-packer/internal/imageset"
	"github.com/MimeLyc/comic-packer/internal/metadata"
	"github.com/MimeLyc/comic-packer/internal/packerr"
)

type failingEncoder struct{}

func (failingEncoder) Encode([]imageset.PageEntry, metadata.ComicMetadata) ([]byte, error) {
	return nil, errors.New("boom")
}

func writePages(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("page "+name), 0o644))
	}
}

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func newTestAssembler(t *testing.T) *Assembler {
	t.Helper()
	a := NewAssembler(nil)
	a.WorkDir = t.TempDir()
	a.TmpRoot = t.TempDir()
	return a
}

func TestConvert_DirectoryWithOverrides(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "book")
	writePages(t, src, "003.png", "001.jpg", "002.jpg", "notes.txt")
	outDir := t.TempDir()

	batch := extraparam.Parse(`series="Foo", number="2", translator="Ann"`).Overrides()
	job := ConversionJob{
		SourcePath: src,
		SourceKind: SourceDirectory,
		OutputPath: filepath.Join(outDir, "book"),
		Language:   "zh-CN",
	}

	out, err := newTestAssembler(t).Convert(context.Background(), job, batch)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "book.cbz"), out.Path)
	assert.Equal(t, 3, out.PageCount)
	assert.Empty(t, out.Warnings)

	a, err := comicinfo.Read(out.Path)
	require.NoError(t, err)
	assert.Equal(t, []string{"001.jpg", "002.jpg", "003.png"}, a.Pages)

	first, ok := a.Page("001.jpg")
	require.True(t, ok)
	assert.Equal(t, "page 001.jpg", string(first))
	last, ok := a.Page("003.png")
	require.True(t, ok)
	assert.Equal(t, "page 003.png", string(last))

	require.True(t, a.HasInfo)
	assert.Equal(t, "Foo", a.Info.Series)
	assert.Equal(t, "2", a.Info.Number)
	assert.Equal(t, "book", a.Info.Title)
	assert.Equal(t, "zh-CN", a.Info.LanguageISO)
	assert.Equal(t, metadata.FormatWebComic, a.Info.Format)
	assert.Equal(t, "translator=Ann", a.Info.Notes)

	_, err = os.Stat(src)
	assert.NoError(t, err, "source kept without RemoveSource")
}

func TestConvert_ArchiveReleasesStaging(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "chapter.zip")
	writeZip(t, src, map[string]string{
		"chapter/02.png": "two",
		"chapter/01.png": "one",
	})

	asm := newTestAssembler(t)
	out, err := asm.Convert(context.Background(), ConversionJob{
		SourcePath:   src,
		SourceKind:   SourceArchive,
		Language:     "zh_cn",
		RemoveSource: true,
	}, metadata.Overrides{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(asm.WorkDir, "chapter.cbz"), out.Path)

	a, err := comicinfo.Read(out.Path)
	require.NoError(t, err)
	assert.Equal(t, []string{"001.png", "002.png"}, a.Pages)
	assert.Equal(t, "chapter", a.Info.Series)
	assert.Equal(t, "1", a.Info.Number)
	assert.Equal(t, "zh-CN", a.Info.LanguageISO)

	leftovers, err := os.ReadDir(asm.TmpRoot)
	require.NoError(t, err)
	assert.Empty(t, leftovers, "staging dir must be released")

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err), "archive should be removed")
}

func TestConvert_NoPages(t *testing.T) {
	src := filepath.Join(t.TempDir(), "empty")
	writePages(t, src, "readme.txt")

	asm := newTestAssembler(t)
	_, err := asm.Convert(context.Background(), ConversionJob{SourcePath: src}, metadata.Overrides{})
	require.Error(t, err)
	assert.True(t, packerr.IsKind(err, packerr.NoPagesFound))

	_, statErr := os.Stat(filepath.Join(asm.WorkDir, "empty.cbz"))
	assert.True(t, os.IsNotExist(statErr), "no output on NoPagesFound")
}

func TestConvert_MissingSource(t *testing.T) {
	_, err := newTestAssembler(t).Convert(context.Background(), ConversionJob{
		SourcePath: filepath.Join(t.TempDir(), "missing"),
	}, metadata.Overrides{})
	assert.True(t, packerr.IsKind(err, packerr.InputNotFound))
}

func TestConvert_CorruptArchive(t *testing.T) {
	src := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, os.WriteFile(src, []byte("not a zip"), 0o644))

	_, err := newTestAssembler(t).Convert(context.Background(), ConversionJob{
		SourcePath: src,
		SourceKind: SourceArchive,
	}, metadata.Overrides{})
	assert.True(t, packerr.IsKind(err, packerr.Extraction))
}

func TestAssemble_EncodingFailureWritesNothing(t *testing.T) {
	src := filepath.Join(t.TempDir(), "book")
	writePages(t, src, "001.jpg")

	asm := newTestAssembler(t)
	asm.Encoder = failingEncoder{}
	_, err := asm.Convert(context.Background(), ConversionJob{SourcePath: src}, metadata.Overrides{})
	assert.True(t, packerr.IsKind(err, packerr.Encoding))

	entries, err := os.ReadDir(asm.WorkDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAssemble_RemovesDirectorySource(t *testing.T) {
	src := filepath.Join(t.TempDir(), "book")
	writePages(t, src, "001.jpg")

	out, err := newTestAssembler(t).Convert(context.Background(), ConversionJob{
		SourcePath:   src,
		RemoveSource: true,
	}, metadata.Overrides{})
	require.NoError(t, err)
	assert.Empty(t, out.Warnings)

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))
}

func TestMetadata_Precedence(t *testing.T) {
	series := "Job Series"
	title := "Per Item"
	job := ConversionJob{
		SourcePath: "/comics/Café.zip",
		SourceKind: SourceArchive,
		Series:     &series,
		Language:   "en",
		Overrides:  metadata.Overrides{Title: &title},
	}
	batchTitle := "Batch"
	batchWriter := "W"
	batch := metadata.Overrides{Title: &batchTitle, Writer: &batchWriter}

	meta := NewAssembler(nil).Metadata(job, batch)
	assert.Equal(t, "Per Item", meta.Title)
	assert.Equal(t, "Job Series", meta.Series)
	assert.Equal(t, "W", meta.Writer)
	require.NotNil(t, meta.Number)
	assert.Equal(t, 1, *meta.Number)
	assert.Equal(t, "en", meta.LanguageISO)
}

func TestOutputPath(t *testing.T) {
	asm := &Assembler{WorkDir: "/work"}
	assert.Equal(t, filepath.Join("/out", "x.cbz"), asm.OutputPath(ConversionJob{OutputPath: "/out/x.zip"}))
	assert.Equal(t, filepath.Join("/work", "book.cbz"), asm.OutputPath(ConversionJob{SourcePath: "/in/book"}))
	assert.Equal(t, filepath.Join("/work", "Named.cbz"), asm.OutputPath(ConversionJob{SourcePath: "/in/book", Title: "Named"}))
}
