// Package packer turns one resolved comic source into a CBZ file on disk.
package packer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"

	"github.com/MimeLyc/comic-packer/internal/comicinfo"
	"github.com/MimeLyc/comic-packer/internal/imageset"
	"github.com/MimeLyc/comic-packer/internal/lang"
	"github.com/MimeLyc/comic-packer/internal/metadata"
	"github.com/MimeLyc/comic-packer/internal/packerr"
	"github.com/MimeLyc/comic-packer/internal/staging"
	"github.com/MimeLyc/comic-packer/pkg/file"
	"github.com/MimeLyc/comic-packer/pkg/log"
)

const (
	OutputExt       = ".cbz"
	DefaultLanguage = "zh-CN"
)

// Assembler writes CBZ files. The zero value is not usable; build one with
// NewAssembler.
type Assembler struct {
	Encoder comicinfo.Encoder
	// WorkDir receives outputs of jobs without an OutputPath.
	WorkDir string
	// TmpRoot is where archives are staged; empty means os.TempDir().
	TmpRoot string
}

func NewAssembler(encoder comicinfo.Encoder) *Assembler {
	if encoder == nil {
		encoder = comicinfo.NewCBZEncoder()
	}
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return &Assembler{Encoder: encoder, WorkDir: wd}
}

// Output describes a written comic.
type Output struct {
	Path      string
	Title     string
	PageCount int
	Size      int
	// Warnings are non-fatal problems, currently only SourceRemoval.
	Warnings []error
}

// OutputPath returns where job's comic is written.
func (a *Assembler) OutputPath(job ConversionJob) string {
	if job.OutputPath != "" {
		return file.ReplaceExt(job.OutputPath, OutputExt)
	}
	title := norm.NFC.String(job.EffectiveTitle())
	return filepath.Join(a.WorkDir, title+OutputExt)
}

// Convert runs the whole per-job flow: stage the source when it is an
// archive, list its pages, resolve metadata and assemble. The staging
// directory is released before Convert returns.
func (a *Assembler) Convert(ctx context.Context, job ConversionJob, batch metadata.Overrides) (*Output, error) {
	if _, err := os.Stat(job.SourcePath); err != nil {
		return nil, packerr.Wrap(err, packerr.InputNotFound, "source not found").
			WithContext("source", job.SourcePath)
	}

	pageDir := job.SourcePath
	if job.SourceKind == SourceArchive {
		ws, err := staging.Stage(ctx, job.SourcePath, a.TmpRoot)
		if err != nil {
			return nil, err
		}
		defer ws.Release()
		pageDir = ws.ImageDir()
	}

	paths, err := imageset.ListImages(pageDir)
	if err != nil {
		kind := packerr.InputNotFound
		if job.SourceKind == SourceArchive {
			kind = packerr.Extraction
		}
		return nil, packerr.Wrap(err, kind, "read pages").WithContext("source", job.SourcePath)
	}

	meta := a.Metadata(job, batch)
	return a.Assemble(ctx, job, imageset.Pages(paths), meta)
}

// Metadata resolves job's metadata: per-item overrides, then batch
// overrides, then computed defaults.
func (a *Assembler) Metadata(job ConversionJob, batch metadata.Overrides) metadata.ComicMetadata {
	name := norm.NFC.String(job.BaseName())
	meta := metadata.Resolve(metadata.Defaults(name, job.Language), batch, job.itemOverrides())
	meta.Title = norm.NFC.String(meta.Title)
	meta.LanguageISO = lang.Resolve(meta.LanguageISO, meta.Title, DefaultLanguage)
	return meta
}

// Assemble encodes pages and meta and writes the result. Nothing is written
// when there are no pages or encoding fails.
func (a *Assembler) Assemble(ctx context.Context, job ConversionJob, pages []imageset.PageEntry, meta metadata.ComicMetadata) (*Output, error) {
	outPath := a.OutputPath(job)
	if len(pages) == 0 {
		return nil, packerr.New(packerr.NoPagesFound, "no images found").
			WithContext("source", job.SourcePath)
	}

	data, err := a.Encoder.Encode(pages, meta)
	if err != nil {
		return nil, packerr.Wrap(err, packerr.Encoding, "encode comic").
			WithContext("source", job.SourcePath)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := writeAtomic(outPath, data); err != nil {
		return nil, packerr.Wrap(err, packerr.Write, "write comic").
			WithContext("output", outPath)
	}
	log.Info("Packed %s -> %s (%d pages)", filepath.Base(job.SourcePath), outPath, len(pages))

	out := &Output{
		Path:      outPath,
		Title:     meta.Title,
		PageCount: len(pages),
		Size:      len(data),
	}

	if job.RemoveSource {
		if err := removeSource(job); err != nil {
			log.Warn("%v", err)
			out.Warnings = append(out.Warnings, err)
		}
	}
	return out, nil
}

// writeAtomic writes data next to path and renames it into place, so a
// failed write never leaves a truncated comic behind.
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
