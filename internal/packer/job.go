package packer

import (
	"path/filepath"

	"github.com/MimeLyc/comic-packer/internal/metadata"
	"github.com/MimeLyc/comic-packer/pkg/file"
)

type SourceKind int

const (
	SourceDirectory SourceKind = iota
	SourceArchive
)

func (k SourceKind) String() string {
	if k == SourceArchive {
		return "archive"
	}
	return "directory"
}

// ConversionJob describes one top-level input. It is built by the caller,
// consumed by a single Convert call and never persisted.
type ConversionJob struct {
	SourcePath string
	SourceKind SourceKind
	// OutputPath is forced to a .cbz extension. Empty means <title>.cbz in
	// the assembler's WorkDir.
	OutputPath string

	Title    string
	Series   *string
	Number   *int
	Language string

	RemoveSource bool

	// Overrides are explicit per-item metadata values; they win over batch
	// overrides and computed defaults.
	Overrides metadata.Overrides
}

// BaseName is the directory name or archive stem of the source.
func (j ConversionJob) BaseName() string {
	if j.SourceKind == SourceArchive {
		return file.Stem(j.SourcePath)
	}
	return filepath.Base(filepath.Clean(j.SourcePath))
}

// EffectiveTitle is the explicit title, or the source base name.
func (j ConversionJob) EffectiveTitle() string {
	if j.Title != "" {
		return j.Title
	}
	return j.BaseName()
}

// itemOverrides folds the job's explicit Title/Series/Number fields into its
// per-item override set. Values already present in Overrides take priority.
func (j ConversionJob) itemOverrides() metadata.Overrides {
	o := j.Overrides
	if o.Title == nil && j.Title != "" {
		title := j.Title
		o.Title = &title
	}
	if o.Series == nil && j.Series != nil {
		series := *j.Series
		o.Series = &series
	}
	if o.Number == nil && j.Number != nil {
		n := *j.Number
		o.Number = &n
	}
	return o
}
