// Package batch drives conversions: one input or every child of an input
// directory, each isolated from the others' failures.
package batch

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MimeLyc/comic-packer/internal/metadata"
	"github.com/MimeLyc/comic-packer/internal/packer"
	"github.com/MimeLyc/comic-packer/internal/packerr"
	"github.com/MimeLyc/comic-packer/internal/staging"
	"github.com/MimeLyc/comic-packer/pkg/file"
	"github.com/MimeLyc/comic-packer/pkg/log"
)

// Recorder receives every finished outcome.
type Recorder interface {
	RecordOutcome(ctx context.Context, batchID string, o Outcome) error
}

type Options struct {
	OutputDir    string
	Language     string
	RemoveSource bool
	// Overrides apply to every item; fields left nil keep each item's defaults.
	Overrides metadata.Overrides
	// Workers above one converts items concurrently.
	Workers  int
	Recorder Recorder
}

type Orchestrator struct {
	opts      Options
	assembler *packer.Assembler
}

func New(assembler *packer.Assembler, opts Options) *Orchestrator {
	if assembler == nil {
		assembler = packer.NewAssembler(nil)
	}
	if opts.Language == "" {
		opts.Language = packer.DefaultLanguage
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Orchestrator{opts: opts, assembler: assembler}
}

// ConvertOne converts a single input. A .zip file is staged as an archive, a
// directory is packed directly and anything else is skipped. ConvertOne
// never panics and never returns an error directly; failures land in the
// Outcome.
func (o *Orchestrator) ConvertOne(ctx context.Context, path string) Outcome {
	outcome := Outcome{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Err = packerr.Wrap(err, packerr.InputNotFound, "input not found").
			WithContext("path", path)
		return outcome
	}

	var kind packer.SourceKind
	switch {
	case file.HasExt(path, staging.ArchiveExts...):
		kind = packer.SourceArchive
	case info.IsDir():
		kind = packer.SourceDirectory
	default:
		outcome.Status = StatusSkipped
		outcome.Err = packerr.New(packerr.UnsupportedInput, "not a directory or zip archive").
			WithContext("path", path)
		return outcome
	}

	job := packer.ConversionJob{
		SourcePath:   path,
		SourceKind:   kind,
		Language:     o.opts.Language,
		RemoveSource: o.opts.RemoveSource,
	}
	if o.opts.OutputDir != "" {
		job.OutputPath = filepath.Join(o.opts.OutputDir, job.BaseName()+packer.OutputExt)
	}

	err = packerr.SafeExecute(func() error {
		out, err := o.assembler.Convert(ctx, job, o.opts.Overrides)
		outcome.Output = out
		return err
	})
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome
	}
	outcome.Status = StatusProcessed
	return outcome
}

// ConvertSingle converts path and reports it as a one-item run.
func (o *Orchestrator) ConvertSingle(ctx context.Context, path string) Result {
	started := time.Now()
	batchID := uuid.NewString()

	if err := o.ensureOutputDir(); err != nil {
		outcome := Outcome{Path: path, Status: StatusFailed, Err: err}
		o.finish(ctx, batchID, outcome)
		return reduce(batchID, []Outcome{outcome}, started)
	}

	outcome := o.ConvertOne(ctx, path)
	o.finish(ctx, batchID, outcome)
	return reduce(batchID, []Outcome{outcome}, started)
}

// ConvertAll creates the output dir, then converts every immediate child of
// inputDir in name order. Only an output dir that cannot be created, or a
// missing or unreadable inputDir, is returned as an error; item failures are counted in the Result. When ctx is
// canceled the items already started finish and the rest are left out.
func (o *Orchestrator) ConvertAll(ctx context.Context, inputDir string) (Result, error) {
	started := time.Now()
	batchID := uuid.NewString()

	if err := o.ensureOutputDir(); err != nil {
		return Result{BatchID: batchID}, err
	}
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return Result{BatchID: batchID}, packerr.Wrap(err, packerr.InputNotFound, "read input directory").
			WithContext("path", inputDir)
	}

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = filepath.Join(inputDir, e.Name())
	}
	log.Info("Batch %s: %d item(s) in %s", batchID, len(paths), inputDir)

	outcomes := make([]Outcome, len(paths))
	if o.opts.Workers > 1 {
		o.runParallel(ctx, batchID, paths, outcomes)
	} else {
		for i, path := range paths {
			if ctx.Err() != nil {
				log.Warn("Interrupted, %d item(s) not converted", len(paths)-i)
				break
			}
			outcomes[i] = o.ConvertOne(ctx, path)
			o.finish(ctx, batchID, outcomes[i])
		}
	}

	result := reduce(batchID, outcomes, started)
	log.Info("Batch %s done in %s: %d processed, %d failed, %d skipped",
		batchID, result.Duration.Round(time.Millisecond), result.Processed, result.Errors, result.Skipped)
	return result, ctx.Err()
}

func (o *Orchestrator) runParallel(ctx context.Context, batchID string, paths []string, outcomes []Outcome) {
	var g errgroup.Group
	g.SetLimit(o.opts.Workers)
	for i, path := range paths {
		if ctx.Err() != nil {
			log.Warn("Interrupted, remaining items not scheduled")
			break
		}
		i, path := i, path
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcomes[i] = o.ConvertOne(ctx, path)
			o.finish(ctx, batchID, outcomes[i])
			return nil
		})
	}
	_ = g.Wait()
}

func (o *Orchestrator) ensureOutputDir() error {
	if o.opts.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(o.opts.OutputDir, 0o755); err != nil {
		return packerr.Wrap(err, packerr.Write, "create output directory").
			WithContext("path", o.opts.OutputDir)
	}
	return nil
}

// finish logs outcome and hands it to the recorder.
func (o *Orchestrator) finish(ctx context.Context, batchID string, outcome Outcome) {
	name := filepath.Base(outcome.Path)
	switch outcome.Status {
	case StatusProcessed:
		log.Info("Processed %s", name)
	case StatusSkipped:
		log.Debug("Skipped %s: %v", name, outcome.Err)
	case StatusFailed:
		if advice := packerr.Advice(outcome.Err); advice != "" {
			log.Error("Failed %s: %v (%s)", name, outcome.Err, advice)
		} else {
			log.Error("Failed %s: %v", name, outcome.Err)
		}
	}

	if o.opts.Recorder == nil {
		return
	}
	if err := o.opts.Recorder.RecordOutcome(context.WithoutCancel(ctx), batchID, outcome); err != nil {
		log.Warn("Failed to record outcome for %s: %v", name, err)
	}
}
