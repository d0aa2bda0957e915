package main

import (
	"fmt"
	"io"

	"github.com/MimeLyc/comic-packer/internal/batch"
	"github.com/MimeLyc/comic-packer/internal/config"
	"github.com/MimeLyc/comic-packer/internal/extraparam"
	"github.com/MimeLyc/comic-packer/internal/history"
	"github.com/MimeLyc/comic-packer/internal/packer"
	"github.com/MimeLyc/comic-packer/pkg/log"
)

// app holds what every command shares: the layered config and resources
// that must be closed when the command ends.
type app struct {
	cfg     *config.Config
	stdout  io.Writer
	closers []func() error
}

// setup validates the config and configures logging.
func (a *app) setup() error {
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := log.ParseLevel(a.cfg.EffectiveLogLevel())
	if a.cfg.LogFile == "" {
		log.InitLogger(level)
		return nil
	}
	fl, err := log.NewFileLogger(a.cfg.LogFile, level)
	if err != nil {
		return err
	}
	log.UseLogger(fl.Logger)
	a.closers = append(a.closers, fl.Close)
	return nil
}

func (a *app) openHistory() (*history.Store, error) {
	store, err := history.Open(a.cfg.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	a.closers = append(a.closers, store.Close)
	return store, nil
}

// orchestrator builds the batch runner from the config. History is
// recorded only when a database path is configured.
func (a *app) orchestrator() (*batch.Orchestrator, error) {
	overrides := extraparam.Parse(a.cfg.ExtraParams).Overrides()
	if !overrides.IsZero() {
		log.Debug("Metadata overrides: %s", a.cfg.ExtraParams)
	}

	opts := batch.Options{
		OutputDir:    a.cfg.OutputDir,
		Language:     a.cfg.Language,
		RemoveSource: a.cfg.DeleteOriginal,
		Overrides:    overrides,
		Workers:      a.cfg.Workers,
	}
	if a.cfg.HistoryDB != "" {
		store, err := a.openHistory()
		if err != nil {
			return nil, err
		}
		opts.Recorder = store
	}

	asm := packer.NewAssembler(nil)
	asm.TmpRoot = a.cfg.TmpDir
	return batch.New(asm, opts), nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn("Close failed: %v", err)
		}
	}
	a.closers = nil
}

func printSummary(w io.Writer, r batch.Result, outputDir string) {
	fmt.Fprintf(w, "Processed: %d\n", r.Processed)
	if r.Errors > 0 {
		fmt.Fprintf(w, "Failed: %d\n", r.Errors)
	}
	if r.Skipped > 0 {
		fmt.Fprintf(w, "Skipped: %d\n", r.Skipped)
	}
	fmt.Fprintf(w, "Output: %s\n", outputDir)
}
