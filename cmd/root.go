package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/comic-packer/internal/batch"
	"github.com/MimeLyc/comic-packer/internal/config"
)

// newRootCmd loads the environment config and binds flags on top of it, so
// flags override COMICPACKER_* variables, which override defaults.
func newRootCmd(stdout io.Writer) (*cobra.Command, error) {
	cfg, err := config.Load(nil)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, stdout: stdout}

	var input string
	root := &cobra.Command{
		Use:   "comicpacker",
		Short: "Pack comic image folders and zip archives into CBZ files",
		Long: `comicpacker turns a folder of page images, or a zip archive of them, into a
CBZ file with ordered pages and a ComicInfo.xml descriptor.

Convert one item with -i, or every item of a directory with --inputpath.
Metadata can be overridden with -e 'series="Foo", number="2"'.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			defer a.close()

			orch, err := a.orchestrator()
			if err != nil {
				return err
			}

			var result batch.Result
			if input != "" {
				result = orch.ConvertSingle(cmd.Context(), input)
			} else {
				result, err = orch.ConvertAll(cmd.Context(), cfg.InputPath)
				if err != nil && result.Processed+result.Errors+result.Skipped == 0 {
					return &exitError{code: 1, err: err}
				}
			}

			printSummary(a.stdout, result, cfg.OutputDir)
			if result.HasErrors() || err != nil {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	root.SetOut(stdout)

	flags := root.Flags()
	flags.StringVarP(&input, "input", "i", "", "convert a single folder or zip archive")
	flags.StringVar(&cfg.InputPath, "inputpath", cfg.InputPath, "directory whose items are converted in batch mode")
	root.MarkFlagsMutuallyExclusive("input", "inputpath")

	pflags := root.PersistentFlags()
	pflags.StringVarP(&cfg.OutputDir, "output", "o", cfg.OutputDir, "output directory for CBZ files")
	pflags.StringVar(&cfg.Language, "language", cfg.Language, `LanguageISO written to ComicInfo, or "auto"`)
	pflags.BoolVar(&cfg.DeleteOriginal, "delete-original", cfg.DeleteOriginal, "remove each source after it is packed")
	pflags.BoolVar(&cfg.DeleteOriginal, "delo", cfg.DeleteOriginal, "alias of --delete-original")
	_ = pflags.MarkHidden("delo")
	pflags.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "log debug output, including skipped items")
	pflags.StringVarP(&cfg.ExtraParams, "extra", "e", cfg.ExtraParams, `metadata overrides, e.g. 'series="Foo", number="2"'`)
	pflags.IntVar(&cfg.Workers, "workers", cfg.Workers, "items converted concurrently")
	pflags.StringVar(&cfg.HistoryDB, "history-db", cfg.HistoryDB, "SQLite file recording every outcome")
	pflags.StringVar(&cfg.TmpDir, "tmp-dir", cfg.TmpDir, "where archives are extracted while packing")
	pflags.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write logs to this file")

	root.AddCommand(
		newWatchCmd(a),
		newHistoryCmd(a),
		newInspectCmd(a),
	)
	return root, nil
}
