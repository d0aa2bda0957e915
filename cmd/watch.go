package main

import (
	"github.com/spf13/cobra"

	"github.com/MimeLyc/comic-packer/internal/batch"
	"github.com/MimeLyc/comic-packer/internal/service"
	"github.com/MimeLyc/comic-packer/pkg/log"
)

func newWatchCmd(a *app) *cobra.Command {
	var runNow bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Convert the input directory on a cron schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			defer a.close()

			orch, err := a.orchestrator()
			if err != nil {
				return err
			}

			svc := service.NewWatchService(orch, a.cfg.InputPath, a.cfg.CronExpr, nil)
			svc.OnResult = func(r batch.Result, err error) {
				if err == nil {
					printSummary(a.stdout, r, a.cfg.OutputDir)
				}
			}
			if runNow {
				if _, _, err := svc.RunOnce(cmd.Context()); err != nil {
					log.Warn("Initial run failed: %v", err)
				}
			}
			return svc.Run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&a.cfg.InputPath, "inputpath", a.cfg.InputPath, "directory to watch")
	flags.StringVar(&a.cfg.CronExpr, "cron", a.cfg.CronExpr, "schedule, five-field cron or @every/@hourly descriptors")
	flags.BoolVar(&runNow, "now", false, "run once immediately before waiting for the schedule")
	return cmd
}
