// Package service runs batch conversions on a cron schedule.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/MimeLyc/comic-packer/internal/batch"
	"github.com/MimeLyc/comic-packer/pkg/icron"
	"github.com/MimeLyc/comic-packer/pkg/log"
)

// Runner converts every item of a directory.
type Runner interface {
	ConvertAll(ctx context.Context, inputDir string) (batch.Result, error)
}

type WatchService struct {
	runner   Runner
	inputDir string
	cronExpr string
	cron     *cron.Cron

	group singleflight.Group
	// OnResult, when set, is called after every run that was not shared
	// with an overlapping trigger.
	OnResult func(batch.Result, error)
}

func NewWatchService(runner Runner, inputDir, cronExpr string, c *cron.Cron) *WatchService {
	if c == nil {
		c = cron.New(cron.WithParser(icron.Parser))
	}
	return &WatchService{
		runner:   runner,
		inputDir: inputDir,
		cronExpr: cronExpr,
		cron:     c,
	}
}

// Schedule registers the periodic run without starting the scheduler.
func (s *WatchService) Schedule(ctx context.Context) error {
	info, err := icron.GetTriggerInfo(s.cronExpr, time.Now())
	if err != nil {
		return err
	}
	log.Info("Watching %s with schedule %q, next run at %s",
		s.inputDir, s.cronExpr, info.Next.Format(time.DateTime))

	if _, err := s.cron.AddFunc(s.cronExpr, func() {
		_, _, _ = s.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", s.cronExpr, err)
	}
	return nil
}

// RunOnce converts the input directory now. A trigger that arrives while a
// run is in progress joins it instead of starting another; shared reports
// that case.
func (s *WatchService) RunOnce(ctx context.Context) (result batch.Result, shared bool, err error) {
	v, err, shared := s.group.Do("run", func() (any, error) {
		log.Info("Scheduled run in %s", s.inputDir)
		r, err := s.runner.ConvertAll(ctx, s.inputDir)
		if err != nil {
			log.Error("Scheduled run in %s failed: %v", s.inputDir, err)
		}
		if s.OnResult != nil {
			s.OnResult(r, err)
		}
		return r, err
	})
	if r, ok := v.(batch.Result); ok {
		result = r
	}
	return result, shared, err
}

// Run schedules, starts the scheduler and blocks until ctx is done. A run
// in progress is allowed to finish before Run returns.
func (s *WatchService) Run(ctx context.Context) error {
	if err := s.Schedule(ctx); err != nil {
		return err
	}
	s.cron.Start()
	<-ctx.Done()

	log.Info("Stopping watch on %s", s.inputDir)
	<-s.cron.Stop().Done()
	return nil
}
