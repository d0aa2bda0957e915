package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/comic-packer/internal/batch"
	"github.com/MimeLyc/comic-packer/pkg/icron"
)

type fakeRunner struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error
}

func (f *fakeRunner) ConvertAll(_ context.Context, inputDir string) (batch.Result, error) {
	n := f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return batch.Result{BatchID: inputDir, Processed: int(n)}, f.err
}

func TestRunOnce(t *testing.T) {
	runner := &fakeRunner{}
	svc := NewWatchService(runner, "/in", "@hourly", nil)

	var seen []batch.Result
	svc.OnResult = func(r batch.Result, err error) { seen = append(seen, r) }

	r, shared, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, shared)
	assert.Equal(t, "/in", r.BatchID)

	_, _, err = svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), runner.calls.Load())
	assert.Len(t, seen, 2)
}

func TestRunOnce_PropagatesError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("input gone")}
	svc := NewWatchService(runner, "/in", "@hourly", nil)

	_, _, err := svc.RunOnce(context.Background())
	assert.EqualError(t, err, "input gone")
}

func TestRunOnce_OverlappingTriggersShareRun(t *testing.T) {
	runner := &fakeRunner{started: make(chan struct{}, 1), release: make(chan struct{})}
	svc := NewWatchService(runner, "/in", "@hourly", nil)

	var wg sync.WaitGroup
	results := make([]bool, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, results[0], _ = svc.RunOnce(context.Background())
	}()
	<-runner.started

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, results[1], _ = svc.RunOnce(context.Background())
	}()
	time.Sleep(100 * time.Millisecond)
	close(runner.release)
	wg.Wait()

	assert.Equal(t, int32(1), runner.calls.Load())
	assert.True(t, results[1])
}

func TestSchedule_InvalidExpression(t *testing.T) {
	svc := NewWatchService(&fakeRunner{}, "/in", "whenever", nil)
	assert.Error(t, svc.Schedule(context.Background()))
}

func TestRun_StopsOnCancel(t *testing.T) {
	runner := &fakeRunner{}
	c := cron.New(cron.WithParser(icron.Parser))
	svc := NewWatchService(runner, "/in", "@every 1s", c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool { return runner.calls.Load() > 0 }, 3*time.Second, 20*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Len(t, c.Entries(), 1)
}
