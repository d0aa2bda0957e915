package batch

import (
	"time"

	"github.com/MimeLyc/comic-packer/internal/packer"
)

type Status int

const (
	// StatusPending marks items never reached, e.g. after cancellation.
	StatusPending Status = iota
	StatusProcessed
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusProcessed:
		return "processed"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Outcome is what happened to one top-level input.
type Outcome struct {
	Path   string
	Status Status
	Output *packer.Output
	Err    error
}

// Result aggregates the outcomes of one run.
type Result struct {
	BatchID   string
	Processed int
	Errors    int
	Skipped   int
	Outcomes  []Outcome
	Duration  time.Duration
}

// HasErrors reports whether any item failed.
func (r Result) HasErrors() bool {
	return r.Errors > 0
}

func reduce(batchID string, outcomes []Outcome, started time.Time) Result {
	r := Result{BatchID: batchID, Duration: time.Since(started)}
	for _, o := range outcomes {
		switch o.Status {
		case StatusProcessed:
			r.Processed++
		case StatusFailed:
			r.Errors++
		case StatusSkipped:
			r.Skipped++
		default:
			continue
		}
		r.Outcomes = append(r.Outcomes, o)
	}
	return r
}
