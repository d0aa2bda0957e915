package icron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Parser accepts standard five-field expressions, an optional leading
// seconds field and descriptors such as "@hourly".
var Parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour |
	cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

type TriggerInfo struct {
	Expression string
	Next       time.Time
	Last       time.Time

	TimeSinceLast time.Duration
	TimeUntilNext time.Duration
}

// Validate reports whether expr parses.
func Validate(expr string) error {
	if _, err := Parser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// GetTriggerInfo returns the activations of expr around refTime. Last is
// searched hour by hour for up to a year back and stays zero when none is
// found.
func GetTriggerInfo(expr string, refTime time.Time) (*TriggerInfo, error) {
	schedule, err := Parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	info := &TriggerInfo{
		Expression: expr,
		Next:       schedule.Next(refTime),
	}
	info.TimeUntilNext = info.Next.Sub(refTime)

	for hours := 1; hours <= 366*24; hours++ {
		from := refTime.Add(-time.Duration(hours) * time.Hour)
		candidate := schedule.Next(from)
		if candidate.After(refTime) {
			continue
		}
		// Walk forward to the activation closest to refTime.
		for {
			next := schedule.Next(candidate)
			if next.After(refTime) {
				break
			}
			candidate = next
		}
		info.Last = candidate
		info.TimeSinceLast = refTime.Sub(candidate)
		break
	}
	return info, nil
}
