package worker

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/raoulx24/recpush/internal/config"
)

// Scheduler decides when the next recording starts: on the next cron tick
// when a schedule is configured, otherwise a fixed hold after the last one.
type Scheduler struct {
	sched cron.Schedule
	hold  time.Duration
}

func NewScheduler(cfg config.CaptureConfig) (*Scheduler, error) {
	s := &Scheduler{hold: cfg.Hold}
	if cfg.Schedule != "" {
		sched, err := cron.ParseStandard(cfg.Schedule)
		if err != nil {
			return nil, err
		}
		s.sched = sched
	}
	return s, nil
}

// Next returns the start time of the recording after one that finished at t.
func (s *Scheduler) Next(t time.Time) time.Time {
	if s.sched != nil {
		return s.sched.Next(t)
	}
	return t.Add(s.hold)
}
