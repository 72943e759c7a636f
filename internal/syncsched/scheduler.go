// Package syncsched drives periodic catalog refreshes in long-running
// sessions from a cron expression.
package syncsched

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"modelman/pkg/logger"
)

// Scheduler runs a refresh function on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
}

// New creates a scheduler invoking refresh per the cron expression.
func New(schedule string, refresh func()) (*Scheduler, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		log := logger.With("syncsched")
		log.Debug().Msg("Scheduled catalog refresh")
		refresh()
	})
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", schedule, err)
	}
	return &Scheduler{cron: c}, nil
}

// Start begins scheduling.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
