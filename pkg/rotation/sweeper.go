// Package rotation periodically reports stored secret versions whose
// advisory rotation time has passed.
//
// The sweeper only observes: it logs and audits due rotations and never
// rejects, expires or rewrites anything. Rotation schedules are advisory
// throughout the system.
package rotation

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/keysafehq/keysafe/pkg/audit"
)

// DefaultSchedule is the cron schedule used when none is configured.
const DefaultSchedule = "@hourly"

// Due describes one secret version past its advisory rotation time.
type Due struct {
	Path         string
	NextRotation time.Time
}

// Source lists secret versions due for rotation as of a point in time.
type Source interface {
	DueForRotation(ctx context.Context, now time.Time) ([]Due, error)
}

// Sweeper runs a periodic advisory rotation sweep.
type Sweeper struct {
	source   Source
	schedule string
	cron     *cron.Cron
	now      func() time.Time
}

// NewSweeper creates a sweeper over the given source. An empty schedule
// falls back to DefaultSchedule.
func NewSweeper(source Source, schedule string) *Sweeper {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Sweeper{
		source:   source,
		schedule: schedule,
		now:      time.Now,
	}
}

// Start begins sweeping on the configured cron schedule.
func (s *Sweeper) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.Sweep(context.Background()); err != nil {
			log.Printf("Rotation sweep failed: %v", err)
		}
	}); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the schedule. Does not interrupt a sweep in progress.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Sweep runs one sweep immediately, reporting every due secret version.
func (s *Sweeper) Sweep(ctx context.Context) error {
	due, err := s.source.DueForRotation(ctx, s.now())
	if err != nil {
		return err
	}

	for _, d := range due {
		log.Printf("Secret %s is past its advisory rotation time (%s)", d.Path, d.NextRotation.UTC().Format(time.RFC3339))
		audit.Log(audit.RotationDueEvent{
			Path:         d.Path,
			NextRotation: d.NextRotation,
		})
	}

	return nil
}
