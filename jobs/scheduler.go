// Package jobs runs the periodic housekeeping of the web front end.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/eringen/routeweb/replay"
)

// DefaultSchedule runs housekeeping every ten minutes.
const DefaultSchedule = "@every 10m"

// Tabs is the part of the tab registry housekeeping needs.
type Tabs interface {
	// EvictIdle drops tabs not seen since before cutoff and returns their ids.
	EvictIdle(cutoff time.Time) []string
	Live(id string) bool
}

// Scheduler evicts idle tabs and purges replay slots nobody can consume.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	tabs     Tabs
	slot     replay.Slot
	idle     time.Duration
	now      func() time.Time
}

func NewScheduler(schedule string, tabs Tabs, slot replay.Slot, idle time.Duration) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Scheduler{
		cron:     cron.New(),
		schedule: schedule,
		tabs:     tabs,
		slot:     slot,
		idle:     idle,
		now:      time.Now,
	}
}

// Start registers the sweep and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.Sweep(ctx)
	}); err != nil {
		return fmt.Errorf("jobs: schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	log.WithField("schedule", s.schedule).Info("[CRON] housekeeping started")
	return nil
}

// Sweep runs one housekeeping pass.
func (s *Scheduler) Sweep(ctx context.Context) (evicted, purged int) {
	ids := s.tabs.EvictIdle(s.now().Add(-s.idle))
	evicted = len(ids)

	n, err := s.slot.Purge(ctx, s.tabs.Live)
	if err != nil {
		log.WithError(err).Error("[CRON] replay purge failed")
	}
	purged = n

	if evicted > 0 || purged > 0 {
		log.WithFields(log.Fields{
			"evicted_tabs": evicted,
			"purged_slots": purged,
		}).Info("[CRON] housekeeping")
	} else {
		log.Debug("[CRON] housekeeping: nothing to do")
	}
	return evicted, purged
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("[CRON] housekeeping stopped")
}
