package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/eringen/routeweb/gateway"
	"github.com/eringen/routeweb/replay"
)

type fakeTabs struct {
	seen map[string]time.Time
}

func (f *fakeTabs) EvictIdle(cutoff time.Time) []string {
	var ids []string
	for id, t := range f.seen {
		if t.Before(cutoff) {
			delete(f.seen, id)
			ids = append(ids, id)
		}
	}
	return ids
}

func (f *fakeTabs) Live(id string) bool {
	_, ok := f.seen[id]
	return ok
}

func TestSweepEvictsAndPurges(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	tabs := &fakeTabs{seen: map[string]time.Time{
		"fresh": now.Add(-time.Minute),
		"stale": now.Add(-13 * time.Hour),
	}}
	slot := replay.NewMemoryStore()
	ctx := context.Background()
	route := &gateway.RouteResult{Success: true}
	slot.Publish(ctx, "fresh", route)
	slot.Publish(ctx, "stale", route)
	slot.Publish(ctx, "orphan", route)

	s := NewScheduler("", tabs, slot, 12*time.Hour)
	s.now = func() time.Time { return now }

	evicted, purged := s.Sweep(ctx)
	if evicted != 1 {
		t.Errorf("evicted = %d, want 1", evicted)
	}
	if purged != 2 {
		t.Errorf("purged = %d, want 2", purged)
	}
	if _, ok, _ := slot.Consume(ctx, "fresh"); !ok {
		t.Errorf("fresh tab lost its slot")
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler("not a schedule", &fakeTabs{}, replay.NewMemoryStore(), time.Hour)
	if err := s.Start(context.Background()); err == nil {
		t.Fatalf("expected error for invalid schedule")
	}
}

func TestStartStop(t *testing.T) {
	s := NewScheduler("@every 1h", &fakeTabs{seen: map[string]time.Time{}}, replay.NewMemoryStore(), time.Hour)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s.Stop()
}
