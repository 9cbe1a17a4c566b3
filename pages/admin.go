package pages

import (
	"context"
	"sync"

	"github.com/eringen/routeweb/gateway"
)

// AdminView is a snapshot of the admin dashboard.
type AdminView struct {
	Loading bool
	Error   string
	Stats   *gateway.AdminStats
}

// Admin is the statistics dashboard. It fetches once per mount and never
// refreshes on its own.
type Admin struct {
	lifecycle
	stats StatsSource

	mu    sync.Mutex
	state AdminView
}

func NewAdmin(stats StatsSource) *Admin {
	return &Admin{stats: stats}
}

func (a *Admin) View() AdminView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Mount shows the dashboard and loads the statistics. A failed load leaves
// no stats behind, only the error.
func (a *Admin) Mount(ctx context.Context) error {
	gen := a.mount()
	a.mu.Lock()
	a.state = AdminView{Loading: true}
	a.mu.Unlock()

	stats, err := a.stats.Stats(ctx)
	if !a.current(gen) {
		return ErrUnmounted
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Loading = false
	if err != nil {
		a.state.Stats = nil
		a.state.Error = gateway.Message(err, "Failed to load stats")
		return err
	}
	a.state.Stats = stats
	return nil
}
