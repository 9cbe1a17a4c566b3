package pages

import (
	"context"
	"sync"

	"github.com/eringen/routeweb/gateway"
	"github.com/eringen/routeweb/replay"
)

// User dashboard tabs.
const (
	TabHistory  = "history"
	TabFeatures = "features"
	TabSettings = "settings"
)

// HistoryPageSize is the number of searches listed per page.
const HistoryPageSize = 50

// ValidTab reports whether tab names a dashboard tab.
func ValidTab(tab string) bool {
	switch tab {
	case TabHistory, TabFeatures, TabSettings:
		return true
	}
	return false
}

// UserView is a snapshot of the user dashboard.
type UserView struct {
	Tab      string
	Page     int
	Loading  bool
	Error    string
	Items    []gateway.HistoryItem
	Total    int
	PageSize int
}

// HasNext reports whether another history page exists.
func (v UserView) HasNext() bool {
	return v.Page*v.PageSize < v.Total
}

// UserDeps wires a User controller.
type UserDeps struct {
	Tab     string
	History RouteHistory
	Slot    replay.Slot
}

// User is the signed-in user's dashboard.
type User struct {
	lifecycle
	deps UserDeps

	mu    sync.Mutex
	state UserView
}

func NewUser(deps UserDeps) *User {
	return &User{deps: deps}
}

func (u *User) View() UserView {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Mount shows the dashboard on the history tab without loading anything yet.
func (u *User) Mount() {
	u.mount()
	u.mu.Lock()
	u.state = UserView{Tab: TabHistory, Page: 1, PageSize: HistoryPageSize}
	u.mu.Unlock()
}

// SelectTab switches tabs. Only the history tab talks to the backend.
func (u *User) SelectTab(ctx context.Context, tab string, page int) error {
	if !ValidTab(tab) {
		tab = TabHistory
	}
	if page < 1 {
		page = 1
	}
	gen := u.generation()

	u.mu.Lock()
	u.state.Tab = tab
	u.state.Error = ""
	if tab != TabHistory {
		u.mu.Unlock()
		return nil
	}
	if u.state.Loading {
		u.mu.Unlock()
		return ErrBusy
	}
	u.state.Page = page
	u.state.Loading = true
	u.mu.Unlock()

	defer u.release(gen)

	res, err := u.deps.History.History(ctx, page, HistoryPageSize)
	if !u.current(gen) {
		return ErrUnmounted
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if err != nil {
		u.state.Error = gateway.Message(err, "Failed to load history")
		return err
	}
	u.state.Items = res.Items
	u.state.Total = res.Total
	return nil
}

// ViewOnMap loads a past search, hands it to the home page through the replay
// slot and returns where the browser should go next.
func (u *User) ViewOnMap(ctx context.Context, id int64) (string, error) {
	gen := u.generation()
	route, err := u.deps.History.HistoryItem(ctx, id)
	if err != nil {
		u.fail(gen, gateway.Message(err, "Failed to open history item"))
		return "", err
	}
	if err := u.deps.Slot.Publish(ctx, u.deps.Tab, route); err != nil {
		u.fail(gen, "Could not open route on map")
		return "", err
	}
	return HomePath, nil
}

func (u *User) fail(gen uint64, msg string) {
	if !u.current(gen) {
		return
	}
	u.mu.Lock()
	u.state.Error = msg
	u.mu.Unlock()
}

func (u *User) release(gen uint64) {
	if u.generation() != gen {
		return
	}
	u.mu.Lock()
	u.state.Loading = false
	u.mu.Unlock()
}
