package routeweb

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eringen/routeweb/gateway"
	"github.com/eringen/routeweb/pages"
	"github.com/eringen/routeweb/session"
)

// unmounter is a page a tab can navigate away from.
type unmounter interface {
	Unmount()
}

// Tab is the server-side state of one browser session: its own backend
// cookie jar, identity and page controllers.
type Tab struct {
	ID      string
	Gateway *gateway.Gateway
	Session *session.Store

	Home  *pages.Home
	Admin *pages.Admin
	User  *pages.User
	Auth  *pages.Auth

	mu       sync.Mutex
	lastSeen time.Time
	active   unmounter
}

// navigate makes p the shown page, unmounting the previous one so its
// in-flight results are dropped.
func (t *Tab) navigate(p unmounter) {
	t.mu.Lock()
	prev := t.active
	t.active = p
	t.mu.Unlock()
	if prev != nil && prev != p {
		prev.Unmount()
	}
}

func (t *Tab) touch(now time.Time) {
	t.mu.Lock()
	t.lastSeen = now
	t.mu.Unlock()
}

func (t *Tab) seen() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSeen
}

// TabRegistry maps tab ids to their state.
type TabRegistry struct {
	mu    sync.Mutex
	tabs  map[string]*Tab
	build func(id string) (*Tab, error)
	now   func() time.Time
}

// NewTabRegistry returns a registry creating tabs with build.
func NewTabRegistry(build func(id string) (*Tab, error)) *TabRegistry {
	return &TabRegistry{
		tabs:  make(map[string]*Tab),
		build: build,
		now:   time.Now,
	}
}

// Open returns the tab for id, creating it on first use, and marks it seen.
func (r *TabRegistry) Open(id string) (*Tab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tabs[id]
	if !ok {
		var err error
		t, err = r.build(id)
		if err != nil {
			return nil, fmt.Errorf("routeweb: open tab: %w", err)
		}
		r.tabs[id] = t
	}
	t.touch(r.now())
	return t, nil
}

// Get returns the tab for id without creating it.
func (r *TabRegistry) Get(id string) (*Tab, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tabs[id]
	return t, ok
}

// Live reports whether id names a registered tab.
func (r *TabRegistry) Live(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// EvictIdle removes tabs last seen before cutoff and returns their ids.
func (r *TabRegistry) EvictIdle(cutoff time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, t := range r.tabs {
		if t.seen().Before(cutoff) {
			delete(r.tabs, id)
			ids = append(ids, id)
		}
	}
	return ids
}

// Len returns the number of registered tabs.
func (r *TabRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tabs)
}

// newTab builds a tab with its own gateway, so backend session cookies never
// leak between browsers.
func (a *App) newTab(id string) (*Tab, error) {
	log := a.Log.WithField("tab", id)
	gw, err := gateway.New(gateway.Config{
		BaseURL:   a.Config.APIURL,
		Timeout:   a.Config.APITimeout,
		Transport: a.transport,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}
	sess := session.New(gw.Auth)
	t := &Tab{
		ID:      id,
		Gateway: gw,
		Session: sess,
		Home: pages.NewHome(pages.HomeDeps{
			Tab:          id,
			Routes:       gw.Route,
			History:      gw.User,
			Slot:         a.Replay,
			Session:      sess,
			PreferCached: a.Config.PreferCachedRoutes,
		}),
		Admin: pages.NewAdmin(gw.Admin),
		User: pages.NewUser(pages.UserDeps{
			Tab:     id,
			History: gw.User,
			Slot:    a.Replay,
		}),
		Auth: pages.NewAuth(sess, gw.Auth),
	}
	sess.Subscribe(func(s session.Snapshot) {
		log.WithFields(logrus.Fields{
			"state":    s.State.String(),
			"username": s.Username,
			"role":     s.Role,
		}).Debug("session changed")
		if !s.LoggedIn() {
			t.Admin.Unmount()
			t.User.Unmount()
		}
	})
	return t, nil
}
