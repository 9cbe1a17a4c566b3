// Package pages holds the per-tab page controllers. A controller owns the
// transient state of one page (form fields, loading flag, error slot, last
// result) and orchestrates the gateway calls behind it. Views render a copy
// of that state and never call the backend themselves.
package pages

import (
	"context"
	"errors"
	"sync"

	"github.com/eringen/routeweb/gateway"
)

var (
	// ErrBusy is returned when an action is triggered while the previous one
	// is still in flight.
	ErrBusy = errors.New("pages: request already in flight")
	// ErrUnmounted is returned when a result arrived for a page that has been
	// navigated away from; the result is dropped.
	ErrUnmounted = errors.New("pages: page no longer mounted")
	// ErrInvalid is returned for input rejected before any backend call.
	ErrInvalid = errors.New("pages: invalid input")
)

// HomePath is where ViewOnMap sends the browser.
const HomePath = "/"

// RoutePlanner calculates routes.
type RoutePlanner interface {
	CalculateRoute(ctx context.Context, req gateway.RouteRequest) (*gateway.RouteResult, error)
}

// RouteHistory is the user history namespace.
type RouteHistory interface {
	History(ctx context.Context, page, pageSize int) (*gateway.HistoryPage, error)
	HistoryItem(ctx context.Context, id int64) (*gateway.RouteResult, error)
	QueryCached(ctx context.Context, q gateway.CachedQuery) (*gateway.RouteResult, bool, error)
}

// StatsSource provides admin statistics.
type StatsSource interface {
	Stats(ctx context.Context) (*gateway.AdminStats, error)
}

// Registrar creates accounts.
type Registrar interface {
	Register(ctx context.Context, username, password, role string) error
}

// lifecycle tracks which mount of a page is current. Every mount and unmount
// bumps the generation, so work started under an older generation can tell
// that its page is gone.
type lifecycle struct {
	mu      sync.Mutex
	gen     uint64
	mounted bool
}

func (l *lifecycle) mount() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.mounted = true
	return l.gen
}

// Unmount marks the page as navigated away from.
func (l *lifecycle) Unmount() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.mounted = false
}

// Mounted reports whether the page is currently shown.
func (l *lifecycle) Mounted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mounted
}

func (l *lifecycle) current(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mounted && l.gen == gen
}

func (l *lifecycle) generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}
