package pages

import (
	"context"
	"strings"
	"sync"

	"github.com/eringen/routeweb/gateway"
	"github.com/eringen/routeweb/replay"
	"github.com/eringen/routeweb/session"
)

const (
	msgMissingEndpoints = "Please enter both origin and destination"
	msgRouteFailed      = "An error occurred while calculating the route"
)

// SearchInput is the submitted search form.
type SearchInput struct {
	Origin      string
	Destination string
	RouteType   string
	VehicleType string
}

// HomeView is a snapshot of the Home page.
type HomeView struct {
	SearchInput
	Loading bool
	Error   string
	Route   *gateway.RouteResult
	// Replayed is set when Route was handed over from the history page.
	Replayed bool
	// Cached is set when Route came from the user's search history.
	Cached bool
}

// HomeDeps wires a Home controller.
type HomeDeps struct {
	Tab     string
	Routes  RoutePlanner
	History RouteHistory
	Slot    replay.Slot
	Session *session.Store
	// PreferCached tries the signed-in user's history before calculating.
	PreferCached bool
}

// Home is the search page.
type Home struct {
	lifecycle
	deps HomeDeps

	mu    sync.Mutex
	state HomeView
}

func NewHome(deps HomeDeps) *Home {
	return &Home{deps: deps}
}

// View returns a copy of the current state.
func (h *Home) View() HomeView {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Mount shows the page with fresh state and adopts a route waiting in the
// replay slot, if any.
func (h *Home) Mount(ctx context.Context) error {
	gen := h.mount()
	h.mu.Lock()
	h.state = HomeView{}
	h.mu.Unlock()

	route, ok, err := h.deps.Slot.Consume(ctx, h.deps.Tab)
	if err != nil || !ok {
		return err
	}
	if !h.current(gen) {
		return ErrUnmounted
	}
	h.mu.Lock()
	h.state.Route = route
	h.state.Replayed = true
	h.state.Origin = route.Origin.Name
	h.state.Destination = route.Destination.Name
	h.state.RouteType = route.RouteType
	h.state.VehicleType = route.VehicleType
	h.mu.Unlock()
	return nil
}

// Search validates in and asks the backend for a route. The page keeps the
// previous route when the search fails.
func (h *Home) Search(ctx context.Context, in SearchInput) error {
	gen := h.generation()
	origin := strings.TrimSpace(in.Origin)
	destination := strings.TrimSpace(in.Destination)

	h.mu.Lock()
	if h.state.Loading {
		h.mu.Unlock()
		return ErrBusy
	}
	h.state.SearchInput = in
	if origin == "" || destination == "" {
		h.state.Error = msgMissingEndpoints
		h.mu.Unlock()
		return ErrInvalid
	}
	h.state.Loading = true
	h.state.Error = ""
	h.mu.Unlock()

	defer h.release(gen)

	req := gateway.RouteRequest{
		Origin:      origin,
		Destination: destination,
		RouteType:   in.RouteType,
		VehicleType: in.VehicleType,
	}

	route, cached := h.fromHistory(ctx, req)
	if route == nil {
		var err error
		route, err = h.deps.Routes.CalculateRoute(ctx, req)
		if err != nil {
			if !h.current(gen) {
				return ErrUnmounted
			}
			h.mu.Lock()
			h.state.Error = gateway.Message(err, msgRouteFailed)
			h.mu.Unlock()
			return err
		}
	}

	if !h.current(gen) {
		return ErrUnmounted
	}
	h.mu.Lock()
	h.state.Route = route
	h.state.Cached = cached
	h.state.Replayed = false
	h.mu.Unlock()
	return nil
}

// fromHistory returns a previous result for req when cached routes are
// enabled and the tab is signed in. Misses and errors fall through.
func (h *Home) fromHistory(ctx context.Context, req gateway.RouteRequest) (*gateway.RouteResult, bool) {
	if !h.deps.PreferCached || h.deps.History == nil || h.deps.Session == nil {
		return nil, false
	}
	if !h.deps.Session.Snapshot().LoggedIn() {
		return nil, false
	}
	route, ok, err := h.deps.History.QueryCached(ctx, gateway.CachedQuery{
		Origin:      req.Origin,
		Destination: req.Destination,
		RouteType:   req.RouteType,
		VehicleType: req.VehicleType,
	})
	if err != nil || !ok {
		return nil, false
	}
	return route, true
}

// DismissError clears the error banner.
func (h *Home) DismissError() {
	h.mu.Lock()
	h.state.Error = ""
	h.mu.Unlock()
}

func (h *Home) release(gen uint64) {
	if h.generation() != gen {
		return
	}
	h.mu.Lock()
	h.state.Loading = false
	h.mu.Unlock()
}
