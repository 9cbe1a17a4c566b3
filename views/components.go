package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/routeweb/gateway"
	"github.com/eringen/routeweb/mapview"
	"github.com/eringen/routeweb/pages"
)

// html accumulates the first write error so components can be written as a
// straight sequence of writes.
type html struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *html) render(c templ.Component) {
	if h.err == nil && c != nil {
		h.err = c.Render(h.ctx, h.w)
	}
}

func component(fn func(h *html)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{ctx: ctx, w: w}
		fn(h)
		return h.err
	})
}

func csrfField(h *html, token string) {
	h.raw(`<input type="hidden" name="_csrf" value="`)
	h.text(token)
	h.raw(`">`)
}

// Layout wraps body in the document shell with header and footer.
func Layout(p Page, body templ.Component) templ.Component {
	return component(func(h *html) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(PageTitle(p))
		h.raw(`</title>`)
		if p.Meta.Description != "" {
			h.raw(`<meta name="description" content="`)
			h.text(p.Meta.Description)
			h.raw(`">`)
		}
		if p.Meta.URL != "" {
			h.raw(`<link rel="canonical" href="`)
			h.text(p.Meta.URL)
			h.raw(`">`)
		}
		h.raw(`<link rel="stylesheet" href="/public/app.css">`)
		h.raw(`<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">`)
		h.raw(`</head><body>`)
		h.render(Header(p))
		h.raw(`<main class="main">`)
		h.render(body)
		h.raw(`</main>`)
		h.render(Footer(p.Site))
		h.raw(`</body></html>`)
	})
}

// Header is the top bar with navigation and the sign-in state.
func Header(p Page) templ.Component {
	return component(func(h *html) {
		h.raw(`<header class="header"><div class="container header-row"><div><a class="brand" href="/">`)
		h.text(p.Site.Name)
		h.raw(`</a>`)
		if p.Site.Tagline != "" {
			h.raw(`<p class="tagline">`)
			h.text(p.Site.Tagline)
			h.raw(`</p>`)
		}
		h.raw(`</div><nav class="nav">`)
		switch {
		case p.Identity.LoggedIn:
			if p.Identity.Role == gateway.RoleAdmin {
				h.raw(`<a href="/admin/">Admin</a>`)
			}
			if p.Identity.Role == gateway.RoleUser {
				h.raw(`<a href="/user/">Dashboard</a>`)
			}
			h.raw(`<span class="who">`)
			h.text(p.Identity.Username)
			h.raw(`</span><form method="post" action="/auth/logout" class="inline">`)
			csrfField(h, p.CSRF)
			h.raw(`<button type="submit" class="link">Logout</button></form>`)
		default:
			h.raw(`<a href="/auth/?mode=login">Login</a><a href="/auth/?mode=register">Register</a>`)
		}
		h.raw(`</nav></div></header>`)
	})
}

// Footer is the page footer.
func Footer(site SiteConfig) templ.Component {
	return component(func(h *html) {
		h.raw(`<footer class="footer"><div class="container"><p>&copy; `)
		h.text(site.Name)
		h.raw(`. Routes computed by the route-planning service.</p></div></footer>`)
	})
}

// ErrorBanner shows msg with a dismiss control. Empty msg renders nothing.
func ErrorBanner(msg, dismissURL string) templ.Component {
	return component(func(h *html) {
		if msg == "" {
			return
		}
		h.raw(`<div class="alert" role="alert"><div class="alert-body"><h3>Error</h3><p>`)
		h.text(msg)
		h.raw(`</p></div>`)
		if dismissURL != "" {
			h.raw(`<a class="alert-close" href="`)
			h.text(dismissURL)
			h.raw(`" aria-label="Dismiss">&times;</a>`)
		}
		h.raw(`</div>`)
	})
}

var routeTypeOptions = []string{
	"",
	gateway.RouteShortest,
	gateway.RouteCostEfficient,
	gateway.RouteFuelEfficient,
	gateway.RouteGreen,
	gateway.RouteTrafficFree,
}

var vehicleOptions = []string{gateway.VehicleCar, gateway.VehicleBike, gateway.VehicleTruck}

func option(h *html, value, label, selected string) {
	h.raw(`<option value="`)
	h.text(value)
	h.raw(`"`)
	if value == selected {
		h.raw(` selected`)
	}
	h.raw(`>`)
	h.text(label)
	h.raw(`</option>`)
}

// SearchForm is the origin/destination form. The submit button is disabled
// while a search is in flight.
func SearchForm(in pages.SearchInput, loading bool, csrf string) templ.Component {
	return component(func(h *html) {
		h.raw(`<form class="card search" method="post" action="/route">`)
		csrfField(h, csrf)
		h.raw(`<label for="origin">Origin</label><input id="origin" name="origin" type="text" placeholder="Enter origin location (e.g., Gandhipuram, Coimbatore)" value="`)
		h.text(in.Origin)
		h.raw(`"><label for="destination">Destination</label><input id="destination" name="destination" type="text" placeholder="Enter destination location (e.g., Prozone Mall, Coimbatore)" value="`)
		h.text(in.Destination)
		h.raw(`"><div class="row"><div><label for="route_type">Route type</label><select id="route_type" name="route_type">`)
		for _, rt := range routeTypeOptions {
			label := "Default"
			if rt != "" {
				label = RouteTypeLabel(rt)
			}
			option(h, rt, label, in.RouteType)
		}
		h.raw(`</select></div><div><label for="vehicle_type">Vehicle</label><select id="vehicle_type" name="vehicle_type">`)
		selected := in.VehicleType
		if selected == "" {
			selected = gateway.VehicleCar
		}
		for _, vt := range vehicleOptions {
			option(h, vt, VehicleLabel(vt), selected)
		}
		h.raw(`</select></div></div><button type="submit" class="primary"`)
		if loading {
			h.raw(` disabled>Calculating...`)
		} else {
			h.raw(`>Find Route`)
		}
		h.raw(`</button></form>`)
	})
}

// RouteMap is the Leaflet map. The model travels as JSON and is drawn by
// /public/map.js.
func RouteMap(m mapview.Model) templ.Component {
	return component(func(h *html) {
		h.raw(`<div class="card map-card"><div id="map" class="map"></div>`)
		h.raw(`<script type="application/json" id="route-data">`)
		h.raw(MapJSON(m))
		h.raw(`</script>`)
		h.raw(`<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>`)
		h.raw(`<script src="/public/map.js"></script>`)
		if !m.Empty() {
			h.raw(`<noscript><img src="/route/preview.png" alt="Route preview" width="640" height="480"></noscript>`)
		}
		h.raw(`</div>`)
	})
}

func detailRow(h *html, label, value string) {
	h.raw(`<div class="detail"><span class="muted">`)
	h.text(label)
	h.raw(`</span><span>`)
	h.text(value)
	h.raw(`</span></div>`)
}

// RouteDetails summarises a calculated route.
func RouteDetails(r *gateway.RouteResult) templ.Component {
	return component(func(h *html) {
		if r == nil {
			h.raw(`<div class="card empty"><p>Search for a route to see details here</p></div>`)
			return
		}
		h.raw(`<div class="card details"><h2>Route Details</h2><div class="stats">`)
		h.raw(`<div class="stat stat-blue"><span class="muted">Distance</span><p class="big">`)
		h.text(Number(r.DistanceKM))
		h.raw(` <small>km</small></p><p class="muted">`)
		h.text(Grouped(r.DistanceM))
		h.raw(` meters</p></div>`)
		h.raw(`<div class="stat stat-green"><span class="muted">Calculation Time</span><p class="big">`)
		h.text(Number(r.CalculationTimeS))
		h.raw(` <small>s</small></p><p class="muted">seconds</p></div>`)
		h.raw(`<div class="stat stat-purple"><span class="muted">Path Nodes</span><p class="big">`)
		h.text(strconv.Itoa(r.PathNodes))
		h.raw(`</p><p class="muted">intersection points</p></div></div>`)

		h.raw(`<h3>Route Summary</h3>`)
		detailRow(h, "From:", r.Origin.Name)
		detailRow(h, "To:", r.Destination.Name)
		detailRow(h, "Coordinates:", CoordLabel(r.Origin.Lat, r.Origin.Lon)+" → "+CoordLabel(r.Destination.Lat, r.Destination.Lon))

		h.raw(`<h4>Advanced Route Features</h4>`)
		detailRow(h, "Route Type:", RouteTypeLabel(r.RouteType))
		detailRow(h, "Vehicle Type:", VehicleLabel(r.VehicleType))
		detailRow(h, "Estimated Travel Time:", Number(r.EstimatedTimeMin)+" min")
		detailRow(h, "Best Hour (Least Traffic):", BestHourLabel(r.BestHour))
		detailRow(h, "Best Time (min):", Number(r.BestTimeMin)+" min")
		detailRow(h, "Traffic Prediction:", TrafficLabel(r.TrafficPrediction))
		h.raw(`</div>`)
	})
}

// HomePage is the search page.
func HomePage(p Page, v pages.HomeView, m mapview.Model) templ.Component {
	body := component(func(h *html) {
		h.raw(`<div class="container">`)
		h.render(SearchForm(v.SearchInput, v.Loading, p.CSRF))
		h.render(ErrorBanner(v.Error, "/?dismiss=1"))
		if v.Replayed {
			h.raw(`<p class="notice">Showing a route from your search history.</p>`)
		}
		if v.Cached {
			h.raw(`<p class="notice">Reused from your search history.</p>`)
		}
		h.raw(`<div class="grid"><div class="grid-main">`)
		h.render(RouteMap(m))
		h.raw(`</div><div class="grid-side">`)
		h.render(RouteDetails(v.Route))
		h.raw(`</div></div></div>`)
	})
	return Layout(p, body)
}

func countList[T any](h *html, title string, rows []T, label func(T) string, count func(T) int) {
	h.raw(`<div class="card"><h3>`)
	h.text(title)
	h.raw(`</h3><ul class="counts">`)
	for _, r := range rows {
		h.raw(`<li><span>`)
		h.text(label(r))
		h.raw(`</span><span class="muted">`)
		h.text(strconv.Itoa(count(r)))
		h.raw(`</span></li>`)
	}
	h.raw(`</ul></div>`)
}

// AdminDashboard renders the statistics page. While loading or on error no
// totals are shown.
func AdminDashboard(p Page, v pages.AdminView) templ.Component {
	body := component(func(h *html) {
		h.raw(`<div class="container">`)
		switch {
		case v.Loading:
			h.raw(`<p>Loading stats...</p>`)
		case v.Error != "":
			h.raw(`<p class="error">`)
			h.text(v.Error)
			h.raw(`</p>`)
		case v.Stats != nil:
			s := v.Stats
			h.raw(`<h2>Admin Dashboard</h2><div class="stats">`)
			h.raw(`<div class="card stat"><span class="muted">Total Searches</span><p class="big">`)
			h.text(strconv.Itoa(s.Totals.Searches))
			h.raw(`</p></div><div class="card stat"><span class="muted">Unique Users</span><p class="big">`)
			h.text(strconv.Itoa(s.Totals.UniqueUsers))
			h.raw(`</p></div><div class="card stat"><span class="muted">Route Types</span><p class="big">`)
			h.text(strconv.Itoa(len(s.TopRouteTypes)))
			h.raw(`</p></div></div><div class="pair">`)
			countList(h, "Top Origins", s.TopOrigins,
				func(o gateway.OriginCount) string { return o.Origin },
				func(o gateway.OriginCount) int { return o.Count })
			countList(h, "Top Destinations", s.TopDestinations,
				func(d gateway.DestinationCount) string { return d.Destination },
				func(d gateway.DestinationCount) int { return d.Count })
			h.raw(`</div>`)
			countList(h, "Top Route Types", s.TopRouteTypes,
				func(rt gateway.RouteTypeCount) string { return rt.RouteType },
				func(rt gateway.RouteTypeCount) int { return rt.Count })
			countList(h, "Most Frequent Routes (Origin → Destination)", s.TopPairs,
				func(pc gateway.PairCount) string { return pc.Origin + " → " + pc.Destination },
				func(pc gateway.PairCount) int { return pc.Count })
			h.raw(`<div class="card"><h3>Hourly Distribution</h3><div class="hours">`)
			for _, b := range FillHourly(s.HourlyDistribution) {
				h.raw(`<div class="hour" title="`)
				h.text(strconv.Itoa(b.Count))
				h.raw(`"><div class="bar" style="height:`)
				h.text(strconv.Itoa(b.Height))
				h.raw(`px"></div><span>`)
				h.text(strconv.Itoa(b.Hour))
				h.raw(`</span></div>`)
			}
			h.raw(`</div></div>`)
		}
		h.raw(`</div>`)
	})
	return Layout(p, body)
}

func userTab(h *html, tab, label, active string) {
	h.raw(`<a class="`)
	h.text(TabClass(tab == active))
	h.raw(`" href="/user/?tab=`)
	h.text(tab)
	h.raw(`">`)
	h.text(label)
	h.raw(`</a>`)
}

// UserDashboard renders the signed-in user's page.
func UserDashboard(p Page, v pages.UserView) templ.Component {
	body := component(func(h *html) {
		h.raw(`<div class="container"><h2>User Dashboard</h2><div class="tabs">`)
		userTab(h, pages.TabHistory, "Search History", v.Tab)
		userTab(h, pages.TabFeatures, "Advanced Features", v.Tab)
		userTab(h, pages.TabSettings, "Settings", v.Tab)
		h.raw(`</div>`)
		if v.Error != "" {
			h.raw(`<p class="error">`)
			h.text(v.Error)
			h.raw(`</p>`)
		}
		switch v.Tab {
		case pages.TabFeatures:
			h.raw(`<div class="card"><h3>Available Features</h3><ul class="bullets">`)
			h.raw(`<li>Cost-efficient, fuel-efficient, green, traffic-free routing</li>`)
			h.raw(`<li>Vehicle-specific travel times (car, bike, truck)</li>`)
			h.raw(`<li>Traffic prediction and best hour recommendation</li>`)
			h.raw(`<li>Map auto-fit to route bounds and India default</li>`)
			h.raw(`<li>Search history caching with instant reuse</li>`)
			h.raw(`</ul></div>`)
		case pages.TabSettings:
			h.raw(`<div class="card"><h3>Account Settings</h3><p class="muted">Signed in as `)
			h.text(p.Identity.Username)
			h.raw(`.</p></div>`)
		default:
			historyTable(h, p, v)
		}
		h.raw(`</div>`)
	})
	return Layout(p, body)
}

func historyTable(h *html, p Page, v pages.UserView) {
	h.raw(`<div class="card">`)
	if v.Loading {
		h.raw(`<div>Loading...</div></div>`)
		return
	}
	h.raw(`<table class="table"><thead><tr><th>Origin</th><th>Destination</th><th>Route Type</th><th>Vehicle</th><th>Distance (km)</th><th>Time (min)</th><th>Action</th></tr></thead><tbody>`)
	for _, it := range v.Items {
		h.raw(`<tr><td>`)
		h.text(it.Origin)
		h.raw(`</td><td>`)
		h.text(it.Destination)
		h.raw(`</td><td>`)
		h.text(it.RouteType)
		h.raw(`</td><td>`)
		h.text(it.VehicleType)
		h.raw(`</td><td>`)
		h.text(HistoryKM(it.DistanceM))
		h.raw(`</td><td>`)
		h.text(RoundMinutes(it.EstimatedTimeMin))
		h.raw(`</td><td><form method="post" action="/user/history/`)
		h.text(strconv.FormatInt(it.ID, 10))
		h.raw(`/map">`)
		csrfField(h, p.CSRF)
		h.raw(`<button type="submit" class="primary small">View on Map</button></form></td></tr>`)
	}
	h.raw(`</tbody></table>`)
	if v.Page > 1 || v.HasNext() {
		h.raw(`<div class="pager">`)
		if v.Page > 1 {
			h.raw(`<a href="/user/?tab=history&amp;page=`)
			h.text(strconv.Itoa(v.Page - 1))
			h.raw(`">Previous</a>`)
		}
		if v.HasNext() {
			h.raw(`<a href="/user/?tab=history&amp;page=`)
			h.text(strconv.Itoa(v.Page + 1))
			h.raw(`">Next</a>`)
		}
		h.raw(`</div>`)
	}
	h.raw(`</div>`)
}

// AuthModal is the login/register dialog. Both forms share the error line.
func AuthModal(p Page, v pages.AuthView) templ.Component {
	return component(func(h *html) {
		if !v.Open {
			return
		}
		h.raw(`<div class="overlay"><div class="modal"><div class="modal-head"><div class="tabs">`)
		h.raw(`<a class="`)
		h.text(TabClass(v.Mode == pages.ModeLogin))
		h.raw(`" href="/auth/?mode=login">Login</a><a class="`)
		h.text(TabClass(v.Mode == pages.ModeRegister))
		h.raw(`" href="/auth/?mode=register">Register</a></div><a class="close" href="/auth/?close=1" aria-label="Close">&times;</a></div><div class="modal-body">`)
		if v.Registered {
			h.raw(`<p class="notice">Registration complete. You can log in now.</p>`)
		}
		action, submit, busy := "/auth/login", "Login", "Logging in..."
		if v.Mode == pages.ModeRegister {
			action, submit, busy = "/auth/register", "Register", "Registering..."
		}
		h.raw(`<form method="post" action="`)
		h.raw(action)
		h.raw(`">`)
		csrfField(h, p.CSRF)
		h.raw(`<input type="text" name="username" placeholder="Username" value="`)
		h.text(v.Username)
		h.raw(`"><input type="password" name="password" placeholder="Password">`)
		if v.Mode == pages.ModeRegister {
			h.raw(`<select name="role">`)
			option(h, gateway.RoleUser, "User", v.Role)
			option(h, gateway.RoleAdmin, "Admin", v.Role)
			h.raw(`</select>`)
		}
		if v.Error != "" {
			h.raw(`<div class="error">`)
			h.text(v.Error)
			h.raw(`</div>`)
		}
		h.raw(`<button type="submit" class="primary"`)
		if v.Loading {
			h.raw(` disabled>`)
			h.text(busy)
		} else {
			h.raw(`>`)
			h.text(submit)
		}
		h.raw(`</button></form></div></div></div>`)
	})
}

// AuthPage shows the auth modal over the home page.
func AuthPage(p Page, v pages.AuthView, home pages.HomeView, m mapview.Model) templ.Component {
	body := component(func(h *html) {
		h.raw(`<div class="container">`)
		h.render(SearchForm(home.SearchInput, home.Loading, p.CSRF))
		h.raw(`<div class="grid"><div class="grid-main">`)
		h.render(RouteMap(m))
		h.raw(`</div><div class="grid-side">`)
		h.render(RouteDetails(home.Route))
		h.raw(`</div></div></div>`)
		h.render(AuthModal(p, v))
	})
	return Layout(p, body)
}

// NotFound is the 404 page.
func NotFound(p Page) templ.Component {
	return Layout(p, component(func(h *html) {
		h.raw(`<div class="container center"><h2>Page not found</h2><p><a href="/">Back to the map</a></p></div>`)
	}))
}

// ServerError is the 500 page.
func ServerError(p Page) templ.Component {
	return Layout(p, component(func(h *html) {
		h.raw(`<div class="container center"><h2>Something went wrong</h2><p><a href="/">Back to the map</a></p></div>`)
	}))
}
