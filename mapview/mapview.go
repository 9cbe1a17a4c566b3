// Package mapview turns a route into what the map needs to draw it.
package mapview

import "github.com/eringen/routeweb/gateway"

// Default regional view used when there is no route.
var (
	DefaultCenter = LatLng{20.5937, 78.9629}
	DefaultZoom   = 5
)

// routeZoom is the initial zoom with a route; the browser then fits bounds.
const routeZoom = 13

// LatLng is a [lat, lon] pair in the order Leaflet expects.
type LatLng [2]float64

func (p LatLng) Lat() float64 { return p[0] }
func (p LatLng) Lon() float64 { return p[1] }

// Marker kinds.
const (
	MarkerOrigin      = "origin"
	MarkerDestination = "destination"
)

type Marker struct {
	Kind     string `json:"kind"`
	Label    string `json:"label"`
	Position LatLng `json:"position"`
}

// Bounds is the smallest box containing every drawn point.
type Bounds struct {
	SouthWest LatLng `json:"southWest"`
	NorthEast LatLng `json:"northEast"`
}

// Contains reports whether p lies inside b.
func (b Bounds) Contains(p LatLng) bool {
	return p.Lat() >= b.SouthWest.Lat() && p.Lat() <= b.NorthEast.Lat() &&
		p.Lon() >= b.SouthWest.Lon() && p.Lon() <= b.NorthEast.Lon()
}

func (b Bounds) extend(p LatLng) Bounds {
	if p.Lat() < b.SouthWest[0] {
		b.SouthWest[0] = p.Lat()
	}
	if p.Lon() < b.SouthWest[1] {
		b.SouthWest[1] = p.Lon()
	}
	if p.Lat() > b.NorthEast[0] {
		b.NorthEast[0] = p.Lat()
	}
	if p.Lon() > b.NorthEast[1] {
		b.NorthEast[1] = p.Lon()
	}
	return b
}

// Model is the serialisable state of the map component.
type Model struct {
	Center    LatLng   `json:"center"`
	Zoom      int      `json:"zoom"`
	Markers   []Marker `json:"markers"`
	Polyline  []LatLng `json:"polyline"`
	Bounds    *Bounds  `json:"bounds,omitempty"`
	FitBounds bool     `json:"fitBounds"`
}

// Empty reports whether the model has nothing to draw.
func (m Model) Empty() bool {
	return len(m.Markers) == 0 && len(m.Polyline) == 0
}

// Build converts route into a Model. A nil or unsuccessful route yields the
// default regional view.
func Build(route *gateway.RouteResult) Model {
	if !route.Valid() {
		return Model{
			Center:   DefaultCenter,
			Zoom:     DefaultZoom,
			Markers:  []Marker{},
			Polyline: []LatLng{},
		}
	}

	origin := LatLng{route.Origin.Lat, route.Origin.Lon}
	dest := LatLng{route.Destination.Lat, route.Destination.Lon}

	m := Model{
		Center: LatLng{(origin.Lat() + dest.Lat()) / 2, (origin.Lon() + dest.Lon()) / 2},
		Zoom:   routeZoom,
		Markers: []Marker{
			{Kind: MarkerOrigin, Label: route.Origin.Name, Position: origin},
			{Kind: MarkerDestination, Label: route.Destination.Name, Position: dest},
		},
		Polyline:  make([]LatLng, len(route.PathCoordinates)),
		FitBounds: true,
	}
	for i, c := range route.PathCoordinates {
		m.Polyline[i] = LatLng{c.Lat, c.Lon}
	}

	b := Bounds{SouthWest: origin, NorthEast: origin}
	b = b.extend(dest)
	for _, p := range m.Polyline {
		b = b.extend(p)
	}
	m.Bounds = &b
	return m
}
