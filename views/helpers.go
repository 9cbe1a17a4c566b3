package views

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/eringen/routeweb/gateway"
	"github.com/eringen/routeweb/mapview"
)

// CanonicalURL joins path segments onto a base URL, ensuring a trailing slash.
func CanonicalURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// RouteTypeLabel turns "cost_efficient" into "cost efficient". Empty means
// the backend used its default.
func RouteTypeLabel(rt string) string {
	if rt == "" {
		return "Shortest"
	}
	return strings.ReplaceAll(rt, "_", " ")
}

// VehicleLabel capitalises the vehicle type, defaulting to "Car".
func VehicleLabel(vt string) string {
	if vt == "" {
		return "Car"
	}
	return strings.ToUpper(vt[:1]) + vt[1:]
}

// BestHourLabel formats an hour of day as "H:00".
func BestHourLabel(h int) string {
	return strconv.Itoa(h) + ":00"
}

// TrafficLabel lists predictions with two decimals, or "N/A".
func TrafficLabel(pred []float64) string {
	if len(pred) == 0 {
		return "N/A"
	}
	parts := make([]string, len(pred))
	for i, v := range pred {
		parts[i] = strconv.FormatFloat(v, 'f', 2, 64)
	}
	return strings.Join(parts, ", ")
}

// CoordLabel formats a point as "(lat, lon)" with four decimals.
func CoordLabel(lat, lon float64) string {
	return fmt.Sprintf("(%.4f, %.4f)", lat, lon)
}

// Number prints v without trailing zeros.
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Grouped prints v with thousands separators and at most three decimals.
func Grouped(v float64) string {
	s := strconv.FormatFloat(math.Abs(v), 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 && len(s)-i-1 > 3 {
		s = strconv.FormatFloat(math.Abs(v), 'f', 3, 64)
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if v < 0 {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

// HistoryKM converts metres to kilometres with two decimals.
func HistoryKM(m float64) string {
	return strconv.FormatFloat(m/1000, 'f', 2, 64)
}

// RoundMinutes rounds a duration in minutes to a whole number.
func RoundMinutes(v float64) string {
	return strconv.Itoa(int(math.Round(v)))
}

// FillHourly returns all 24 hours in order, with zero for hours the backend
// did not report.
func FillHourly(sparse []gateway.HourCount) []HourBar {
	counts := make(map[int]int, len(sparse))
	for _, h := range sparse {
		counts[h.Hour] += h.Count
	}
	bars := make([]HourBar, 24)
	for hour := 0; hour < 24; hour++ {
		c := counts[hour]
		bars[hour] = HourBar{Hour: hour, Count: c, Height: max(6, c*8)}
	}
	return bars
}

// MapJSON serialises the map model for the browser script. json.Marshal
// escapes <, > and &, so the result is safe inside a script element.
func MapJSON(m mapview.Model) string {
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// TabClass returns CSS classes for a tab button.
func TabClass(active bool) string {
	if active {
		return "tab tab-active"
	}
	return "tab"
}

// PageTitle prefixes title to the site name.
func PageTitle(p Page) string {
	if p.Meta.Title == "" {
		return p.Site.Name
	}
	return p.Meta.Title + " | " + p.Site.Name
}
