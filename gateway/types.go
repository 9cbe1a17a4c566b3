package gateway

// Route types understood by the backend optimizer.
const (
	RouteShortest      = "shortest"
	RouteCostEfficient = "cost_efficient"
	RouteFuelEfficient = "fuel_efficient"
	RouteGreen         = "green"
	RouteTrafficFree   = "traffic_free"
)

// Vehicle types understood by the backend optimizer.
const (
	VehicleCar   = "car"
	VehicleBike  = "bike"
	VehicleTruck = "truck"
)

// Roles reported by the auth namespace.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Place is a named point returned with a route.
type Place struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Coordinate is a single point of a route path.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RouteResult is the payload of POST /route/calculate. It is also what the
// history endpoints hand back for a past search.
type RouteResult struct {
	Success           bool         `json:"success"`
	Origin            Place        `json:"origin"`
	Destination       Place        `json:"destination"`
	PathCoordinates   []Coordinate `json:"path_coordinates"`
	DistanceM         float64      `json:"distance_m"`
	DistanceKM        float64      `json:"distance_km"`
	CalculationTimeS  float64      `json:"calculation_time_s"`
	PathNodes         int          `json:"path_nodes"`
	RouteType         string       `json:"route_type,omitempty"`
	VehicleType       string       `json:"vehicle_type,omitempty"`
	EstimatedTimeMin  float64      `json:"estimated_time_min"`
	BestHour          int          `json:"best_hour"`
	BestTimeMin       float64      `json:"best_time_min"`
	TrafficPrediction []float64    `json:"traffic_prediction,omitempty"`
}

// Valid reports whether r is a usable, successful route.
func (r *RouteResult) Valid() bool {
	return r != nil && r.Success
}

// RouteRequest is the body of POST /route/calculate. Coordinates are optional
// [lat, lon] pairs that skip backend geocoding.
type RouteRequest struct {
	Origin       string      `json:"origin"`
	Destination  string      `json:"destination"`
	OriginCoords *[2]float64 `json:"origin_coords"`
	DestCoords   *[2]float64 `json:"dest_coords"`
	RouteType    string      `json:"route_type,omitempty"`
	VehicleType  string      `json:"vehicle_type,omitempty"`
}

// GeocodeResult is the payload of POST /route/geocode.
type GeocodeResult struct {
	Success  bool    `json:"success"`
	Location string  `json:"location"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// HealthStatus is the payload of GET /health.
type HealthStatus struct {
	Status string `json:"status"`
}

// LoginResponse is the payload of POST /auth/login.
type LoginResponse struct {
	Success bool   `json:"success"`
	Role    string `json:"role"`
}

// MeResponse is the payload of GET /auth/me.
type MeResponse struct {
	LoggedIn bool   `json:"logged_in"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Totals holds the aggregate counters of AdminStats.
type Totals struct {
	Searches    int `json:"searches"`
	UniqueUsers int `json:"unique_users"`
}

// OriginCount is one row of AdminStats.TopOrigins.
type OriginCount struct {
	Origin string `json:"origin"`
	Count  int    `json:"count"`
}

// DestinationCount is one row of AdminStats.TopDestinations.
type DestinationCount struct {
	Destination string `json:"destination"`
	Count       int    `json:"count"`
}

// RouteTypeCount is one row of AdminStats.TopRouteTypes.
type RouteTypeCount struct {
	RouteType string `json:"route_type"`
	Count     int    `json:"count"`
}

// PairCount is one row of AdminStats.TopPairs.
type PairCount struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Count       int    `json:"count"`
}

// HourCount is one row of AdminStats.HourlyDistribution.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// AdminStats is the payload of GET /admin/stats.
type AdminStats struct {
	Success            bool               `json:"success"`
	Totals             Totals             `json:"totals"`
	TopOrigins         []OriginCount      `json:"top_origins"`
	TopDestinations    []DestinationCount `json:"top_destinations"`
	TopRouteTypes      []RouteTypeCount   `json:"top_route_types"`
	TopPairs           []PairCount        `json:"top_pairs"`
	HourlyDistribution []HourCount        `json:"hourly_distribution"`
}

// HistoryItem is a summary of one past search.
type HistoryItem struct {
	ID               int64   `json:"id"`
	Origin           string  `json:"origin"`
	Destination      string  `json:"destination"`
	RouteType        string  `json:"route_type"`
	VehicleType      string  `json:"vehicle_type"`
	DistanceM        float64 `json:"distance_m"`
	EstimatedTimeMin float64 `json:"estimated_time_min"`
	CreatedAt        string  `json:"created_at"`
}

// HistoryPage is the payload of GET /user/history.
type HistoryPage struct {
	Success  bool          `json:"success"`
	Items    []HistoryItem `json:"items"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// CachedQuery selects a past search to reuse.
type CachedQuery struct {
	Origin      string
	Destination string
	RouteType   string
	VehicleType string
}

// historyResult wraps a RouteResult returned by the history endpoints.
type historyResult struct {
	Success bool         `json:"success"`
	Result  *RouteResult `json:"result"`
}

// envelope is the common part of every response body.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}
