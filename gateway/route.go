package gateway

import (
	"context"
	"net/http"
)

// RouteClient calls the routing endpoints. It never sends credentials.
type RouteClient struct {
	c *client
}

// CalculateRoute asks the backend for a route between origin and
// destination. Coordinates, route type and vehicle type are optional.
func (r *RouteClient) CalculateRoute(ctx context.Context, req RouteRequest) (*RouteResult, error) {
	var out RouteResult
	if err := r.c.call(ctx, http.MethodPost, "/route/calculate", nil, req, &out, "Failed to calculate route"); err != nil {
		return nil, err
	}
	if !out.Valid() {
		return nil, &Error{Status: http.StatusOK, Message: "Failed to calculate route"}
	}
	return &out, nil
}

// GeocodeLocation resolves a place name to coordinates.
func (r *RouteClient) GeocodeLocation(ctx context.Context, location string) (*GeocodeResult, error) {
	var out GeocodeResult
	body := map[string]string{"location": location}
	if err := r.c.call(ctx, http.MethodPost, "/route/geocode", nil, body, &out, "Failed to geocode location"); err != nil {
		return nil, err
	}
	return &out, nil
}

// HealthCheck reports the backend status string.
func (r *RouteClient) HealthCheck(ctx context.Context) (HealthStatus, error) {
	var out HealthStatus
	if err := r.c.call(ctx, http.MethodGet, "/health", nil, nil, &out, "Service unavailable"); err != nil {
		return HealthStatus{}, err
	}
	return out, nil
}
