package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func setupGateway(t *testing.T, h http.Handler) (*Gateway, func()) {
	t.Helper()
	srv := httptest.NewServer(h)
	g, err := New(Config{BaseURL: srv.URL + "/api/", Logger: quietLogger()})
	if err != nil {
		srv.Close()
		t.Fatalf("New failed: %v", err)
	}
	return g, srv.Close
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestCalculateRouteSendsBody(t *testing.T) {
	var got map[string]any
	g, cleanup := setupGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/route/calculate" {
			t.Errorf("request = %s %s, want POST /api/route/calculate", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"distance_km": 12.5,
			"origin":      map[string]any{"name": "Pune", "lat": 18.52, "lon": 73.85},
			"path_coordinates": []map[string]float64{
				{"lat": 18.52, "lon": 73.85},
				{"lat": 18.60, "lon": 73.90},
			},
		})
	}))
	defer cleanup()

	res, err := g.Route.CalculateRoute(context.Background(), RouteRequest{
		Origin:      "Pune",
		Destination: "Mumbai",
		RouteType:   RouteGreen,
	})
	if err != nil {
		t.Fatalf("CalculateRoute failed: %v", err)
	}
	if res.DistanceKM != 12.5 {
		t.Errorf("DistanceKM = %v, want 12.5", res.DistanceKM)
	}
	if len(res.PathCoordinates) != 2 {
		t.Errorf("len(PathCoordinates) = %d, want 2", len(res.PathCoordinates))
	}
	if got["origin"] != "Pune" || got["destination"] != "Mumbai" {
		t.Errorf("body = %v, want origin Pune and destination Mumbai", got)
	}
	if got["route_type"] != RouteGreen {
		t.Errorf("route_type = %v, want %q", got["route_type"], RouteGreen)
	}
	if _, ok := got["vehicle_type"]; ok {
		t.Errorf("vehicle_type should be omitted when empty")
	}
}

func TestBackendErrorIsVerbatim(t *testing.T) {
	g, cleanup := setupGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Could not find a route. Please check the locations."})
	}))
	defer cleanup()

	_, err := g.Route.CalculateRoute(context.Background(), RouteRequest{Origin: "a", Destination: "b"})
	gerr, ok := err.(*Error)
	if !ok {
		t.Fatalf("err = %T, want *Error", err)
	}
	if gerr.Status != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", gerr.Status, http.StatusBadRequest)
	}
	if gerr.Message != "Could not find a route. Please check the locations." {
		t.Errorf("Message = %q", gerr.Message)
	}
}

func TestTransportFailureUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	g, err := New(Config{BaseURL: base, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want string
	}{
		{"calculate", func() error { _, err := g.Route.CalculateRoute(ctx, RouteRequest{}); return err }, "Failed to calculate route"},
		{"geocode", func() error { _, err := g.Route.GeocodeLocation(ctx, "Pune"); return err }, "Failed to geocode location"},
		{"health", func() error { _, err := g.Route.HealthCheck(ctx); return err }, "Service unavailable"},
		{"register", func() error { return g.Auth.Register(ctx, "a", "b", RoleUser) }, "Registration failed"},
		{"login", func() error { _, err := g.Auth.Login(ctx, "a", "b"); return err }, "Login failed"},
		{"logout", func() error { return g.Auth.Logout(ctx) }, "Logout failed"},
		{"me", func() error { _, err := g.Auth.Me(ctx); return err }, "Not logged in"},
		{"stats", func() error { _, err := g.Admin.Stats(ctx); return err }, "Failed to load stats"},
		{"history", func() error { _, err := g.User.History(ctx, 1, 50); return err }, "Failed to load history"},
		{"history item", func() error { _, err := g.User.HistoryItem(ctx, 42); return err }, "Failed to load history item"},
		{"query cached", func() error {
			_, _, err := g.User.QueryCached(ctx, CachedQuery{Origin: "a", Destination: "b"})
			return err
		}, "No cached result"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			gerr, ok := err.(*Error)
			if !ok {
				t.Fatalf("err = %T (%v), want *Error", err, err)
			}
			if gerr.Status != 0 {
				t.Errorf("Status = %d, want 0", gerr.Status)
			}
			if gerr.Message != tt.want {
				t.Errorf("Message = %q, want %q", gerr.Message, tt.want)
			}
		})
	}
}

func TestMalformedBodyUsesFallback(t *testing.T) {
	g, cleanup := setupGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "<html>not json</html>")
	}))
	defer cleanup()

	_, err := g.Admin.Stats(context.Background())
	if got := Message(err, ""); got != "Failed to load stats" {
		t.Errorf("Message = %q, want %q", got, "Failed to load stats")
	}
}

func TestSuccessFalseIsError(t *testing.T) {
	g, cleanup := setupGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "Location is required"})
	}))
	defer cleanup()

	_, err := g.Route.GeocodeLocation(context.Background(), "")
	if got := Message(err, ""); got != "Location is required" {
		t.Errorf("Message = %q, want %q", got, "Location is required")
	}
}

func TestLoginReturnsBackendRole(t *testing.T) {
	g, cleanup := setupGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
			return
		}
		if _, ok := body["role"]; ok {
			t.Errorf("login body should not carry a role")
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "role": "admin"})
	}))
	defer cleanup()

	ctx := context.Background()
	res, err := g.Auth.Login(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if res.Role != RoleAdmin {
		t.Errorf("Role = %q, want %q", res.Role, RoleAdmin)
	}

	_, err = g.Auth.Login(ctx, "alice", "wrong")
	if got := Message(err, ""); got != "Invalid credentials" {
		t.Errorf("Message = %q, want %q", got, "Invalid credentials")
	}
}

func TestCredentialedClientsShareCookies(t *testing.T) {
	var routeCookie, statsCookie string
	g, cleanup := setupGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "role": "admin"})
		case "/api/admin/stats":
			if c, err := r.Cookie("session"); err == nil {
				statsCookie = c.Value
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
		case "/api/health":
			if c, err := r.Cookie("session"); err == nil {
				routeCookie = c.Value
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		}
	}))
	defer cleanup()

	ctx := context.Background()
	if _, err := g.Auth.Login(ctx, "alice", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := g.Admin.Stats(ctx); err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	status, err := g.Route.HealthCheck(ctx)
	if err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
	if status.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", status.Status)
	}
	if statsCookie != "abc" {
		t.Errorf("stats cookie = %q, want abc", statsCookie)
	}
	if routeCookie != "" {
		t.Errorf("route client sent cookie %q, want none", routeCookie)
	}
}

func TestMessageFallback(t *testing.T) {
	if got := Message(io.EOF, "fallback"); got != "fallback" {
		t.Errorf("Message = %q, want fallback", got)
	}
	if got := Message(&Error{Message: "boom"}, "fallback"); got != "boom" {
		t.Errorf("Message = %q, want boom", got)
	}
}
