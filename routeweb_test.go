package routeweb

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

// backend is a fake route-planning API. Sessions are a cookie naming the
// user; passwords are "secret".
type backend struct {
	mu      sync.Mutex
	calls   map[string]int
	roles   map[string]string
	revoked map[string]bool
	// hangUp drops the connection of route calculations.
	hangUp bool
}

func newBackend() *backend {
	return &backend{
		calls:   make(map[string]int),
		roles:   map[string]string{"alice": "user", "root": "admin"},
		revoked: make(map[string]bool),
	}
}

func (b *backend) count(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

// revoke ends name's backend session as if it had expired server-side.
func (b *backend) revoke(name string) {
	b.mu.Lock()
	b.revoked[name] = true
	b.mu.Unlock()
}

func (b *backend) setHangUp(v bool) {
	b.mu.Lock()
	b.hangUp = v
	b.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

var sampleRoute = map[string]any{
	"success":     true,
	"origin":      map[string]any{"name": "Gandhipuram", "lat": 11.0168, "lon": 76.9558},
	"destination": map[string]any{"name": "Prozone Mall", "lat": 11.0557, "lon": 76.9942},
	"path_coordinates": []map[string]float64{
		{"lat": 11.0168, "lon": 76.9558},
		{"lat": 11.0300, "lon": 76.9700},
		{"lat": 11.0557, "lon": 76.9942},
	},
	"distance_m":         6234.5,
	"distance_km":        6.23,
	"calculation_time_s": 0.42,
	"path_nodes":         3,
	"route_type":         "green",
	"vehicle_type":       "bike",
	"estimated_time_min": 18.2,
	"best_hour":          6,
	"best_time_min":      14.1,
}

func (b *backend) user(r *http.Request) (string, bool) {
	c, err := r.Cookie("sid")
	if err != nil {
		return "", false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.roles[c.Value]
	return c.Value, ok && !b.revoked[c.Value]
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	b.mu.Lock()
	b.calls[path]++
	b.mu.Unlock()

	switch path {
	case "/health":
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	case "/route/calculate":
		b.mu.Lock()
		hangUp := b.hangUp
		b.mu.Unlock()
		if hangUp {
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}
		writeJSON(w, http.StatusOK, sampleRoute)
	case "/auth/me":
		if name, ok := b.user(r); ok {
			writeJSON(w, http.StatusOK, map[string]any{"logged_in": true, "username": name, "role": b.roles[name]})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"logged_in": false})
	case "/auth/login":
		var body struct{ Username, Password string }
		json.NewDecoder(r.Body).Decode(&body)
		role, ok := b.roles[body.Username]
		if !ok || body.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: body.Username, Path: "/"})
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "role": role})
	case "/auth/logout":
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "", Path: "/", MaxAge: -1})
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	case "/auth/register":
		writeJSON(w, http.StatusCreated, map[string]any{"success": true})
	case "/admin/stats":
		if name, ok := b.user(r); !ok || b.roles[name] != "admin" {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Forbidden"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":             true,
			"totals":              map[string]int{"searches": 1234, "unique_users": 56},
			"top_origins":         []map[string]any{{"origin": "Gandhipuram", "count": 40}},
			"hourly_distribution": []map[string]int{{"hour": 9, "count": 7}},
		})
	case "/user/history":
		if _, ok := b.user(r); !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Login required"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"items": []map[string]any{{
				"id": 42, "origin": "Gandhipuram", "destination": "Prozone Mall",
				"route_type": "green", "vehicle_type": "bike",
				"distance_m": 6234.5, "estimated_time_min": 18.2,
			}},
			"total": 1, "page": 1, "page_size": 50,
		})
	case "/user/history/42":
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": sampleRoute})
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
	}
}

func setupApp(t *testing.T) (*App, *backend, *httptest.Server, func()) {
	t.Helper()
	be := newBackend()
	api := httptest.NewServer(be)

	log := logrus.New()
	log.SetOutput(io.Discard)

	app := New(SiteConfig{
		APIURL:        api.URL + "/api",
		APITimeout:    5 * time.Second,
		SessionSecret: "test-secret",
	}, DefaultViews(), WithLogger(log))
	app.Echo.Logger.SetOutput(io.Discard)
	if err := app.Setup(context.Background()); err != nil {
		api.Close()
		t.Fatalf("Setup failed: %v", err)
	}
	web := httptest.NewServer(app.Echo)

	return app, be, web, func() {
		web.Close()
		app.Close()
		api.Close()
	}
}

var csrfPattern = regexp.MustCompile(`name="_csrf" value="([^"]+)"`)

// browser keeps cookies across requests and remembers the last CSRF token
// it was handed.
type browser struct {
	t    *testing.T
	base string
	http *http.Client
	csrf string
	// path is where the last request ended up after redirects.
	path string
}

func newBrowser(t *testing.T, base string) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &browser{t: t, base: base, http: &http.Client{Jar: jar}}
}

func (b *browser) read(resp *http.Response, err error) (int, string) {
	b.t.Helper()
	if err != nil {
		b.t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	b.path = resp.Request.URL.Path
	data, _ := io.ReadAll(resp.Body)
	body := string(data)
	if m := csrfPattern.FindStringSubmatch(body); m != nil {
		b.csrf = m[1]
	}
	return resp.StatusCode, body
}

func (b *browser) get(path string) (int, string) {
	b.t.Helper()
	return b.read(b.http.Get(b.base + path))
}

func (b *browser) post(path string, form url.Values) (int, string) {
	b.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("_csrf", b.csrf)
	return b.read(b.http.PostForm(b.base+path, form))
}

func (b *browser) login(username, password string) (int, string) {
	b.t.Helper()
	b.get("/auth/?mode=login")
	return b.post("/auth/login", url.Values{"username": {username}, "password": {password}})
}

func TestHomeRendersAndBootstrapsOnce(t *testing.T) {
	app, be, web, cleanup := setupApp(t)
	defer cleanup()
	b := newBrowser(t, web.URL)

	code, body := b.get("/")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	for _, want := range []string{"MargaMetis", "Intelligent Route Optimizer", "Find Route", `id="route-data"`} {
		if !strings.Contains(body, want) {
			t.Errorf("home page missing %q", want)
		}
	}
	b.get("/")
	if n := be.count("/auth/me"); n != 1 {
		t.Errorf("/auth/me calls = %d, want 1", n)
	}
	if n := app.Tabs.Len(); n != 1 {
		t.Errorf("tabs = %d, want 1", n)
	}
}

func TestSearchRejectsBlankInputWithoutBackendCall(t *testing.T) {
	_, be, web, cleanup := setupApp(t)
	defer cleanup()
	b := newBrowser(t, web.URL)
	b.get("/")

	_, body := b.post("/route", url.Values{"origin": {"   "}, "destination": {"Prozone Mall"}})
	if !strings.Contains(body, "Please enter both origin and destination") {
		t.Errorf("expected validation message in page")
	}
	if n := be.count("/route/calculate"); n != 0 {
		t.Errorf("/route/calculate calls = %d, want 0", n)
	}
}

func TestSearchRendersRouteAndPreview(t *testing.T) {
	_, _, web, cleanup := setupApp(t)
	defer cleanup()
	b := newBrowser(t, web.URL)
	b.get("/")

	code, body := b.post("/route", url.Values{
		"origin":       {"Gandhipuram"},
		"destination":  {"Prozone Mall"},
		"route_type":   {"green"},
		"vehicle_type": {"bike"},
	})
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	for _, want := range []string{"Route Details", "6.23", "6:00", `"fitBounds":true`} {
		if !strings.Contains(body, want) {
			t.Errorf("result page missing %q", want)
		}
	}

	resp, err := b.http.Get(web.URL + "/route/preview.png")
	if err != nil {
		t.Fatalf("preview request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("preview status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
}

func TestPreviewWithoutRouteIsNotFound(t *testing.T) {
	_, _, web, cleanup := setupApp(t)
	defer cleanup()
	b := newBrowser(t, web.URL)

	code, _ := b.get("/route/preview.png")
	if code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}

func TestLoginInvalidCredentialsStaysAnonymous(t *testing.T) {
	_, _, web, cleanup := setupApp(t)
	defer cleanup()
	b := newBrowser(t, web.URL)

	_, body := b.login("alice", "wrong")
	if !strings.Contains(body, "Invalid credentials") {
		t.Errorf("expected backend message in modal")
	}
	_, body = b.get("/user/")
	if strings.Contains(body, "User Dashboard") {
		t.Errorf("anonymous tab reached the user dashboard")
	}
}

func TestViewOnMapReplaysOnHome(t *testing.T) {
	_, be, web, cleanup := setupApp(t)
	defer cleanup()
	b := newBrowser(t, web.URL)

	_, body := b.login("alice", "secret")
	if !strings.Contains(body, "alice") || !strings.Contains(body, `href="/user/"`) {
		t.Fatalf("expected signed-in header after login")
	}

	_, body = b.get("/user/")
	if !strings.Contains(body, "Search History") || !strings.Contains(body, "/user/history/42/map") {
		t.Fatalf("expected history row for item 42")
	}

	_, body = b.post("/user/history/42/map", nil)
	if !strings.Contains(body, "Showing a route from your search history.") {
		t.Errorf("expected replayed route on home")
	}
	if !strings.Contains(body, "Prozone Mall") {
		t.Errorf("expected destination of replayed route")
	}
	if n := be.count("/route/calculate"); n != 0 {
		t.Errorf("/route/calculate calls = %d, want 0", n)
	}

	_, body = b.get("/")
	if strings.Contains(body, "Showing a route from your search history.") {
		t.Errorf("replay slot consumed twice")
	}
}

func TestAdminDashboardIsRoleGated(t *testing.T) {
	_, be, web, cleanup := setupApp(t)
	defer cleanup()

	user := newBrowser(t, web.URL)
	user.login("alice", "secret")
	_, body := user.get("/admin/")
	if strings.Contains(body, "Total Searches") {
		t.Errorf("user role reached the admin dashboard")
	}
	if n := be.count("/admin/stats"); n != 0 {
		t.Errorf("/admin/stats calls = %d, want 0", n)
	}

	admin := newBrowser(t, web.URL)
	admin.login("root", "secret")
	_, body = admin.get("/admin/")
	for _, want := range []string{"Total Searches", "1234", "Gandhipuram", "Hourly Distribution"} {
		if !strings.Contains(body, want) {
			t.Errorf("admin dashboard missing %q", want)
		}
	}
}

func TestLogoutReturnsToAnonymous(t *testing.T) {
	_, _, web, cleanup := setupApp(t)
	defer cleanup()
	b := newBrowser(t, web.URL)
	b.login("alice", "secret")

	_, body := b.post("/auth/logout", nil)
	if !strings.Contains(body, `href="/auth/?mode=login"`) {
		t.Errorf("expected login link after logout")
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	_, be, web, cleanup := setupApp(t)
	defer cleanup()
	b := newBrowser(t, web.URL)
	b.get("/auth/?mode=login")

	for i := 0; i < 5; i++ {
		b.post("/auth/login", url.Values{"username": {"alice"}, "password": {"wrong"}})
	}
	code, body := b.post("/auth/login", url.Values{"username": {"alice"}, "password": {"secret"}})
	if code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", code)
	}
	if body != msgTooManyLogins {
		t.Errorf("body = %q, want %q", body, msgTooManyLogins)
	}
	if n := be.count("/auth/login"); n != 5 {
		t.Errorf("/auth/login calls = %d, want 5", n)
	}
}

func TestRegisterSwitchesToLogin(t *testing.T) {
	_, _, web, cleanup := setupApp(t)
	defer cleanup()
	b := newBrowser(t, web.URL)
	b.get("/auth/?mode=register")

	_, body := b.post("/auth/register", url.Values{"username": {"bob"}, "password": {"pw"}, "role": {"user"}})
	if !strings.Contains(body, "Registration complete. You can log in now.") {
		t.Errorf("expected registration notice")
	}
	if !strings.Contains(body, `action="/auth/login"`) {
		t.Errorf("expected modal to switch to login")
	}
}

func TestHealthzIsCached(t *testing.T) {
	_, be, web, cleanup := setupApp(t)
	defer cleanup()
	b := newBrowser(t, web.URL)

	code, body := b.get("/healthz")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	var got healthResponse
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Backend != "healthy" {
		t.Errorf("backend = %q, want healthy", got.Backend)
	}
	b.get("/healthz")
	if n := be.count("/health"); n != 1 {
		t.Errorf("/health calls = %d, want 1", n)
	}
}

func TestUnknownPathRendersNotFound(t *testing.T) {
	_, _, web, cleanup := setupApp(t)
	defer cleanup()
	b := newBrowser(t, web.URL)

	code, body := b.get("/nope/")
	if code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", code)
	}
	if !strings.Contains(body, "Page not found") {
		t.Errorf("expected not found page")
	}
}

func TestPostWithoutCSRFIsForbidden(t *testing.T) {
	_, _, web, cleanup := setupApp(t)
	defer cleanup()
	b := newBrowser(t, web.URL)

	code, _ := b.read(b.http.PostForm(web.URL+"/route", url.Values{"origin": {"a"}, "destination": {"b"}}))
	if code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", code)
	}
}

func TestTabsAreIsolated(t *testing.T) {
	app, _, web, cleanup := setupApp(t)
	defer cleanup()

	alice := newBrowser(t, web.URL)
	alice.login("alice", "secret")
	other := newBrowser(t, web.URL)
	_, body := other.get("/")
	if strings.Contains(body, "alice") {
		t.Errorf("second browser sees alice's session")
	}
	if n := app.Tabs.Len(); n != 2 {
		t.Errorf("tabs = %d, want 2", n)
	}
}

func TestValidateRequiresSecret(t *testing.T) {
	cfg := SiteConfig{}
	cfg.setDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error without SESSION_SECRET")
	}
	cfg.SessionSecret = "x"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	cfg.ReplayStore = "redis"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for redis without host")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("API_URL", "http://api.internal/api")
	t.Setenv("API_TIMEOUT", "15s")
	t.Setenv("PREFER_CACHED_ROUTES", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.APIURL != "http://api.internal/api" {
		t.Errorf("APIURL = %q, want http://api.internal/api", cfg.APIURL)
	}
	if cfg.APITimeout != 15*time.Second {
		t.Errorf("APITimeout = %v, want 15s", cfg.APITimeout)
	}
	if !cfg.PreferCachedRoutes {
		t.Errorf("PreferCachedRoutes = false, want true")
	}
	if cfg.Name != "MargaMetis" {
		t.Errorf("Name = %q, want MargaMetis", cfg.Name)
	}
}

func TestExpiredUserSessionLeavesDashboard(t *testing.T) {
	_, be, web, cleanup := setupApp(t)
	defer cleanup()
	b := newBrowser(t, web.URL)
	b.login("alice", "secret")
	be.revoke("alice")

	_, body := b.get("/user/")
	if b.path != "/" {
		t.Fatalf("landed on %q, want /", b.path)
	}
	if !strings.Contains(body, `href="/auth/?mode=login"`) {
		t.Errorf("expected anonymous header after backend 401")
	}
	if strings.Contains(body, `class="who"`) {
		t.Errorf("header still shows a signed-in user")
	}
}

func TestExpiredAdminSessionLeavesDashboard(t *testing.T) {
	_, be, web, cleanup := setupApp(t)
	defer cleanup()
	b := newBrowser(t, web.URL)
	b.login("root", "secret")
	be.revoke("root")

	_, body := b.get("/admin/")
	if b.path != "/" {
		t.Fatalf("landed on %q, want /", b.path)
	}
	if strings.Contains(body, "Forbidden") {
		t.Errorf("backend 403 rendered instead of redirect")
	}
	if !strings.Contains(body, `href="/auth/?mode=login"`) {
		t.Errorf("expected anonymous header after backend 403")
	}
	if n := be.count("/admin/stats"); n != 1 {
		t.Errorf("/admin/stats calls = %d, want 1", n)
	}

	b.get("/admin/")
	if n := be.count("/admin/stats"); n != 1 {
		t.Errorf("/admin/stats calls after expiry = %d, want 1", n)
	}
}

func TestSearchTransportFailureRefreshesHealth(t *testing.T) {
	_, be, web, cleanup := setupApp(t)
	defer cleanup()
	b := newBrowser(t, web.URL)
	b.get("/healthz")
	b.get("/")

	be.setHangUp(true)
	_, body := b.post("/route", url.Values{"origin": {"Gandhipuram"}, "destination": {"Prozone Mall"}})
	if !strings.Contains(body, "Failed to calculate route") {
		t.Errorf("expected fallback message for dropped connection")
	}

	b.get("/healthz")
	if n := be.count("/health"); n != 2 {
		t.Errorf("/health calls = %d, want 2", n)
	}
}

func TestRestartLogsTabsOut(t *testing.T) {
	app, _, web, cleanup := setupApp(t)
	defer cleanup()
	b := newBrowser(t, web.URL)
	b.login("alice", "secret")
	if _, body := b.get("/"); !strings.Contains(body, `class="who"`) {
		t.Fatalf("expected signed-in header before restart")
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	restarted := New(app.Config, DefaultViews(), WithLogger(log))
	restarted.Echo.Logger.SetOutput(io.Discard)
	if err := restarted.Setup(context.Background()); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer restarted.Close()
	web2 := httptest.NewServer(restarted.Echo)
	defer web2.Close()

	// Same host, so the browser presents the same signed tab cookie.
	b.base = web2.URL
	_, body := b.get("/user/")
	if b.path != "/" {
		t.Fatalf("landed on %q, want /", b.path)
	}
	if strings.Contains(body, `class="who"`) {
		t.Errorf("tab still signed in after restart")
	}
	if restarted.Tabs.Len() != 1 {
		t.Errorf("tabs = %d, want 1", restarted.Tabs.Len())
	}
}
