// Package routeweb is the web front end of the route planner, built with Go,
// Echo, and templ. It renders the search page, the dashboards and the auth
// modal server-side and forwards every action to the route-planning backend.
//
// Each browser session gets a tab: its own backend cookie jar, identity and
// page controllers. Views are supplied through ViewFuncs, and routeweb handles
// the handler logic, middleware, replay storage and housekeeping.
package routeweb

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/eringen/routeweb/gateway"
	"github.com/eringen/routeweb/jobs"
	"github.com/eringen/routeweb/mapview"
	"github.com/eringen/routeweb/pages"
	"github.com/eringen/routeweb/replay"
	"github.com/eringen/routeweb/views"
)

// ViewFuncs holds the templ components the handlers render.
type ViewFuncs struct {
	Home           func(p views.Page, v pages.HomeView, m mapview.Model) templ.Component
	Auth           func(p views.Page, v pages.AuthView, home pages.HomeView, m mapview.Model) templ.Component
	AdminDashboard func(p views.Page, v pages.AdminView) templ.Component
	UserDashboard  func(p views.Page, v pages.UserView) templ.Component
	NotFound       func(p views.Page) templ.Component
	ServerError    func(p views.Page) templ.Component
}

// DefaultViews returns the bundled components.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Home:           views.HomePage,
		Auth:           views.AuthPage,
		AdminDashboard: views.AdminDashboard,
		UserDashboard:  views.UserDashboard,
		NotFound:       views.NotFound,
		ServerError:    views.ServerError,
	}
}

// App is the central routeweb application. It wires together the tab
// registry, replay store, handlers, middleware, and templates.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Views  ViewFuncs
	Tabs   *TabRegistry
	Replay replay.Slot
	Health *HealthCache
	Log    *logrus.Logger

	loginLimiter *LoginLimiter
	jobs         *jobs.Scheduler
	customRoutes []func(*App)
	transport    http.RoundTripper
	ready        bool
}

// New creates a new App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  views,
		Log:    logrus.StandardLogger(),
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup opens the replay store and installs middleware and routes. It is
// called by Start; tests call it directly and drive a.Echo.
func (a *App) Setup(ctx context.Context) error {
	if a.ready {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return err
	}

	if a.Replay == nil {
		slot, err := replay.Open(ctx, replay.Config{
			Kind:          a.Config.ReplayStore,
			Path:          a.Config.ReplayDBPath,
			RedisHost:     a.Config.RedisHost,
			RedisPort:     a.Config.RedisPort,
			RedisUsername: a.Config.RedisUsername,
			RedisPassword: a.Config.RedisPassword,
			TTL:           a.Config.TabIdleTimeout,
		}, a.Log)
		if err != nil {
			return fmt.Errorf("routeweb: init replay: %w", err)
		}
		a.Replay = slot
	}

	// Health probes use a tab-less gateway; the route namespace carries no
	// credentials.
	probe, err := gateway.New(gateway.Config{
		BaseURL:   a.Config.APIURL,
		Timeout:   a.Config.APITimeout,
		Transport: a.transport,
		Logger:    a.Log,
	})
	if err != nil {
		return fmt.Errorf("routeweb: init gateway: %w", err)
	}
	a.Health = NewHealthCache(probe.Route, a.Config.HealthCacheTTL)

	a.Tabs = NewTabRegistry(a.newTab)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)
	a.jobs = jobs.NewScheduler(a.Config.HousekeepingSchedule, a.Tabs, a.Replay, a.Config.TabIdleTimeout)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// Start sets the app up, starts housekeeping and serves until the server is
// shut down.
func (a *App) Start() error {
	ctx := context.Background()
	if err := a.Setup(ctx); err != nil {
		return err
	}
	if err := a.jobs.Start(ctx); err != nil {
		return fmt.Errorf("routeweb: start housekeeping: %w", err)
	}

	a.Log.WithFields(logrus.Fields{
		"addr":   a.Config.Addr,
		"api":    a.Config.APIURL,
		"replay": a.Config.ReplayStore,
	}).Info("routeweb: listening")
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/app.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.GET("/public/map.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))

	e.GET("/healthz", a.handleHealth)

	e.GET("/", a.handleHome)
	e.POST("/route", a.handleSearch)
	e.GET("/route/preview.png", a.handlePreview)

	e.GET("/admin/", a.handleAdmin)

	e.GET("/user/", a.handleUser)
	e.POST("/user/history/:id/map", a.handleViewOnMap)

	e.GET("/auth/", a.handleAuth)
	e.POST("/auth/login", a.handleLogin)
	e.POST("/auth/register", a.handleRegister)
	e.POST("/auth/logout", a.handleLogout)
}

// Shutdown stops the server gracefully and releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.jobs != nil {
		a.jobs.Stop()
	}
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.Replay != nil {
		return a.Replay.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
