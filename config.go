package routeweb

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"github.com/eringen/routeweb/replay"
)

// SiteConfig holds all configuration for a routeweb server.
type SiteConfig struct {
	Name        string `envconfig:"SITE_NAME"`    // Site name (default "MargaMetis")
	URL         string `envconfig:"SITE_URL"`     // Canonical URL (default "http://localhost:3000")
	Tagline     string `envconfig:"SITE_TAGLINE"` // Shown under the name (default "Intelligent Route Optimizer")
	Description string `envconfig:"SITE_DESCRIPTION"`

	Addr string `envconfig:"ADDR"` // Listen address (default ":3000")

	APIURL     string        `envconfig:"API_URL"`     // Backend root (default "http://localhost:5000/api")
	APITimeout time.Duration `envconfig:"API_TIMEOUT"` // Per-call timeout (default 60s)

	SessionSecret string `envconfig:"SESSION_SECRET"` // Required: cookie signing secret
	CookieSecure  bool   `envconfig:"COOKIE_SECURE"`  // Set true for HTTPS

	ReplayStore   string `envconfig:"REPLAY_STORE"`   // memory, sqlite or redis (default memory)
	ReplayDBPath  string `envconfig:"REPLAY_DB_PATH"` // SQLite path (default "data/replay.db")
	RedisHost     string `envconfig:"REDIS_HOST"`
	RedisPort     string `envconfig:"REDIS_PORT"` // default "6379"
	RedisUsername string `envconfig:"REDIS_USERNAME"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	HealthCacheTTL       time.Duration `envconfig:"HEALTH_CACHE_TTL"`      // default 30s
	PreferCachedRoutes   bool          `envconfig:"PREFER_CACHED_ROUTES"`  // reuse signed-in history before calculating
	TabIdleTimeout       time.Duration `envconfig:"TAB_IDLE_TIMEOUT"`      // default 12h
	HousekeepingSchedule string        `envconfig:"HOUSEKEEPING_SCHEDULE"` // cron spec (default "@every 10m")

	LogLevel string `envconfig:"LOG_LEVEL"` // logrus level (default "info")
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "MargaMetis"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Tagline == "" {
		c.Tagline = "Intelligent Route Optimizer"
	}
	if c.Description == "" {
		c.Description = "Plan optimised routes with traffic prediction and the best hour to travel."
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.APIURL == "" {
		c.APIURL = "http://localhost:5000/api"
	}
	if c.APITimeout == 0 {
		c.APITimeout = 60 * time.Second
	}
	if c.ReplayStore == "" {
		c.ReplayStore = replay.KindMemory
	}
	if c.ReplayDBPath == "" {
		c.ReplayDBPath = "data/replay.db"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if c.HealthCacheTTL == 0 {
		c.HealthCacheTTL = 30 * time.Second
	}
	if c.TabIdleTimeout == 0 {
		c.TabIdleTimeout = 12 * time.Hour
	}
	if c.HousekeepingSchedule == "" {
		c.HousekeepingSchedule = "@every 10m"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports the first configuration problem.
func (c SiteConfig) Validate() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("routeweb: SESSION_SECRET is required")
	}
	switch c.ReplayStore {
	case replay.KindMemory, replay.KindSQLite:
	case replay.KindRedis:
		if c.RedisHost == "" {
			return fmt.Errorf("routeweb: REDIS_HOST is required when REPLAY_STORE=redis")
		}
	default:
		return fmt.Errorf("routeweb: unknown REPLAY_STORE %q", c.ReplayStore)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("routeweb: LOG_LEVEL: %w", err)
	}
	return nil
}

// LoadConfig reads the configuration from the environment, applies defaults
// and validates it.
func LoadConfig() (SiteConfig, error) {
	var cfg SiteConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("routeweb: load config: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return SiteConfig{}, err
	}
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithLogger replaces the process logger.
func WithLogger(l *logrus.Logger) Option {
	return func(a *App) {
		a.Log = l
	}
}

// WithTransport sets the HTTP transport used for backend calls.
func WithTransport(rt http.RoundTripper) Option {
	return func(a *App) {
		a.transport = rt
	}
}

// WithReplay uses slot instead of opening the configured replay store.
func WithReplay(slot replay.Slot) Option {
	return func(a *App) {
		a.Replay = slot
	}
}
