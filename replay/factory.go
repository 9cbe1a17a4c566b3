package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Store kinds accepted by Open.
const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
	KindRedis  = "redis"
)

// Config selects and configures the slot backend.
type Config struct {
	Kind string
	// Path is the SQLite database file.
	Path string

	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	// TTL is the expiry of Redis keys.
	TTL time.Duration
}

// Open builds the configured backend. A Redis server that cannot be reached
// is not fatal: the memory backend is used instead.
func Open(ctx context.Context, cfg Config, log logrus.FieldLogger) (Slot, error) {
	switch cfg.Kind {
	case "", KindMemory:
		log.Info("replay: using in-memory slots")
		return NewMemoryStore(), nil
	case KindSQLite:
		s, err := NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("replay: open sqlite %s: %w", cfg.Path, err)
		}
		log.WithField("path", cfg.Path).Info("replay: using sqlite slots")
		return s, nil
	case KindRedis:
		port := cfg.RedisPort
		if port == "" {
			port = "6379"
		}
		s, err := NewRedisStore(ctx, cfg.RedisHost, port, cfg.RedisUsername, cfg.RedisPassword, cfg.TTL)
		if err != nil {
			log.WithError(err).WithField("addr", cfg.RedisHost+":"+port).
				Warn("replay: redis unavailable, falling back to in-memory slots")
			return NewMemoryStore(), nil
		}
		log.WithField("addr", cfg.RedisHost+":"+port).Info("replay: using redis slots")
		return s, nil
	default:
		return nil, fmt.Errorf("replay: unknown store kind %q", cfg.Kind)
	}
}
