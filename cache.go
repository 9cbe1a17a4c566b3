package routeweb

import (
	"context"
	"sync"
	"time"

	"github.com/eringen/routeweb/gateway"
)

// healthCheckTimeout bounds one backend health check, independent of the request
// that triggered it.
const healthCheckTimeout = 5 * time.Second

// HealthChecker probes the backend.
type HealthChecker interface {
	HealthCheck(ctx context.Context) (gateway.HealthStatus, error)
}

// HealthCache is an in-memory cache of the backend health probe with TTL.
// Failures are cached too, so a down backend is probed at most once per TTL.
type HealthCache struct {
	mu      sync.RWMutex
	status  gateway.HealthStatus
	err     error
	fetched time.Time
	ttl     time.Duration
	timeout time.Duration
	source  HealthChecker
}

// NewHealthCache creates a HealthCache backed by source.
func NewHealthCache(source HealthChecker, ttl time.Duration) *HealthCache {
	return &HealthCache{source: source, ttl: ttl, timeout: healthCheckTimeout}
}

func (c *HealthCache) valid() bool {
	return !c.fetched.IsZero() && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read probes again.
func (c *HealthCache) Invalidate() {
	c.mu.Lock()
	c.fetched = time.Time{}
	c.mu.Unlock()
}

// Status returns the cached probe result, refreshing it when stale.
// It tries a read lock first; only takes a write lock if a probe is needed.
// The check runs detached from ctx, bounded by healthCheckTimeout.
func (c *HealthCache) Status(ctx context.Context) (gateway.HealthStatus, error) {
	c.mu.RLock()
	if c.valid() {
		status, err := c.status, c.err
		c.mu.RUnlock()
		return status, err
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.status, c.err
	}
	checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()
	c.status, c.err = c.source.HealthCheck(checkCtx)
	c.fetched = time.Now()
	return c.status, c.err
}
