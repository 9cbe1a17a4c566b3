package gateway

import (
	"context"
	"net/http"
)

// AdminClient calls the /admin namespace.
type AdminClient struct {
	c *client
}

// Stats fetches the aggregate search statistics.
func (a *AdminClient) Stats(ctx context.Context) (*AdminStats, error) {
	var out AdminStats
	if err := a.c.call(ctx, http.MethodGet, "/stats", nil, nil, &out, "Failed to load stats"); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &Error{Status: http.StatusOK, Message: "Failed to load stats"}
	}
	return &out, nil
}
