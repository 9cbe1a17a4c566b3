package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

// UserClient calls the /user namespace.
type UserClient struct {
	c *client
}

// History lists one page of the caller's past searches, newest first.
func (u *UserClient) History(ctx context.Context, page, pageSize int) (*HistoryPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	var out HistoryPage
	if err := u.c.call(ctx, http.MethodGet, "/history", q, nil, &out, "Failed to load history"); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &Error{Status: http.StatusOK, Message: "Failed to load history"}
	}
	return &out, nil
}

// HistoryItem returns the full route stored for a past search.
func (u *UserClient) HistoryItem(ctx context.Context, id int64) (*RouteResult, error) {
	const fallback = "Failed to load history item"
	var out historyResult
	path := "/history/" + strconv.FormatInt(id, 10)
	if err := u.c.call(ctx, http.MethodGet, path, nil, nil, &out, fallback); err != nil {
		return nil, err
	}
	if out.Result == nil {
		return nil, &Error{Status: http.StatusOK, Message: fallback}
	}
	return out.Result, nil
}

// QueryCached looks up the newest past search matching q. A miss is reported
// as ok=false with a nil error.
func (u *UserClient) QueryCached(ctx context.Context, q CachedQuery) (result *RouteResult, ok bool, err error) {
	const fallback = "No cached result"
	params := url.Values{}
	params.Set("origin", q.Origin)
	params.Set("destination", q.Destination)
	if q.RouteType != "" {
		params.Set("route_type", q.RouteType)
	}
	if q.VehicleType != "" {
		params.Set("vehicle_type", q.VehicleType)
	}

	var out historyResult
	if err := u.c.call(ctx, http.MethodGet, "/history/query", params, nil, &out, fallback); err != nil {
		var gerr *Error
		if errors.As(err, &gerr) && gerr.Status == http.StatusNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	if !out.Result.Valid() {
		return nil, false, nil
	}
	return out.Result, true, nil
}
