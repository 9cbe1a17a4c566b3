// Package replay hands a RouteResult from one page of a tab to another. Each
// tab owns one slot; Publish overwrites it and Consume reads and clears it in
// one step, so a published result is delivered at most once.
package replay

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/eringen/routeweb/gateway"
)

// ErrClosed is returned by every operation on a closed slot store.
var ErrClosed = errors.New("replay: store closed")

// Slot is a per-tab, read-once handoff.
type Slot interface {
	// Publish replaces the pending result of tab.
	Publish(ctx context.Context, tab string, result *gateway.RouteResult) error
	// Consume removes the pending result of tab and returns it. ok is false
	// when nothing was pending or the stored value was not a successful route.
	Consume(ctx context.Context, tab string) (result *gateway.RouteResult, ok bool, err error)
	// Purge drops slots whose tab is no longer live and reports how many.
	Purge(ctx context.Context, live func(tab string) bool) (int, error)
	Close() error
}

func encode(result *gateway.RouteResult) ([]byte, error) {
	return json.Marshal(result)
}

// decode accepts only well-formed successful routes.
func decode(data []byte) (*gateway.RouteResult, bool) {
	var r gateway.RouteResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, false
	}
	if !r.Valid() {
		return nil, false
	}
	return &r, true
}
