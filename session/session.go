// Package session tracks who the current tab is signed in as.
package session

import (
	"context"
	"sync"

	"github.com/eringen/routeweb/gateway"
)

// State is the position of a Store in its state machine.
type State int

const (
	// Unknown is the state before the first backend probe resolves.
	Unknown State = iota
	Anonymous
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of a Store.
type Snapshot struct {
	State    State
	Username string
	Role     string
}

// LoggedIn reports whether the snapshot carries an identity.
func (s Snapshot) LoggedIn() bool {
	return s.State == Authenticated
}

// Authenticator is the subset of the auth gateway the store needs.
type Authenticator interface {
	Me(ctx context.Context) (gateway.MeResponse, error)
	Login(ctx context.Context, username, password string) (gateway.LoginResponse, error)
	Logout(ctx context.Context) error
}

// Store holds the identity of one tab. Access control derived from it is a
// presentation concern only; the backend authorises every gated call.
type Store struct {
	auth Authenticator

	boot sync.Mutex

	mu     sync.Mutex
	snap   Snapshot
	subs   map[int]func(Snapshot)
	nextID int
}

// New returns a Store in the Unknown state.
func New(auth Authenticator) *Store {
	return &Store{
		auth: auth,
		subs: make(map[int]func(Snapshot)),
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Bootstrap probes the backend session once. It only acts while the store is
// Unknown; any failure of the probe resolves to Anonymous.
func (s *Store) Bootstrap(ctx context.Context) Snapshot {
	s.boot.Lock()
	defer s.boot.Unlock()

	if cur := s.Snapshot(); cur.State != Unknown {
		return cur
	}

	next := Snapshot{State: Anonymous}
	if me, err := s.auth.Me(ctx); err == nil && me.LoggedIn {
		next = Snapshot{State: Authenticated, Username: me.Username, Role: me.Role}
	}
	s.set(next)
	return next
}

// Login authenticates against the backend. On success the role is the one
// the backend reported; on failure the state is left as it was.
func (s *Store) Login(ctx context.Context, username, password string) error {
	res, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return err
	}
	s.set(Snapshot{State: Authenticated, Username: username, Role: res.Role})
	return nil
}

// Logout ends the backend session. The store only becomes Anonymous when the
// backend confirms.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.auth.Logout(ctx); err != nil {
		return err
	}
	s.set(Snapshot{State: Anonymous})
	return nil
}

// Expire drops the identity after the backend reported that the session no
// longer exists.
func (s *Store) Expire() {
	if s.Snapshot().State == Anonymous {
		return
	}
	s.set(Snapshot{State: Anonymous})
}

// Allows reports whether a view gated on role may be shown. Unknown and
// Anonymous never pass.
func (s *Store) Allows(role string) bool {
	snap := s.Snapshot()
	return snap.State == Authenticated && snap.Role == role
}

// Subscribe registers fn to receive a snapshot after every transition. The
// returned func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) set(next Snapshot) {
	s.mu.Lock()
	s.snap = next
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}
