package pages

import (
	"context"
	"strings"
	"sync"

	"github.com/eringen/routeweb/gateway"
	"github.com/eringen/routeweb/session"
)

// Auth modal modes.
const (
	ModeLogin    = "login"
	ModeRegister = "register"
)

// AuthView is a snapshot of the auth modal.
type AuthView struct {
	Open     bool
	Mode     string
	Username string
	Role     string
	Loading  bool
	Error    string
	// Registered is set after a successful registration switched the modal
	// to login.
	Registered bool
}

// Auth is the login/register modal. Both modes share one error slot.
type Auth struct {
	lifecycle
	session   *session.Store
	registrar Registrar

	mu    sync.Mutex
	state AuthView
}

func NewAuth(s *session.Store, r Registrar) *Auth {
	return &Auth{session: s, registrar: r}
}

func (a *Auth) View() AuthView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Open shows the modal in mode with an empty form.
func (a *Auth) Open(mode string) {
	a.mount()
	a.mu.Lock()
	a.state = AuthView{Open: true, Mode: normalizeMode(mode), Role: gateway.RoleUser}
	a.mu.Unlock()
}

// Close hides the modal and forgets the form.
func (a *Auth) Close() {
	a.Unmount()
	a.mu.Lock()
	a.state = AuthView{}
	a.mu.Unlock()
}

// SwitchMode changes mode and clears the error.
func (a *Auth) SwitchMode(mode string) {
	a.mu.Lock()
	a.state.Mode = normalizeMode(mode)
	a.state.Error = ""
	a.state.Registered = false
	a.mu.Unlock()
}

// Login signs in through the session store. On success the modal closes.
func (a *Auth) Login(ctx context.Context, username, password string) error {
	gen, err := a.begin(ModeLogin, username, "")
	if err != nil {
		return err
	}
	defer a.release(gen)

	if err := a.session.Login(ctx, username, password); err != nil {
		a.fail(gen, gateway.Message(err, "Login failed"))
		return err
	}
	a.Close()
	return nil
}

// Register creates an account and switches to login mode. It does not sign
// the user in.
func (a *Auth) Register(ctx context.Context, username, password, role string) error {
	role = strings.TrimSpace(role)
	if role != gateway.RoleAdmin {
		role = gateway.RoleUser
	}
	gen, err := a.begin(ModeRegister, username, role)
	if err != nil {
		return err
	}
	defer a.release(gen)

	if err := a.registrar.Register(ctx, username, password, role); err != nil {
		a.fail(gen, gateway.Message(err, "Registration failed"))
		return err
	}
	if !a.current(gen) {
		return ErrUnmounted
	}
	a.mu.Lock()
	a.state.Mode = ModeLogin
	a.state.Registered = true
	a.mu.Unlock()
	return nil
}

func (a *Auth) begin(mode, username, role string) (uint64, error) {
	if !a.Mounted() {
		a.Open(mode)
	}
	gen := a.generation()
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.Loading {
		return 0, ErrBusy
	}
	a.state.Mode = mode
	a.state.Username = username
	if role != "" {
		a.state.Role = role
	}
	a.state.Loading = true
	a.state.Error = ""
	a.state.Registered = false
	return gen, nil
}

func (a *Auth) fail(gen uint64, msg string) {
	if !a.current(gen) {
		return
	}
	a.mu.Lock()
	a.state.Error = msg
	a.mu.Unlock()
}

func (a *Auth) release(gen uint64) {
	if a.generation() != gen {
		return
	}
	a.mu.Lock()
	a.state.Loading = false
	a.mu.Unlock()
}

func normalizeMode(mode string) string {
	if mode == ModeRegister {
		return ModeRegister
	}
	return ModeLogin
}
