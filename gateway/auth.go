package gateway

import (
	"context"
	"net/http"
)

// AuthClient calls the /auth namespace with the shared cookie jar.
type AuthClient struct {
	c *client
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// Register creates an account. The role is sent as chosen; whether the
// backend honours it is up to the backend.
func (a *AuthClient) Register(ctx context.Context, username, password, role string) error {
	body := credentials{Username: username, Password: password, Role: role}
	return a.c.call(ctx, http.MethodPost, "/register", nil, body, nil, "Registration failed")
}

// Login authenticates and returns the role reported by the backend.
func (a *AuthClient) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	var out LoginResponse
	body := credentials{Username: username, Password: password}
	if err := a.c.call(ctx, http.MethodPost, "/login", nil, body, &out, "Login failed"); err != nil {
		return LoginResponse{}, err
	}
	if !out.Success {
		return LoginResponse{}, &Error{Status: http.StatusOK, Message: "Login failed"}
	}
	return out, nil
}

// Logout ends the backend session.
func (a *AuthClient) Logout(ctx context.Context) error {
	return a.c.call(ctx, http.MethodPost, "/logout", nil, nil, nil, "Logout failed")
}

// Me reports the caller's backend session.
func (a *AuthClient) Me(ctx context.Context) (MeResponse, error) {
	var out MeResponse
	if err := a.c.call(ctx, http.MethodGet, "/me", nil, nil, &out, "Not logged in"); err != nil {
		return MeResponse{}, err
	}
	return out, nil
}
