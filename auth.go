package routeweb

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/routeweb/mapview"
	"github.com/eringen/routeweb/pages"
)

const msgTooManyLogins = "Too many login attempts. Try again later."

func (a *App) handleAuth(c echo.Context) error {
	tab := TabFrom(c)
	if c.QueryParam("close") != "" || tab.Session.Snapshot().LoggedIn() {
		tab.Auth.Close()
		return c.Redirect(http.StatusSeeOther, "/")
	}
	mode := c.QueryParam("mode")
	if tab.Auth.View().Open {
		if mode != "" {
			tab.Auth.SwitchMode(mode)
		}
	} else {
		tab.Auth.Open(mode)
	}
	return a.renderAuth(c, tab, http.StatusOK)
}

func (a *App) handleLogin(c echo.Context) error {
	tab := TabFrom(c)
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, msgTooManyLogins)
	}
	err := tab.Auth.Login(c.Request().Context(), c.FormValue("username"), c.FormValue("password"))
	switch {
	case err == nil:
		return c.Redirect(http.StatusSeeOther, "/")
	case errors.Is(err, pages.ErrBusy):
		return a.renderAuth(c, tab, http.StatusConflict)
	default:
		a.loginLimiter.Record(ip)
		return a.renderAuth(c, tab, http.StatusOK)
	}
}

func (a *App) handleRegister(c echo.Context) error {
	tab := TabFrom(c)
	err := tab.Auth.Register(c.Request().Context(), c.FormValue("username"), c.FormValue("password"), c.FormValue("role"))
	if errors.Is(err, pages.ErrBusy) {
		return a.renderAuth(c, tab, http.StatusConflict)
	}
	return a.renderAuth(c, tab, http.StatusOK)
}

func (a *App) handleLogout(c echo.Context) error {
	tab := TabFrom(c)
	if err := tab.Session.Logout(c.Request().Context()); err != nil {
		a.Log.WithError(err).WithField("tab", tab.ID).Warn("logout failed")
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) renderAuth(c echo.Context, tab *Tab, code int) error {
	home := tab.Home.View()
	return RenderStatus(c, code, a.Views.Auth(a.page(c, tab, "Sign in"), tab.Auth.View(), home, mapview.Build(home.Route)))
}
