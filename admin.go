package routeweb

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/routeweb/gateway"
)

func (a *App) handleAdmin(c echo.Context) error {
	tab := TabFrom(c)
	if !tab.Session.Allows(gateway.RoleAdmin) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	tab.navigate(tab.Admin)
	if err := tab.Admin.Mount(c.Request().Context()); err != nil {
		if expireOnAuthFailure(tab, err) {
			return c.Redirect(http.StatusSeeOther, "/")
		}
	}
	return Render(c, a.Views.AdminDashboard(a.page(c, tab, "Admin Dashboard"), tab.Admin.View()))
}
