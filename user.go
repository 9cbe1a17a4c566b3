package routeweb

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eringen/routeweb/gateway"
	"github.com/eringen/routeweb/pages"
)

// enterUser gates the user dashboard and mounts it if another page was shown.
func (a *App) enterUser(c echo.Context) (*Tab, bool) {
	tab := TabFrom(c)
	if !tab.Session.Allows(gateway.RoleUser) {
		return tab, false
	}
	tab.navigate(tab.User)
	if !tab.User.Mounted() {
		tab.User.Mount()
	}
	return tab, true
}

func (a *App) handleUser(c echo.Context) error {
	tab, ok := a.enterUser(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	tabName := c.QueryParam("tab")
	if tabName == "" {
		tabName = pages.TabHistory
	}
	if err := tab.User.SelectTab(c.Request().Context(), tabName, page); err != nil {
		if expireOnAuthFailure(tab, err) {
			return c.Redirect(http.StatusSeeOther, "/")
		}
	}
	return Render(c, a.Views.UserDashboard(a.page(c, tab, "User Dashboard"), tab.User.View()))
}

func (a *App) handleViewOnMap(c echo.Context) error {
	tab, ok := a.enterUser(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.ErrNotFound
	}
	next, err := tab.User.ViewOnMap(c.Request().Context(), id)
	if err != nil {
		if expireOnAuthFailure(tab, err) {
			return c.Redirect(http.StatusSeeOther, "/")
		}
		return Render(c, a.Views.UserDashboard(a.page(c, tab, "User Dashboard"), tab.User.View()))
	}
	return c.Redirect(http.StatusSeeOther, next)
}
