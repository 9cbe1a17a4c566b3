package routeweb

import (
	"errors"
	"image/png"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/routeweb/gateway"
	"github.com/eringen/routeweb/mapview"
	"github.com/eringen/routeweb/pages"
)

const (
	previewWidth  = 640
	previewHeight = 480
)

func (a *App) handleHome(c echo.Context) error {
	tab := TabFrom(c)
	tab.navigate(tab.Home)
	if c.QueryParam("dismiss") != "" && tab.Home.Mounted() {
		tab.Home.DismissError()
	} else if err := tab.Home.Mount(c.Request().Context()); err != nil && !errors.Is(err, pages.ErrUnmounted) {
		// The slot is best effort; the page still renders without it.
		a.Log.WithError(err).WithField("tab", tab.ID).Warn("replay: consume failed")
	}
	return a.renderHome(c, tab, http.StatusOK)
}

func (a *App) handleSearch(c echo.Context) error {
	tab := TabFrom(c)
	tab.navigate(tab.Home)
	if !tab.Home.Mounted() {
		if err := tab.Home.Mount(c.Request().Context()); err != nil && !errors.Is(err, pages.ErrUnmounted) {
			a.Log.WithError(err).WithField("tab", tab.ID).Warn("replay: consume failed")
		}
	}

	err := tab.Home.Search(c.Request().Context(), pages.SearchInput{
		Origin:      c.FormValue("origin"),
		Destination: c.FormValue("destination"),
		RouteType:   c.FormValue("route_type"),
		VehicleType: c.FormValue("vehicle_type"),
	})
	switch {
	case err == nil, errors.Is(err, pages.ErrInvalid):
		return a.renderHome(c, tab, http.StatusOK)
	case errors.Is(err, pages.ErrBusy):
		return a.renderHome(c, tab, http.StatusConflict)
	case errors.Is(err, pages.ErrUnmounted):
		return c.Redirect(http.StatusSeeOther, "/")
	default:
		// The error is already in the page state. A call that never got an
		// answer says more about the backend than the cached probe does.
		var gerr *gateway.Error
		if errors.As(err, &gerr) && gerr.Status == 0 {
			a.Health.Invalidate()
		}
		return a.renderHome(c, tab, http.StatusOK)
	}
}

func (a *App) renderHome(c echo.Context, tab *Tab, code int) error {
	v := tab.Home.View()
	return RenderStatus(c, code, a.Views.Home(a.page(c, tab, ""), v, mapview.Build(v.Route)))
}

func (a *App) handlePreview(c echo.Context) error {
	tab := TabFrom(c)
	route := tab.Home.View().Route
	if route == nil {
		return echo.ErrNotFound
	}
	img := mapview.RenderPreview(mapview.Build(route), previewWidth, previewHeight)
	c.Response().Header().Set(echo.HeaderContentType, "image/png")
	c.Response().WriteHeader(http.StatusOK)
	return png.Encode(c.Response().Writer, img)
}

type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Error   string `json:"error,omitempty"`
	Tabs    int    `json:"tabs"`
}

func (a *App) handleHealth(c echo.Context) error {
	status, err := a.Health.Status(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, healthResponse{
			Status:  "degraded",
			Backend: "unavailable",
			Error:   gateway.Message(err, "Service unavailable"),
			Tabs:    a.Tabs.Len(),
		})
	}
	return c.JSON(http.StatusOK, healthResponse{
		Status:  "ok",
		Backend: status.Status,
		Tabs:    a.Tabs.Len(),
	})
}

// expireOnAuthFailure drops the tab's identity when the backend refused a
// gated call with 401 or 403; the backend answers 403 when the admin session
// is gone. It reports whether it did.
func expireOnAuthFailure(tab *Tab, err error) bool {
	var gerr *gateway.Error
	if !errors.As(err, &gerr) {
		return false
	}
	switch gerr.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		tab.Session.Expire()
		return true
	}
	return false
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.page(c, TabFrom(c), "Not found")))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Log.WithError(err).WithField("uri", c.Request().RequestURI).Error("server error")
		_ = RenderStatus(c, code, a.Views.ServerError(a.page(c, TabFrom(c), "Error")))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
