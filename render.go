package routeweb

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/routeweb/views"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// page builds the frame a view is rendered in. tab may be nil.
func (a *App) page(c echo.Context, tab *Tab, title string) views.Page {
	p := views.Page{
		Site: views.SiteConfig{
			Name:    a.Config.Name,
			URL:     a.Config.URL,
			Tagline: a.Config.Tagline,
		},
		Meta: views.PageMeta{
			Title:       title,
			Description: a.Config.Description,
			URL:         views.CanonicalURL(a.Config.URL, c.Request().URL.Path),
		},
		CSRF: CsrfToken(c),
		Path: c.Request().URL.Path,
	}
	if tab != nil {
		snap := tab.Session.Snapshot()
		p.Identity = views.Identity{
			LoggedIn: snap.LoggedIn(),
			Username: snap.Username,
			Role:     snap.Role,
		}
	}
	return p
}
