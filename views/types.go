package views

// SiteConfig holds the site-wide settings every page is rendered with.
type SiteConfig struct {
	Name    string // SITE_NAME (default "MargaMetis")
	URL     string // SITE_URL  (default "http://localhost:3000")
	Tagline string // shown under the name in the header
}

// PageMeta carries per-page metadata into <head>.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical
}

// Identity is what the header knows about the signed-in user.
type Identity struct {
	LoggedIn bool
	Username string
	Role     string
}

// Page is the frame every view is rendered in.
type Page struct {
	Site     SiteConfig
	Meta     PageMeta
	Identity Identity
	CSRF     string
	Path     string
}

// HourBar is one column of the hourly distribution chart.
type HourBar struct {
	Hour   int
	Count  int
	Height int // px
}
