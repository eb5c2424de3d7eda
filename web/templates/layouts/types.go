package layouts

// Flash is one inline status message.
type Flash struct {
	Msg  string
	Kind string // "success", "error", "warning", "info"
}

// AppLayoutData is passed to the layout template to configure the page shell.
type AppLayoutData struct {
	Title     string
	Email     string // signed-in user; empty on the login page
	ActiveNav string // "inventory", "sales", "expenses", "dashboard"
	Flashes   []Flash
	// Scripts are page-specific files under /static/.
	Scripts []string
}

// Flash appends a message to the page.
func (d *AppLayoutData) Flash(msg, kind string) {
	if msg == "" {
		return
	}
	d.Flashes = append(d.Flashes, Flash{Msg: msg, Kind: kind})
}
