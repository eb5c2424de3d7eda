package web

import "embed"

// Static holds the embedded web/static directory.
// Handlers access it via fs.Sub(Static, "static").
//
//go:embed static
var Static embed.FS

// Templates holds the page templates. Every page is parsed together with layout.html.
//
//go:embed templates/*.html
var Templates embed.FS
