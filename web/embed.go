// Package web provides embedded static assets, templates and markup blocks
// for the web application.
package web

import "embed"

// TemplatesFS contains the embedded HTML templates.
//
//go:embed all:templates
var TemplatesFS embed.FS

// StaticFS contains the embedded static assets (CSS, JS).
//
//go:embed all:static
var StaticFS embed.FS

// BlocksFS contains the markup block document.
//
//go:embed blocks.html
var BlocksFS embed.FS

// BlocksFile names the block document inside BlocksFS.
const BlocksFile = "blocks.html"
