// Package web holds the page templates and static files compiled into the
// server binary.
package web

import "embed"

// TemplatesFS holds the page and partial templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and the client script.
//
//go:embed static/*
var StaticFS embed.FS
