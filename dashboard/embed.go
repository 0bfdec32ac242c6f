// Package dashboard provides the embedded web UI of the fluxus devtools
// inspector.
//
// The page is compiled into the binary with Go's embed directive, so the
// inspector needs no external asset files. It is served by the devtools
// package at the root path ("/") and talks to the JSON API under "/api".
package dashboard

import "embed"

// Assets is an embedded filesystem containing the inspector page.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Inspector page with inline CSS and JavaScript
//
// The page contains a {{.Title}} placeholder that the server replaces with
// the configured title.
//
//go:embed assets/*
var Assets embed.FS
