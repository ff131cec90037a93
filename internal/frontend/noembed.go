//go:build !embed

// Package frontend serves the demo dashboard. Built with -tags embed the
// page ships inside the binary; otherwise Handler returns nil and the
// server exposes no dashboard.
package frontend

import "net/http"

func Handler() http.Handler { return nil }
