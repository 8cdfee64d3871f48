package client

import "errors"

var (
	// ErrServerNotRunning is returned when nothing listens on the dashboard address
	ErrServerNotRunning = errors.New("dashboard server not running")

	// ErrNotFound is returned when 404 is returned from the dashboard
	ErrNotFound = errors.New("404 not found")
)
