package plugin

import "errors"

var (
	// ErrStopped is returned by readiness checks after Stop was called.
	ErrStopped = errors.New("plugin stopped")

	// ErrUnsupportedNetwork is returned when listening on anything but unix or tcp.
	ErrUnsupportedNetwork = errors.New("unsupported network")

	// ErrMissingAddress is returned when no listen address is given.
	ErrMissingAddress = errors.New("listen address is required")
)
