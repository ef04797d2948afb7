package server

import "errors"

// ErrNoUpstream is reported when a proxied request arrives without an upstream configured.
var ErrNoUpstream = errors.New("no upstream configured")
