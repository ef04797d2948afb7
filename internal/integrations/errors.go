package integrations

import "errors"

// ErrUnknownIntegration is returned when an integration option name is not in the catalog.
var ErrUnknownIntegration = errors.New("unknown integration")
