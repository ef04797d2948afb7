package consent

import "context"

// Probe reports which capabilities the host environment exposes. It is how
// integrations are detected: an integration whose tracking callback or script
// handle is absent is simply not installed.
type Probe interface {
	// HasAction reports whether a callback with the given name is attached to stage.
	HasAction(stage Stage, callback string) bool

	// HasScript reports whether a script is registered under handle.
	HasScript(handle string) bool
}

// OutputFilter rewrites the buffered output of a render stage.
// Filters must not fail: on any problem they return the input unchanged.
type OutputFilter func(ctx context.Context, stage Stage, buf string) string

// ScriptFilter intercepts a script registration and returns the attributes
// the script tag is rendered with.
type ScriptFilter func(handle, src string, attrs Attributes) Attributes
