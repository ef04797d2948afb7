package lifecycle

import "errors"

var (
	// ErrUnknownStage is returned when registering against a stage that does not exist.
	ErrUnknownStage = errors.New("unknown render stage")

	// ErrDuplicateScript is returned when a script handle is enqueued twice.
	ErrDuplicateScript = errors.New("script handle already enqueued")

	// ErrMissingName is returned when a callback or script is registered without a name.
	ErrMissingName = errors.New("callback name is required")
)
