package consent

import "errors"

var (
	// ErrUnknownSignature is returned when a signature code is in neither the
	// default nor the override mapping table.
	ErrUnknownSignature = errors.New("unknown consent signature")

	// ErrMalformedSignature is returned when a signature code cannot be parsed.
	ErrMalformedSignature = errors.New("malformed consent signature")
)
