package config

import "errors"

var (
	// ErrInvalidConfig is returned when a loaded configuration fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConfigExists is returned by WriteTemplate when the target file exists.
	ErrConfigExists = errors.New("config file already exists")
)
