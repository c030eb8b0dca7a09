package config

import "errors"

var (
	// ErrParsingConfig wraps env parsing failures, such as a missing required
	// variable or a value of the wrong type.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrNilPointer is returned when a loader receives a nil target.
	ErrNilPointer = errors.New("nil pointer provided to config loader")

	// ErrLoadingEnvFile is returned when an explicitly requested .env file
	// cannot be read.
	ErrLoadingEnvFile = errors.New("failed to load env file")

	// ErrParsingFile is returned when a YAML file cannot be read or decoded.
	ErrParsingFile = errors.New("failed to parse config file")
)
