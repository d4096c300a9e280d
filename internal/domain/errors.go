package domain

import "errors"

// Domain errors shared across stores and services.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Catalog errors
var (
	ErrProblemNotFound = errors.New("problem not found")
)

// Sandbox errors
var (
	// ErrLoadFailure marks a submission that could not be parsed or invoked
	// at all, as opposed to one that raised during a single case.
	ErrLoadFailure = errors.New("candidate code failed to load")

	// ErrSandboxUnavailable marks a sandbox backend that cannot be reached.
	ErrSandboxUnavailable = errors.New("sandbox unavailable")
)

// Assistant errors
var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrNoProvider          = errors.New("no ai provider configured")
)
