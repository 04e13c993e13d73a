package config

import "errors"

// Configuration validation errors.
// Package-level sentinel errors keep messages consistent and let callers
// use errors.Is for programmatic handling.
var (
	// ErrNoBaseURL is returned when the directory base URL is empty.
	ErrNoBaseURL = errors.New("no base URL configured")

	// ErrInvalidRange is returned when the hospital ID range does not
	// parse as "start-end" with positive, ordered bounds.
	ErrInvalidRange = errors.New("invalid hospital ID range: want \"start-end\" with 0 < start <= end")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDelay is returned when the politeness delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidMaxPages is returned when the per-department page cap is
	// not positive.
	ErrInvalidMaxPages = errors.New("invalid max doctor pages: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to fall back to the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified for export.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
