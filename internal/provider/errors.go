package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrFixtureNotFound is returned in replay mode when no fixture file
	// matches the request.
	ErrFixtureNotFound = errors.New("replay fixture not found")
	// ErrCacheOnly is returned when live fetch is disabled and the cache
	// has no entry.
	ErrCacheOnly = errors.New("no cached data available and live fetch is disabled")
)

// UpstreamError is a non-2xx response from the live provider.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("provider %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// FixtureError names the fixtures tried before giving up.
type FixtureError struct {
	Attempted []string
}

func (e *FixtureError) Error() string {
	if len(e.Attempted) == 0 {
		return ErrFixtureNotFound.Error()
	}
	return fmt.Sprintf("%s: %s", ErrFixtureNotFound, e.Attempted[0])
}

func (e *FixtureError) Unwrap() error { return ErrFixtureNotFound }
