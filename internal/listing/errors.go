package listing

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest marks lookup requests rejected before any upstream call.
var ErrInvalidRequest = errors.New("invalid request")

// Upstream operations, used in errors, logs and metrics.
const (
	OpMetadata     = "metadata"
	OpDetails      = "details"
	OpPrice        = "price"
	OpPageMetadata = "page_metadata"
)

// UpstreamError reports a failed provider or network call. It aborts the lookup.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s fetch failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ParseError reports a mandatory field missing from an otherwise successful
// upstream response. It aborts the lookup.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("parsing %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("parsing %s from %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
