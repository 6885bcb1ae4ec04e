package domain

import "fmt"

// Error kinds surfaced to tool callers in the error_type field.
const (
	ErrKindValidation      = "validation"
	ErrKindDataUnavailable = "data_unavailable"
	ErrKindUpstream        = "upstream"
	ErrKindInternal        = "internal"
)

// ValidationError reports a rejected input parameter before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DataUnavailableError reports that no upstream source could produce the
// requested series, or the series is too short for the requested indicator.
type DataUnavailableError struct {
	Symbol  string
	Message string
}

func (e *DataUnavailableError) Error() string {
	if e.Symbol == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Symbol, e.Message)
}

// UpstreamError reports a transport-level failure talking to a venue.
type UpstreamError struct {
	Venue string
	Op    string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Venue, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// UnsupportedVenueError reports a venue-restricted metric requested from the
// wrong venue, or a venue outside the supported set.
type UnsupportedVenueError struct {
	Venue   string
	Message string
}

func (e *UnsupportedVenueError) Error() string {
	return fmt.Sprintf("%s: %s", e.Venue, e.Message)
}
