package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the item domain. Use errors.Is() to check these.
var (
	// ErrItemNotFound indicates the requested item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrItemAlreadyExists indicates an item with the same id already exists.
	ErrItemAlreadyExists = errors.New("item already exists")

	// ErrMalformedBody indicates the request body is not decodable JSON.
	ErrMalformedBody = errors.New("request body is not valid JSON")

	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")
)

// ValidationKind classifies a schema violation.
type ValidationKind string

const (
	MissingField    ValidationKind = "MissingField"
	TypeMismatch    ValidationKind = "TypeMismatch"
	PatternMismatch ValidationKind = "PatternMismatch"
	LengthExceeded  ValidationKind = "LengthExceeded"
	EnumMismatch    ValidationKind = "EnumMismatch"
	FormatInvalid   ValidationKind = "FormatInvalid"
)

// ValidationError is the first schema violation found in a document.
type ValidationError struct {
	Kind   ValidationKind
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Field)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Detail)
}

// Is reports ErrValidation as a match so callers can branch without errors.As.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// SinkErrorKind classifies a failed publish to a downstream sink.
type SinkErrorKind string

const (
	SinkUnavailable SinkErrorKind = "Unavailable"
	SinkRejected    SinkErrorKind = "Rejected"
	SinkTimeout     SinkErrorKind = "Timeout"
)

// SinkError wraps a failure reported by a notification or stream sink.
type SinkError struct {
	Sink string
	Kind SinkErrorKind
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("%s sink %s: %v", e.Sink, e.Kind, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// DispatchErrorKind classifies the overall outcome of a failed dispatch.
type DispatchErrorKind string

const (
	// NotificationDegraded is never returned to clients; the item is ingested.
	NotificationDegraded DispatchErrorKind = "NotificationDegraded"
	// StreamFailed means the durable audit record was not written.
	StreamFailed DispatchErrorKind = "StreamFailed"
)

// DispatchError reports a dispatch outcome that is not a clean success.
type DispatchError struct {
	Kind DispatchErrorKind
	Err  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s: %v", e.Kind, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
