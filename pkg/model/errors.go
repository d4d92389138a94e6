package model

import (
	"context"
	"errors"
	"fmt"
)

// Feature errors.
var (
	ErrAttributeNotFound     = errors.New("attribute not found")
	ErrNotificationNotFound  = errors.New("notification not found")
	ErrInvalidAttributeValue = errors.New("invalid attribute value")
	ErrUnsupportedOperation  = errors.New("unsupported operation")
	ErrValueExpired          = errors.New("attribute value expired")
	ErrInternal              = errors.New("internal error")
	ErrListenerNotFound      = errors.New("listener not found")
)

// Refinements of the base errors above.
var (
	ErrFeatureDisconnected  = fmt.Errorf("%w: feature disconnected", ErrAttributeNotFound)
	ErrAttributeNotWritable = fmt.Errorf("%w: attribute is read-only", ErrUnsupportedOperation)
	ErrAttributeNotNullable = fmt.Errorf("%w: attribute does not accept null", ErrInvalidAttributeValue)
	ErrAttributeValueType   = fmt.Errorf("%w: invalid value type", ErrInvalidAttributeValue)
	ErrAttributeOutOfRange  = fmt.Errorf("%w: value out of range", ErrInvalidAttributeValue)
)

// InternalError wraps an unexpected backend failure.
type InternalError struct {
	// Op is the operation that failed ("get", "set", ...).
	Op string

	// Resource and Feature locate the failure.
	Resource string
	Feature  string

	// Err is the backend cause.
	Err error
}

// Error implements error.
func (e *InternalError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Resource, e.Feature, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Feature, e.Err)
}

// Unwrap returns the backend cause.
func (e *InternalError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInternal) true for every InternalError.
func (e *InternalError) Is(target error) bool { return target == ErrInternal }

// Category is the failure class a caller must be prepared to handle.
type Category uint8

const (
	// CategoryNone means no error.
	CategoryNone Category = iota

	// CategoryNotFound means the resource or feature is absent.
	CategoryNotFound

	// CategoryInvalidValue means the value or operation was rejected.
	CategoryInvalidValue

	// CategoryInternal means the backend failed unexpectedly.
	CategoryInternal

	// CategoryStale means the value exists but is older than its
	// freshness window.
	CategoryStale
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryNone:
		return "ok"
	case CategoryNotFound:
		return "not_found"
	case CategoryInvalidValue:
		return "invalid_value"
	case CategoryInternal:
		return "internal"
	case CategoryStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Classify returns the category of err. Errors outside the taxonomy are
// internal.
func Classify(err error) Category {
	switch {
	case err == nil:
		return CategoryNone
	case errors.Is(err, ErrAttributeNotFound), errors.Is(err, ErrNotificationNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrInvalidAttributeValue), errors.Is(err, ErrUnsupportedOperation):
		return CategoryInvalidValue
	case errors.Is(err, ErrValueExpired):
		return CategoryStale
	default:
		return CategoryInternal
	}
}

// Translate maps a backend error into the taxonomy. Errors already in the
// taxonomy are returned unchanged; anything else, including context
// deadline errors, is wrapped in an InternalError.
func Translate(op, resource, feature string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrAttributeNotFound),
		errors.Is(err, ErrNotificationNotFound),
		errors.Is(err, ErrInvalidAttributeValue),
		errors.Is(err, ErrUnsupportedOperation),
		errors.Is(err, ErrValueExpired),
		errors.Is(err, ErrInternal):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return &InternalError{Op: op, Resource: resource, Feature: feature, Err: fmt.Errorf("timed out: %w", err)}
	}
	return &InternalError{Op: op, Resource: resource, Feature: feature, Err: err}
}
