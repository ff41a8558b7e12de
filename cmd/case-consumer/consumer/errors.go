package consumer

import (
	"errors"
	"fmt"
)

// Kind classifies a processing failure. The retry policy is the same for
// every kind (fixed backoff, unbounded), so classification drives
// logging and operator visibility, not control flow. A malformed event
// therefore blocks its partition until an operator intervenes.
type Kind string

const (
	// KindTransient covers infrastructure failures expected to clear
	// on their own: store unavailable, timeouts, broker hiccups.
	KindTransient Kind = "transient"

	// KindMalformed covers events that can never be applied: unknown
	// kind, missing fields, payload failing validation.
	KindMalformed Kind = "malformed"
)

// ClassifiedError tags an error with its failure kind
type ClassifiedError struct {
	Kind Kind
	Err  error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Malformed wraps an error as a malformed-event failure
func Malformed(err error) error {
	return &ClassifiedError{Kind: KindMalformed, Err: err}
}

// Malformedf is Malformed with formatting
func Malformedf(format string, args ...any) error {
	return Malformed(fmt.Errorf(format, args...))
}

// Classify returns the failure kind of an error. Anything not explicitly
// tagged is treated as transient and retried.
func Classify(err error) Kind {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return KindTransient
}
