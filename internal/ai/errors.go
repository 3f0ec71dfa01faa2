package ai

import "errors"

var (
	// ErrUnavailable means the provider has no usable credentials. Callers
	// treat this as "retrieval not configured", not as a transient failure.
	ErrUnavailable = errors.New("ai provider not configured")

	// ErrEmptyResponse means the model answered but no known response shape
	// carried any text.
	ErrEmptyResponse = errors.New("empty ai response")
)
