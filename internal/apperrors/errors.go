// Package apperrors defines the error taxonomy shared by the gateway and the
// analysis pipeline.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrMalformed   = errors.New("malformed data")
	ErrRateLimited = errors.New("rate limited")
)

// UpstreamError is a non-2xx response or transport failure from the data source.
// Status is 0 for transport failures.
type UpstreamError struct {
	Endpoint string
	Status   int
	Message  string
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream %s: %s", e.Endpoint, e.Message)
	}
	return fmt.Sprintf("upstream %s: HTTP %d: %s", e.Endpoint, e.Status, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	if e.Status == 429 {
		return ErrRateLimited
	}
	return nil
}

// NotFoundError reports that a requested match or player does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// MalformedDataError reports missing or invalid fields on an otherwise
// successful response.
type MalformedDataError struct {
	Source string
	Reason string
	Err    error
}

func (e *MalformedDataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed %s: %s", e.Source, e.Reason)
}

// Is lets errors.Is match ErrMalformed while Unwrap exposes the decode cause.
func (e *MalformedDataError) Is(target error) bool { return target == ErrMalformed }

func (e *MalformedDataError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsRateLimited reports whether err is an exhausted 429 response.
func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }
