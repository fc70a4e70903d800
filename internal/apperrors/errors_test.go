package apperrors

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestNotFoundWrapped(t *testing.T) {
	err := fmt.Errorf("load match: %w", &NotFoundError{Resource: "match", ID: "42"})
	if !IsNotFound(err) {
		t.Error("expected wrapped NotFoundError to match ErrNotFound")
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ID != "42" {
		t.Errorf("errors.As: got %+v", nf)
	}
}

func TestUpstreamRateLimited(t *testing.T) {
	err := &UpstreamError{Endpoint: "/matches/1", Status: 429, Message: "Too Many Requests"}
	if !IsRateLimited(err) {
		t.Error("429 UpstreamError should report rate limited")
	}
	if IsRateLimited(&UpstreamError{Endpoint: "/x", Status: 500}) {
		t.Error("500 should not report rate limited")
	}
	if got := err.Error(); got != "upstream /matches/1: HTTP 429: Too Many Requests" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestMalformedIsAndUnwrap(t *testing.T) {
	err := &MalformedDataError{Source: "match", Reason: "decode", Err: io.ErrUnexpectedEOF}
	if !errors.Is(err, ErrMalformed) {
		t.Error("expected errors.Is(err, ErrMalformed)")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("expected cause to be reachable")
	}
}
