package apperrors

import (
	"context"
	"errors"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrExtractionEmpty     = errors.New("extraction yielded no text")
)

// Kind classifies an error chain for outcome reporting.
type Kind string

const (
	KindNone                Kind = ""
	KindNotFound            Kind = "not_found"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindInvalidInput        Kind = "invalid_input"
	KindExtractionEmpty     Kind = "extraction_empty"
	KindUnexpected          Kind = "unexpected"
)

// KindOf maps err to its taxonomy kind. Deadline expiry counts as upstream
// unavailability since every outbound call carries a deadline.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrExtractionEmpty):
		return KindExtractionEmpty
	case errors.Is(err, ErrUpstreamUnavailable), errors.Is(err, context.DeadlineExceeded):
		return KindUpstreamUnavailable
	default:
		return KindUnexpected
	}
}
