// Package rpcerr maps the system's error kinds onto grpc status codes so
// every service speaks the same vocabulary over the wire, and back onto HTTP
// status codes at the frontend's edge.
package rpcerr

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind is one of the error kinds surfaced across the system.
type Kind string

const (
	NotFound            Kind = "not-found"
	InvalidArgument     Kind = "invalid-argument"
	InsufficientStock   Kind = "insufficient-stock"
	UpstreamUnavailable Kind = "upstream-unavailable"
	UpstreamInternal    Kind = "upstream-internal"
	Internal            Kind = "internal"
)

var kindToCode = map[Kind]codes.Code{
	NotFound:            codes.NotFound,
	InvalidArgument:     codes.InvalidArgument,
	InsufficientStock:   codes.FailedPrecondition,
	UpstreamUnavailable: codes.Unavailable,
	UpstreamInternal:    codes.Internal,
	Internal:            codes.Internal,
}

var codeToHTTP = map[codes.Code]int{
	codes.NotFound:           404,
	codes.InvalidArgument:    400,
	codes.FailedPrecondition: 400,
	codes.Unavailable:        500,
	codes.DeadlineExceeded:   500,
	codes.Internal:           500,
	codes.OK:                 200,
}

// New builds a grpc status error for the given kind and message.
func New(kind Kind, message string) error {
	return status.Error(kindToCode[kind], message)
}

// HTTPStatus maps a grpc status code observed by the frontend to an HTTP
// status code for the client-facing error envelope.
func HTTPStatus(c codes.Code) int {
	if s, ok := codeToHTTP[c]; ok {
		return s
	}
	return 500
}

// IsRetryable reports whether the frontend should attempt re-election and a
// single retry for this code, per the propagation policy: only
// upstream-unavailable and deadline-exceeded on Order calls are recoverable
// locally.
func IsRetryable(c codes.Code) bool {
	return c == codes.Unavailable || c == codes.DeadlineExceeded
}

// CodeOf extracts the grpc status code from err, defaulting to Unknown for
// a non-status error (e.g. one that never reached the wire).
func CodeOf(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if st, ok := status.FromError(err); ok {
		return st.Code()
	}
	return codes.Unknown
}
