package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind is the closed taxonomy of failures the transport layer can
// surface. Every failure maps to exactly one kind; nothing else leaks
// upward. Callers switch on Kind for exhaustive handling.
type ErrorKind int

const (
	// ErrInvalidAddress means the host:port string is malformed.
	// Never retryable; the user has to edit the address.
	ErrInvalidAddress ErrorKind = iota
	// ErrTimeout means a connect/read/write deadline was exceeded
	ErrTimeout
	// ErrUnreachableHost means a low-level I/O failure such as
	// connection refused, reset or DNS resolution failure
	ErrUnreachableHost
	// ErrHTTP means the server answered with a non-success status
	ErrHTTP
	// ErrMalformedResponse means the body could not be parsed into
	// the expected shape
	ErrMalformedResponse
	// ErrAssetDownload means an asset fetch or persist failed during
	// materialization
	ErrAssetDownload
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidAddress:
		return "invalid_address"
	case ErrTimeout:
		return "timeout"
	case ErrUnreachableHost:
		return "unreachable_host"
	case ErrHTTP:
		return "http"
	case ErrMalformedResponse:
		return "malformed_response"
	case ErrAssetDownload:
		return "asset_download"
	default:
		return "unknown"
	}
}

// Error is a classified transport failure
type Error struct {
	Kind    ErrorKind
	Code    int // HTTP status, set for ErrHTTP only
	Message string
	cause   error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrTimeout:
		return "request timed out"
	case ErrHTTP:
		return fmt.Sprintf("HTTP %d: %s", e.Code, e.Message)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Retryable reports whether the failure class may be transient. Only a
// malformed address is permanent: the user must fix it before the same
// call can ever succeed. Timeouts, unreachable hosts, HTTP errors and
// malformed responses are all treated as server-side or mid-upgrade
// conditions worth retrying.
func Retryable(err error) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind != ErrInvalidAddress
	}
	return err != nil
}

// AsError extracts the classified form of err, if any
func AsError(err error) (*Error, bool) {
	var re *Error
	ok := errors.As(err, &re)
	return re, ok
}

// classify maps a raw error from the HTTP client into the taxonomy.
// Deadline errors become ErrTimeout, everything else at the socket
// level becomes ErrUnreachableHost.
func classify(err error) error {
	var re *Error
	if errors.As(err, &re) {
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: ErrTimeout, Message: "request timed out", cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: ErrTimeout, Message: "request timed out", cause: err}
	}

	return &Error{Kind: ErrUnreachableHost, Message: fmt.Sprintf("unable to reach host: %v", err), cause: err}
}
