// Package errs defines the error taxonomy shared by the downloader.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the fatal-vs-skip decision.
type Kind string

// Error kinds.
const (
	KindConfiguration Kind = "CONFIGURATION_ERROR"
	KindTransport     Kind = "TRANSPORT_ERROR"
	KindAPIFormat     Kind = "API_FORMAT_ERROR"
	KindHTTPStatus    Kind = "HTTP_STATUS_ERROR"
	KindIO            Kind = "IO_ERROR"
)

// Error carries a kind, the failing operation and an optional cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an error of the given kind.
func New(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause}
}

// Configuration reports a bad or unloadable configuration.
func Configuration(op, message string, cause error) *Error {
	return New(KindConfiguration, op, message, cause)
}

// Transport reports a network, DNS or TLS failure.
func Transport(op, message string, cause error) *Error {
	return New(KindTransport, op, message, cause)
}

// APIFormat reports an envelope or payload that does not have the expected shape.
func APIFormat(op, message string, cause error) *Error {
	return New(KindAPIFormat, op, message, cause)
}

// HTTPStatus reports a non-200 response.
func HTTPStatus(op string, status int, body string) *Error {
	return New(KindHTTPStatus, op, fmt.Sprintf("received error %d from server: %s", status, body), nil)
}

// IO reports a local filesystem failure.
func IO(op, message string, cause error) *Error {
	return New(KindIO, op, message, cause)
}

// KindOf returns the kind of the first *Error in the chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k kinded
	if errors.As(err, &k) {
		return k.ErrorKind()
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// kinded lets other packages' error types join the taxonomy without wrapping.
type kinded interface {
	error
	ErrorKind() Kind
}
