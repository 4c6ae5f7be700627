// Error kinds raised by the ledger analytics client.
//
// Every failure returned by this module matches exactly one of the sentinels below
// under errors.Is, so callers can branch on the kind without caring whether the
// failure came from the transport, a local lookup or the task poller.
//
// ```
// if errors.Is(err, laerr.ErrNotFound) { ... }
// ```
//
// Failures which come with an HTTP exchange are *APIError, which also carries the
// status code and the message decoded from the server.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// no credential was given at client construction.
	ErrAuthentication = errors.New("authentication failed")

	// 403
	ErrAuthorization = errors.New("permission denied")

	// 404, including access to an already deleted resource.
	ErrNotFound = errors.New("not found")

	// 400
	ErrBadRequest = errors.New("bad request")

	// 500
	ErrServer = errors.New("internal server error")

	// any other non-2xx response.
	ErrRequest = errors.New("request failed")

	// successful response without an expected field, or not decodable.
	ErrProtocol = errors.New("unexpected response")

	// local name lookup yields no match.
	ErrResourceNotFound = errors.New("resource not found")

	// neither an id nor a name is given, and the handle has no cached id.
	ErrMissingIdentifier = errors.New("missing identifier")

	// registry has no entry for the name.
	ErrUnknownResourceType = errors.New("unknown resource type")

	// a remote task has reached a terminal status other than success.
	ErrTaskFailure = errors.New("task failed")

	// a remote task has not reached a terminal status in time.
	ErrTimeout = errors.New("timeout")
)

type Verbose interface {
	Verbose() string
}

// APIError is an error with its kind, and optionally the HTTP status code,
// the detail message from the server and the cause.
type APIError struct {
	kind    error
	summary string
	status  int
	detail  string
	cause   error
}

type Option func(*APIError) *APIError

// New creates an error of the kind.
//
// # Args
//
// - kind: one of the sentinel errors in this package.
//
// - summary: short human readable description.
//
// - options: WithStatus, WithDetail, WithCause.
func New(kind error, summary string, options ...Option) *APIError {
	err := &APIError{kind: kind, summary: summary}
	for _, o := range options {
		err = o(err)
	}
	return err
}

// WithStatus sets HTTP status code.
func WithStatus(code int) Option {
	return func(e *APIError) *APIError {
		e.status = code
		return e
	}
}

// WithDetail sets the message which the server has sent.
func WithDetail(detail string) Option {
	return func(e *APIError) *APIError {
		e.detail = strings.TrimSpace(detail)
		return e
	}
}

func WithCause(err error) Option {
	return func(e *APIError) *APIError {
		e.cause = err
		return e
	}
}

func (e *APIError) Error() string {
	msg := e.summary
	if msg == "" {
		msg = e.kind.Error()
	}
	if e.status != 0 {
		msg = fmt.Sprintf("%d: %s", e.status, msg)
	}
	if e.detail != "" {
		msg = msg + ", " + e.detail
	}
	return msg
}

// Is reports the kind of this error.
func (e *APIError) Is(target error) bool {
	return target != nil && target == e.kind
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// Kind returns the sentinel error which this error is.
func (e *APIError) Kind() error {
	return e.kind
}

// StatusCode returns HTTP status code, or 0 when the error does not come from a response.
func (e *APIError) StatusCode() int {
	return e.status
}

// Detail returns the message from the server.
func (e *APIError) Detail() string {
	return e.detail
}

// Verbose returns the message with the chain of causes.
func (e *APIError) Verbose() string {
	message := []string{e.Error() + " (" + e.kind.Error() + ")"}

	switch cause := e.cause.(type) {
	case nil:
		// no-op
	case Verbose:
		message = append(message, "caused by: ", cause.Verbose())
	default:
		message = append(message, "caused by: ", cause.Error())
	}
	return strings.Join(message, "\n")
}

// StatusCodeOf returns the HTTP status code carried by err (or its causes).
//
// When no *APIError is found, it returns 0.
func StatusCodeOf(err error) int {
	var apierr *APIError
	if errors.As(err, &apierr) {
		return apierr.status
	}
	return 0
}
