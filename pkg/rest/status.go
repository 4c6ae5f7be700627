package rest

import (
	"fmt"
	"net/http"

	laerr "github.com/ledgerinvesting/ledger-analytics-go/pkg/errors"
)

type StatusCodeRange int

func (sc StatusCodeRange) String() string {
	switch sc {
	case Status1xx:
		return "informational response"
	case Status2xx:
		return "success"
	case Status3xx:
		return "redirect"
	case Status4xx:
		return "client error"
	case Status5xx:
		return "server error"
	default:
		return fmt.Sprintf("unknown (%d)", sc)
	}
}

func StatusCodeRangeOf(code int) StatusCodeRange {
	if code < 100 {
		return StatusUnknown
	}
	if code < 200 {
		return Status1xx
	}
	if code < 300 {
		return Status2xx
	}
	if code < 400 {
		return Status3xx
	}
	if code < 500 {
		return Status4xx
	}
	if code < 600 {
		return Status5xx
	}
	return StatusUnknown
}

const (
	StatusUnknown StatusCodeRange = iota
	Status1xx
	Status2xx
	Status3xx
	Status4xx
	Status5xx
)

// kindOf returns the error kind and its summary for a non-2xx status code.
func kindOf(code int) (error, string) {
	switch code {
	case http.StatusBadRequest:
		return laerr.ErrBadRequest, "bad request"
	case http.StatusForbidden:
		return laerr.ErrAuthorization, "you do not have permissions to perform this action"
	case http.StatusNotFound:
		return laerr.ErrNotFound, "cannot find the given endpoint"
	case http.StatusInternalServerError:
		return laerr.ErrServer, "internal server error"
	default:
		return laerr.ErrRequest, fmt.Sprintf("request failed with %s", StatusCodeRangeOf(code))
	}
}
