package tasks

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Status of a remote task.
//
// Server sends these in any case; use ParseStatus to compare.
type Status string

const (
	// Created is the initial status. It is never observed from the server.
	Created    Status = "CREATED"
	Pending    Status = "PENDING"
	Success    Status = "SUCCESS"
	Failure    Status = "FAILURE"
	Terminated Status = "TERMINATED"
	Timeout    Status = "TIMEOUT"
	NotFound   Status = "NOT_FOUND"
)

var known = sets.New(Created, Pending, Success, Failure, Terminated, Timeout, NotFound)

var terminal = sets.New(Success, Failure, Terminated, Timeout, NotFound)

// ParseStatus converts a status string from the server into Status.
//
// Comparison is case-insensitive. Unrecognized statuses are ongoing ones, so they are Pending.
func ParseStatus(raw string) Status {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if known.Has(s) {
		return s
	}
	return Pending
}

// IsTerminal reports whether no more transition happens after s.
func (s Status) IsTerminal() bool {
	return terminal.Has(s)
}

func (s Status) String() string {
	return string(s)
}
