package tasks

import (
	"fmt"
	"strings"

	laerr "github.com/ledgerinvesting/ledger-analytics-go/pkg/errors"
)

// Error is a failure of polling: the task has ended without success, or it has not ended in time.
//
// It matches laerr.ErrTaskFailure or laerr.ErrTimeout under errors.Is.
type Error struct {
	kind error

	// Last is the last snapshot of the task.
	Last Snapshot

	// History is statuses observed, starting with Created.
	History []Status
}

func (e *Error) Error() string {
	subject := "task " + e.Last.TaskID
	if e.Last.Label != "" {
		subject = fmt.Sprintf("%s (%s)", subject, e.Last.Label)
	}

	switch e.kind {
	case laerr.ErrTimeout:
		return fmt.Sprintf(
			"%s: %s: still %s after %s", subject, e.kind, e.Last.display(), e.Last.Elapsed,
		)
	default:
		msg := fmt.Sprintf("%s: %s: %s", subject, e.kind, e.Last.display())
		if detail := strings.TrimSpace(e.Last.Error); detail != "" {
			msg += ", " + detail
		}
		return msg
	}
}

func (e *Error) Is(target error) bool {
	return target != nil && target == e.kind
}

func newError(kind error, last Snapshot, history []Status) *Error {
	return &Error{
		kind:    kind,
		Last:    last,
		History: append([]Status(nil), history...),
	}
}
