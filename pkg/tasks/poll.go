// Package tasks polls remote tasks (fit and predict jobs) until they end.
//
// Poll is a pure state machine over a QueryFunc: it does not know how the status is fetched.
// Progress reporting is an observation hook and never changes the outcome.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	laerr "github.com/ledgerinvesting/ledger-analytics-go/pkg/errors"
	apitasks "github.com/ledgerinvesting/ledger-analytics-go/pkg/api/types/tasks"
	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/wait"
)

const (
	DefaultInterval = 2 * time.Second
	DefaultTimeout  = 300 * time.Second
)

// Snapshot is a status of a task at a time.
type Snapshot struct {
	TaskID string

	// Label is a human readable description of the task, like "fit ChainLadder model m1".
	Label string

	// Status is the parsed status.
	Status Status

	// Raw is the status string as the server has sent.
	Raw string

	// Response is the payload of the task. It is available only when Status is terminal.
	Response json.RawMessage

	// Error is the error detail from the server, if any.
	Error string

	// Elapsed is the time since the polling started.
	Elapsed time.Duration
}

func (s Snapshot) display() string {
	if s.Raw != "" {
		return s.Raw
	}
	return string(s.Status)
}

// FromStatus builds a Snapshot from a task status response.
func FromStatus(taskID string, st apitasks.Status) Snapshot {
	return Snapshot{
		TaskID:   taskID,
		Status:   ParseStatus(st.Status),
		Raw:      st.Status,
		Response: st.TaskResponse,
		Error:    st.Error,
	}
}

// QueryFunc queries the status of the task once.
type QueryFunc func(ctx context.Context, taskID string) (Snapshot, error)

// Event is a notification of a status change.
type Event struct {
	Snapshot

	// Previous is the status before the change.
	Previous Status

	// History is statuses observed so far, starting with Created.
	History []Status
}

type config struct {
	interval time.Duration
	timeout  time.Duration
	label    string
	progress []func(Event)
	logger   logrus.FieldLogger
}

type Option func(*config) *config

// WithInterval sets the interval between queries.
func WithInterval(d time.Duration) Option {
	return func(c *config) *config {
		if 0 < d {
			c.interval = d
		}
		return c
	}
}

// WithTimeout sets how long Poll waits for the task to end.
func WithTimeout(d time.Duration) Option {
	return func(c *config) *config {
		if 0 < d {
			c.timeout = d
		}
		return c
	}
}

// WithLabel sets the label, which is passed to progress hooks and embedded in errors.
func WithLabel(label string) Option {
	return func(c *config) *config {
		c.label = label
		return c
	}
}

// WithProgress adds a hook called on each status change.
//
// Hooks are called synchronously in the polling goroutine.
func WithProgress(hook func(Event)) Option {
	return func(c *config) *config {
		if hook != nil {
			c.progress = append(c.progress, hook)
		}
		return c
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) *config {
		if l != nil {
			c.logger = l
		}
		return c
	}
}

// Poll queries the task until it reaches a terminal status.
//
// The first query is sent immediately, then queries are repeated at the interval.
//
// # Args
//
// - ctx: context. Cancelling it stops polling and Poll returns ctx.Err().
//
// - taskID: id of the task to be polled.
//
// - query: function to get the status of the task.
//
// - options: WithInterval, WithTimeout, WithLabel, WithProgress, WithLogger
//
// # Returns
//
// - Snapshot: the last snapshot, which has the payload of the task, when it has succeeded.
//
// - error:
//
//   - *Error matching ErrTaskFailure, when the task reached a terminal status other than Success.
//
//   - *Error matching ErrTimeout, when the timeout has elapsed before the task ends.
//
//   - errors from query as they are.
func Poll(ctx context.Context, taskID string, query QueryFunc, options ...Option) (Snapshot, error) {
	conf := &config{
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
		logger:   logrus.StandardLogger(),
	}
	for _, o := range options {
		conf = o(conf)
	}
	logger := conf.logger.WithFields(logrus.Fields{
		"component": "poller", "task": taskID,
	})

	started := time.Now()
	history := []Status{Created}
	last := Snapshot{TaskID: taskID, Label: conf.label, Status: Created}

	pollctx, cancel := context.WithTimeout(ctx, conf.timeout)
	defer cancel()

	var queryErr error
	err := wait.PollUntilContextCancel(
		pollctx, conf.interval, true,
		func(pctx context.Context) (bool, error) {
			snapshot, err := query(pctx, taskID)
			if err != nil {
				if pctx.Err() != nil && ctx.Err() == nil {
					// timeout has elapsed while querying.
					return false, nil
				}
				queryErr = err
				return false, err
			}
			snapshot.TaskID = taskID
			snapshot.Label = conf.label
			snapshot.Elapsed = time.Since(started)
			if !snapshot.Status.IsTerminal() {
				snapshot.Response = nil
			}

			previous := history[len(history)-1]
			history = append(history, snapshot.Status)
			last = snapshot

			if previous != snapshot.Status {
				logger.WithFields(logrus.Fields{
					"from": previous, "to": snapshot.Status, "raw": snapshot.Raw,
				}).Debug("task status changed")
				ev := Event{
					Snapshot: snapshot,
					Previous: previous,
					History:  append([]Status(nil), history...),
				}
				for _, hook := range conf.progress {
					hook(ev)
				}
			}
			return snapshot.Status.IsTerminal(), nil
		},
	)

	switch {
	case err == nil:
		// reached a terminal status.
	case queryErr != nil:
		return last, queryErr
	case ctx.Err() != nil:
		return last, ctx.Err()
	case wait.Interrupted(err) || errors.Is(err, context.DeadlineExceeded):
		last.Elapsed = time.Since(started)
		last.Response = nil
		logger.WithField("elapsed", last.Elapsed).Debug("polling timed out")
		return Snapshot{}, newError(laerr.ErrTimeout, last, history)
	default:
		return last, err
	}

	if last.Status != Success {
		logger.WithField("status", last.Status).Debug("task has failed")
		return Snapshot{}, newError(laerr.ErrTaskFailure, last, history)
	}
	return last, nil
}
