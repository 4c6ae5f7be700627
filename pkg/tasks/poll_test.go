package tasks_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	apitasks "github.com/ledgerinvesting/ledger-analytics-go/pkg/api/types/tasks"
	laerr "github.com/ledgerinvesting/ledger-analytics-go/pkg/errors"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// script returns QueryFunc which replies statuses in order.
//
// The last status is repeated when the script is exhausted.
type script struct {
	mu       sync.Mutex
	statuses []apitasks.Status
	queries  int
}

func newScript(statuses ...apitasks.Status) *script {
	return &script{statuses: statuses}
}

func (s *script) Query(ctx context.Context, taskID string) (tasks.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.statuses[0]
	if 1 < len(s.statuses) {
		s.statuses = s.statuses[1:]
	}
	s.queries += 1
	return tasks.FromStatus(taskID, st), nil
}

func (s *script) Queries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries
}

func status(s string) apitasks.Status {
	return apitasks.Status{Status: s}
}

func TestParseStatus(t *testing.T) {
	for raw, expected := range map[string]tasks.Status{
		"SUCCESS":    tasks.Success,
		"success":    tasks.Success,
		"Failure":    tasks.Failure,
		"terminated": tasks.Terminated,
		"timeout":    tasks.Timeout,
		"not_found":  tasks.NotFound,
		"PENDING":    tasks.Pending,
		"RUNNING":    tasks.Pending,
		"started":    tasks.Pending,
		"":           tasks.Pending,
		" SUCCESS\n": tasks.Success,
	} {
		assert.Equal(t, expected, tasks.ParseStatus(raw), "raw = %q", raw)
	}

	for _, s := range []tasks.Status{tasks.Success, tasks.Failure, tasks.Terminated, tasks.Timeout, tasks.NotFound} {
		assert.True(t, s.IsTerminal(), s)
	}
	for _, s := range []tasks.Status{tasks.Created, tasks.Pending} {
		assert.False(t, s.IsTerminal(), s)
	}
}

func TestPoll(t *testing.T) {
	fast := []tasks.Option{
		tasks.WithInterval(time.Millisecond),
		tasks.WithTimeout(5 * time.Second),
	}

	t.Run("it returns the payload after PENDING, PENDING, SUCCESS with 3 queries", func(t *testing.T) {
		payload := json.RawMessage(`{"predictions": "p1"}`)
		s := newScript(
			status("PENDING"),
			status("pending"),
			apitasks.Status{Status: "success", TaskResponse: payload},
		)

		events := []tasks.Event{}
		options := append(fast[:len(fast):len(fast)],
			tasks.WithLabel("fit ChainLadder"),
			tasks.WithProgress(func(ev tasks.Event) { events = append(events, ev) }),
		)
		actual, err := tasks.Poll(context.Background(), "tk1", s.Query, options...)
		require.NoError(t, err)

		assert.Equal(t, 3, s.Queries())
		assert.Equal(t, tasks.Success, actual.Status)
		assert.Equal(t, "success", actual.Raw)
		assert.Equal(t, "tk1", actual.TaskID)
		assert.Equal(t, "fit ChainLadder", actual.Label)
		assert.JSONEq(t, string(payload), string(actual.Response))

		// only changes are notified.
		require.Len(t, events, 2)
		assert.Equal(t, tasks.Created, events[0].Previous)
		assert.Equal(t, tasks.Pending, events[0].Status)
		assert.Equal(t, tasks.Pending, events[1].Previous)
		assert.Equal(t, tasks.Success, events[1].Status)
		assert.Equal(
			t,
			[]tasks.Status{tasks.Created, tasks.Pending, tasks.Pending, tasks.Success},
			events[1].History,
		)
	})

	t.Run("terminal failure on the first query fails without more queries", func(t *testing.T) {
		s := newScript(
			apitasks.Status{Status: "FAILURE", Error: "divergent transitions"},
			status("SUCCESS"),
		)

		actual, err := tasks.Poll(context.Background(), "tk1", s.Query, fast...)

		assert.ErrorIs(t, err, laerr.ErrTaskFailure)
		assert.NotErrorIs(t, err, laerr.ErrTimeout)
		assert.Equal(t, 1, s.Queries())
		assert.Nil(t, actual.Response)

		var taskErr *tasks.Error
		require.True(t, errors.As(err, &taskErr))
		assert.Equal(t, tasks.Failure, taskErr.Last.Status)
		assert.Equal(t, []tasks.Status{tasks.Created, tasks.Failure}, taskErr.History)
		assert.Contains(t, err.Error(), "divergent transitions")
		assert.Contains(t, err.Error(), "tk1")
	})

	for _, terminal := range []string{"TERMINATED", "timeout", "NOT_FOUND"} {
		t.Run("terminal "+terminal+" is a task failure", func(t *testing.T) {
			s := newScript(status("PENDING"), status(terminal))

			_, err := tasks.Poll(context.Background(), "tk1", s.Query, fast...)
			assert.ErrorIs(t, err, laerr.ErrTaskFailure)
			assert.Equal(t, 2, s.Queries())
		})
	}

	t.Run("when the task keeps PENDING, it times out without payload", func(t *testing.T) {
		s := newScript(status("PENDING"))

		started := time.Now()
		actual, err := tasks.Poll(
			context.Background(), "tk1", s.Query,
			tasks.WithInterval(5*time.Millisecond),
			tasks.WithTimeout(60*time.Millisecond),
		)

		assert.ErrorIs(t, err, laerr.ErrTimeout)
		assert.NotErrorIs(t, err, laerr.ErrTaskFailure)
		assert.Equal(t, tasks.Snapshot{}, actual)
		assert.GreaterOrEqual(t, time.Since(started), 60*time.Millisecond)
		assert.Less(t, 1, s.Queries())

		var taskErr *tasks.Error
		require.True(t, errors.As(err, &taskErr))
		assert.Equal(t, tasks.Pending, taskErr.Last.Status)
		assert.Nil(t, taskErr.Last.Response)
		assert.GreaterOrEqual(t, taskErr.Last.Elapsed, 60*time.Millisecond)
	})

	t.Run("query error stops polling and is returned as it is", func(t *testing.T) {
		expectedErr := laerr.New(laerr.ErrNotFound, "cannot find the given endpoint", laerr.WithStatus(404))
		queries := 0
		query := func(ctx context.Context, taskID string) (tasks.Snapshot, error) {
			queries += 1
			if queries < 2 {
				return tasks.FromStatus(taskID, status("PENDING")), nil
			}
			return tasks.Snapshot{}, expectedErr
		}

		_, err := tasks.Poll(context.Background(), "tk1", query, fast...)
		assert.Same(t, expectedErr, err)
		assert.Equal(t, 2, queries)
	})

	t.Run("cancelling context stops polling", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		s := newScript(status("PENDING"))
		hook := func(tasks.Event) { cancel() }

		_, err := tasks.Poll(
			ctx, "tk1", s.Query,
			tasks.WithInterval(time.Millisecond),
			tasks.WithTimeout(5*time.Second),
			tasks.WithProgress(hook),
		)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, laerr.ErrTimeout)
	})

	t.Run("polls for different tasks are independent", func(t *testing.T) {
		wg := new(sync.WaitGroup)
		results := make([]error, 2)
		scripts := []*script{
			newScript(status("PENDING"), status("SUCCESS")),
			newScript(status("FAILURE")),
		}
		for i := range scripts {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, results[i] = tasks.Poll(context.Background(), "tk", scripts[i].Query, fast...)
			}(i)
		}
		wg.Wait()

		assert.NoError(t, results[0])
		assert.ErrorIs(t, results[1], laerr.ErrTaskFailure)
	})
}
