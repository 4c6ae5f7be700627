package status_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/internal/commandline"
	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/internal/testenv"
	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/logger"
	task_status "github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/task/status"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/analytics"
	laerr "github.com/ledgerinvesting/ledger-analytics-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCommand(t *testing.T) {
	type when struct {
		script []string
		flags  task_status.Flags
		taskID string
	}
	type then struct {
		err    error
		status task_status.Status
	}

	theory := func(when when, then then) func(*testing.T) {
		return func(t *testing.T) {
			ctx := context.Background()
			client, server := testenv.Connect(t, analytics.WithAsynchronous(true))
			server.ScriptTasks(when.script...)
			_, err := client.Triangle().Create(ctx, "paid", testenv.Triangle())
			require.NoError(t, err)
			m, err := client.DevelopmentModel().Create(ctx, analytics.FitRequest{
				ModelName: "cl", ModelType: "ChainLadder", TriangleName: "paid",
			})
			require.NoError(t, err)

			taskID := when.taskID
			if taskID == "" {
				taskID = m.FitTaskID()
			}

			stdout := new(strings.Builder)
			err = task_status.Task()(
				ctx, logger.Null(), client,
				commandline.MockCommandline[task_status.Flags]{
					Fullname_: "ledger task status",
					Stdout_:   stdout,
					Flags_:    when.flags,
					Args_:     map[string][]string{task_status.ARG_TASK: {taskID}},
				},
				[]any{},
			)
			if then.err != nil {
				assert.ErrorIs(t, err, then.err)
				return
			}
			require.NoError(t, err)

			got := task_status.Status{}
			require.NoError(t, json.Unmarshal([]byte(stdout.String()), &got))
			if then.status.TaskID == "" {
				then.status.TaskID = taskID
			}
			assert.Equal(t, then.status.TaskID, got.TaskID)
			assert.Equal(t, then.status.Status, got.Status)
			assert.Equal(t, then.status.Error, got.Error)
			if then.status.Response != nil {
				assert.JSONEq(t, string(then.status.Response), string(got.Response))
			} else {
				assert.Empty(t, got.Response)
			}
		}
	}

	t.Run("it shows the current status once", theory(
		when{script: []string{"PENDING", "SUCCESS"}},
		then{status: task_status.Status{Status: "PENDING"}},
	))
	t.Run("with --wait, it shows the terminal status", theory(
		when{script: []string{"PENDING", "RUNNING", "SUCCESS"}, flags: task_status.Flags{Wait: true}},
		then{status: task_status.Status{
			Status: "SUCCESS", Response: json.RawMessage(`{"model": "mdl-2"}`),
		}},
	))
	t.Run("a failed task is shown without --wait", theory(
		when{script: []string{"FAILURE"}},
		then{status: task_status.Status{Status: "FAILURE", Error: "task ended with FAILURE"}},
	))
	t.Run("with --wait, a failed task is an error", theory(
		when{script: []string{"PENDING", "FAILURE"}, flags: task_status.Flags{Wait: true}},
		then{err: laerr.ErrTaskFailure},
	))
	t.Run("an unknown task is not found", theory(
		when{taskID: "task-404"},
		then{err: laerr.ErrNotFound},
	))
}
