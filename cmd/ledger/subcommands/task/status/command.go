package status

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/common"
	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/internal/display"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/analytics"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/tasks"
	"github.com/sirupsen/logrus"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Wait    bool          `flag:"wait" alias:"w" help:"wait until the task ends"`
	Timeout time.Duration `flag:"timeout" help:"how long to wait with --wait. (default: the profile's pollTimeout)"`
}

const ARG_TASK = "TASK_ID"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show the status of a task.",
		Flags{},
		flarc.Args{
			{Name: ARG_TASK, Required: true, Help: "id of the task, printed by fit or predict with --async"},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Show the status of a fit or predict task.

With --wait, it polls the task until it ends. It fails when the task fails.
`),
	)
}

// Status is what status prints.
type Status struct {
	TaskID   string          `json:"task"`
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func Task() common.Task[Flags] {
	return func(
		ctx context.Context,
		logger logrus.FieldLogger,
		client *analytics.Client,
		cl flarc.Commandline[Flags],
		params []any,
	) error {
		flags := cl.Flags()
		taskID := cl.Args()[ARG_TASK][0]

		var snapshot tasks.Snapshot
		var err error
		if flags.Wait {
			progress := display.NewProgress(cl.Stderr())
			defer progress.Finish()
			snapshot, err = client.WaitTask(
				ctx, taskID, "task "+taskID,
				tasks.WithTimeout(flags.Timeout), tasks.WithProgress(progress.Hook),
			)
		} else {
			snapshot, err = client.TaskStatus(ctx, taskID)
		}
		if err != nil {
			return err
		}

		raw := snapshot.Raw
		if raw == "" {
			raw = snapshot.Status.String()
		}
		response := snapshot.Response
		if string(response) == "null" {
			response = nil
		}
		return display.JSON(cl.Stdout(), Status{
			TaskID: taskID, Status: raw, Response: response, Error: snapshot.Error,
		})
	}
}
