package task

import (
	task_status "github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/task/status"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	status, err := task_status.New()
	if err != nil {
		return nil, err
	}
	return flarc.NewCommandGroup(
		"Inspect remote tasks of fit and predict.",
		struct{}{},
		flarc.WithSubcommand("status", status),
	)
}
