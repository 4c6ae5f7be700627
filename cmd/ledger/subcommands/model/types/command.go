package types

import (
	"context"

	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/common"
	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/internal/display"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/analytics"
	"github.com/sirupsen/logrus"
	"github.com/youta-t/flarc"
)

func New(class analytics.ModelClass) (flarc.Command, error) {
	return flarc.NewCommand(
		"List model types which the server can fit.",
		struct{}{},
		flarc.Args{},
		common.NewTask(Task(class)),
	)
}

func Task(class analytics.ModelClass) common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger logrus.FieldLogger,
		client *analytics.Client,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		types, err := client.Models(class).ListModelTypes(ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(types))
		for _, t := range types {
			desc := t.Description
			if desc == "" {
				desc = "-"
			}
			rows = append(rows, []string{t.Name, desc})
		}
		display.Table(cl.Stdout(), []string{"MODEL TYPE", "DESCRIPTION"}, rows)
		return nil
	}
}
