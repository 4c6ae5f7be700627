package list

import (
	"context"

	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/common"
	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/internal/display"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/analytics"
	"github.com/sirupsen/logrus"
	"github.com/youta-t/flarc"
)

type Flags struct {
	JSON bool `flag:"json" help:"print the listing as JSON"`
}

func New(class analytics.ModelClass) (flarc.Command, error) {
	return flarc.NewCommand(
		"List models.",
		Flags{},
		flarc.Args{},
		common.NewTask(Task(class)),
	)
}

func Task(class analytics.ModelClass) common.Task[Flags] {
	return func(
		ctx context.Context,
		logger logrus.FieldLogger,
		client *analytics.Client,
		cl flarc.Commandline[Flags],
		params []any,
	) error {
		page, err := client.Models(class).List(ctx)
		if err != nil {
			return err
		}
		if cl.Flags().JSON {
			return display.JSON(cl.Stdout(), page.Results)
		}

		rows := [][]string{}
		for _, item := range page.Results {
			rows = append(rows, []string{
				display.Cell(item, "id"), display.Cell(item, "name"), display.Cell(item, "model_type"),
			})
		}
		display.Table(cl.Stdout(), []string{"ID", "NAME", "MODEL TYPE"}, rows)
		if page.Next != nil {
			logger.Warn("more models are on the server. Only the first page is shown.")
		}
		return nil
	}
}
