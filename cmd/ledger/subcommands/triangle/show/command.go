package show

import (
	"context"
	"fmt"

	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/common"
	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/internal/display"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/analytics"
	"github.com/sirupsen/logrus"
	"github.com/youta-t/flarc"
)

type Flags struct {
	ByName bool `flag:"name" alias:"n" help:"take TRIANGLE as a name, not an id"`
	Cells  bool `flag:"cells" help:"print cells as a table instead of JSON"`
}

const ARG_TRIANGLE = "TRIANGLE"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show a triangle.",
		Flags{},
		flarc.Args{
			{Name: ARG_TRIANGLE, Required: true, Help: "id (or name with --name) of the triangle"},
		},
		common.NewTask(Task()),
	)
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
		arg := cl.Args()[ARG_TRIANGLE][0]

		t, err := client.Triangle().Get(ctx, common.RefOf(arg, flags.ByName))
		if err != nil {
			return fmt.Errorf("%w: triangle %s", err, arg)
		}

		if !flags.Cells {
			return display.JSON(cl.Stdout(), map[string]any{
				"id": t.ID(), "name": t.Name(), "data": t.Data(),
			})
		}
		cells, err := t.Triangle()
		if err != nil {
			return err
		}
		display.Cells(cl.Stdout(), cells)
		return nil
	}
}
