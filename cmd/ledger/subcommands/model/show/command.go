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
	ByName bool `flag:"name" alias:"n" help:"take MODEL as a name, not an id"`
}

const ARG_MODEL = "MODEL"

func New(class analytics.ModelClass) (flarc.Command, error) {
	return flarc.NewCommand(
		"Show a model as the server describes it.",
		Flags{},
		flarc.Args{
			{Name: ARG_MODEL, Required: true, Help: "id (or name with --name) of the model"},
		},
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
		arg := cl.Args()[ARG_MODEL][0]
		m, err := client.Models(class).Get(ctx, common.RefOf(arg, cl.Flags().ByName))
		if err != nil {
			return fmt.Errorf("%w: model %s", err, arg)
		}
		return display.JSON(cl.Stdout(), m.Detail())
	}
}
