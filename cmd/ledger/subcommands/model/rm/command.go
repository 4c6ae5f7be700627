package rm

import (
	"context"
	"fmt"

	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/common"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/analytics"
	"github.com/sirupsen/logrus"
	"github.com/youta-t/flarc"
)

type Flags struct {
	ByName bool `flag:"name" alias:"n" help:"take MODEL as names, not ids"`
}

const ARG_MODEL = "MODEL"

func New(class analytics.ModelClass) (flarc.Command, error) {
	return flarc.NewCommand(
		"Delete models.",
		Flags{},
		flarc.Args{
			{
				Name: ARG_MODEL, Required: true, Repeatable: true,
				Help: "ids (or names with --name) of models to be deleted",
			},
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
		byName := cl.Flags().ByName
		models := client.Models(class)
		for _, arg := range cl.Args()[ARG_MODEL] {
			if err := models.Delete(ctx, common.RefOf(arg, byName)); err != nil {
				return fmt.Errorf("%w: model %s", err, arg)
			}
			logger.WithField("model", arg).Info("deleted")
		}
		return nil
	}
}
