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
	ByName bool `flag:"name" alias:"n" help:"take TRIANGLE as names, not ids"`
}

const ARG_TRIANGLE = "TRIANGLE"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Delete triangles.",
		Flags{},
		flarc.Args{
			{
				Name: ARG_TRIANGLE, Required: true, Repeatable: true,
				Help: "ids (or names with --name) of triangles to be deleted",
			},
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
		byName := cl.Flags().ByName
		for _, arg := range cl.Args()[ARG_TRIANGLE] {
			if err := client.Triangle().Delete(ctx, common.RefOf(arg, byName)); err != nil {
				return fmt.Errorf("%w: triangle %s", err, arg)
			}
			logger.WithField("triangle", arg).Info("deleted")
		}
		return nil
	}
}
