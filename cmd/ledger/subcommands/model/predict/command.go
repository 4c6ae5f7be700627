package predict

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/common"
	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/internal/display"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/analytics"
	"github.com/sirupsen/logrus"
	"github.com/youta-t/flarc"
)

type Flags struct {
	ByName   bool          `flag:"name" alias:"n" help:"take MODEL as a name, not an id"`
	Triangle string        `flag:"triangle" alias:"t" help:"name of the triangle to predict on. (default: the triangle the model is fit to)"`
	Output   string        `flag:"output" alias:"o" help:"name of the triangle where predictions are stored"`
	Config   string        `flag:"config" alias:"c" metavar:"JSON|@path" help:"predict configuration as a JSON object, or @path to a JSON file"`
	Cells    bool          `flag:"cells" help:"print predicted cells as a table instead of JSON"`
	Async    bool          `flag:"async" help:"return without waiting for the predict task"`
	Timeout  time.Duration `flag:"timeout" help:"how long to wait for the predict task. (default: the profile's pollTimeout)"`
}

const ARG_MODEL = "MODEL"

func New(class analytics.ModelClass) (flarc.Command, error) {
	return flarc.NewCommand(
		"Predict with a model.",
		Flags{},
		flarc.Args{
			{Name: ARG_MODEL, Required: true, Help: "id (or name with --name) of the model"},
		},
		common.NewTask(Task(class)),
		flarc.WithDescription(`
Predict with a fitted model, and print the prediction triangle.

With --async, it prints the predict task and the id of the prediction triangle instead.
`),
	)
}

// Requested is what predict prints in asynchronous mode.
type Requested struct {
	Model      string `json:"model"`
	Task       string `json:"task"`
	Prediction string `json:"prediction,omitempty"`
}

func Task(class analytics.ModelClass) common.Task[Flags] {
	return func(
		ctx context.Context,
		logger logrus.FieldLogger,
		client *analytics.Client,
		cl flarc.Commandline[Flags],
		params []any,
	) error {
		flags := cl.Flags()
		arg := cl.Args()[ARG_MODEL][0]

		config, err := common.ParseConfig(flags.Config)
		if err != nil {
			return err
		}

		m, err := client.Models(class).Get(ctx, common.RefOf(arg, flags.ByName))
		if err != nil {
			return fmt.Errorf("%w: model %s", err, arg)
		}

		progress := display.NewProgress(cl.Stderr())
		defer progress.Finish()

		pred, err := m.Predict(
			ctx,
			analytics.PredictRequest{
				TriangleName:   flags.Triangle,
				PredictionName: flags.Output,
				PredictConfig:  config,
			},
			common.CallOptions(flags.Async, flags.Timeout, progress.Hook)...,
		)
		if err != nil {
			return err
		}
		if pred == nil {
			return display.JSON(cl.Stdout(), Requested{
				Model: m.ID(), Task: m.PredictTaskID(), Prediction: m.PredictionID(),
			})
		}

		logger.WithField("triangle", pred.ID()).Debug("predictions are stored")
		if !flags.Cells {
			return display.JSON(cl.Stdout(), map[string]any{
				"id": pred.ID(), "name": pred.Name(), "data": pred.Data(),
			})
		}
		cells, err := pred.Triangle()
		if err != nil {
			return err
		}
		display.Cells(cl.Stdout(), cells)
		return nil
	}
}
