package fit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/common"
	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/internal/display"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/analytics"
	laerr "github.com/ledgerinvesting/ledger-analytics-go/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Config  string        `flag:"config" alias:"c" metavar:"JSON|@path" help:"model configuration as a JSON object, or @path to a JSON file"`
	Async   bool          `flag:"async" help:"return without waiting for the fit task"`
	Timeout time.Duration `flag:"timeout" help:"how long to wait for the fit task. (default: the profile's pollTimeout)"`
}

const (
	ARG_NAME       = "NAME"
	ARG_MODEL_TYPE = "MODEL_TYPE"
	ARG_TRIANGLE   = "TRIANGLE"
)

func New(class analytics.ModelClass) (flarc.Command, error) {
	return flarc.NewCommand(
		"Fit a model to a triangle.",
		Flags{},
		flarc.Args{
			{Name: ARG_NAME, Required: true, Help: "name of the new model"},
			{Name: ARG_MODEL_TYPE, Required: true, Help: "model type, like ChainLadder"},
			{Name: ARG_TRIANGLE, Required: true, Help: "name of the triangle to fit to"},
		},
		common.NewTask(Task(class)),
		flarc.WithDescription(`
Fit a new model to a triangle, and print the model.

Unless --async is passed (or the profile is asynchronous), it waits for the fit task,
showing its status.
`),
	)
}

// Summary is what fit prints.
type Summary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ModelType string `json:"model_type"`
	Task      string `json:"task,omitempty"`
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
		modelType := cl.Args()[ARG_MODEL_TYPE][0]

		known, err := analytics.ClassOf(modelType)
		if err == nil && known != class {
			return fmt.Errorf(
				"%w: %s is a %s, not a %s", flarc.ErrUsage, modelType, known.Segment, class.Segment,
			)
		} else if err != nil && !errors.Is(err, laerr.ErrUnknownResourceType) {
			return err
		}

		config, err := common.ParseConfig(flags.Config)
		if err != nil {
			return err
		}

		progress := display.NewProgress(cl.Stderr())
		defer progress.Finish()

		m, err := client.Models(class).Create(
			ctx,
			analytics.FitRequest{
				ModelName:    cl.Args()[ARG_NAME][0],
				ModelType:    modelType,
				TriangleName: cl.Args()[ARG_TRIANGLE][0],
				ModelConfig:  config,
			},
			common.CallOptions(flags.Async, flags.Timeout, progress.Hook)...,
		)
		if err != nil {
			if m != nil {
				logger.WithFields(logrus.Fields{
					"model": m.ID(), "task": m.FitTaskID(),
				}).Warn("the model is registered, but it is not fit")
			}
			return err
		}

		return display.JSON(cl.Stdout(), Summary{
			ID: m.ID(), Name: m.Name(), ModelType: m.ModelType(), Task: m.FitTaskID(),
		})
	}
}
