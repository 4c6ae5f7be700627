package common

import (
	"context"
	"errors"

	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/logger"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/analytics"
	"github.com/sirupsen/logrus"
	"github.com/youta-t/flarc"
)

type TaskWithCommonFlag[T any] func(
	ctx context.Context,
	logger logrus.FieldLogger,
	commonFlag CommonFlags,
	cl flarc.Commandline[T],
	params []any,
) error

// NewTaskWithCommonFlag finds CommonFlags in the positional parameters,
// and passes them to the task with a logger named after the command.
func NewTaskWithCommonFlag[T any](task TaskWithCommonFlag[T]) flarc.Task[T] {
	return func(ctx context.Context, cl flarc.Commandline[T], pos []any) error {
		var commonFlag CommonFlags
		found := false
		newpos := make([]any, 0, len(pos))
		for _, p := range pos {
			switch v := p.(type) {
			case CommonFlags:
				found = true
				commonFlag = v
			default:
				newpos = append(newpos, p)
			}
		}
		if !found {
			return errors.New("programming error: common flags not found")
		}

		l := logger.New(cl.Stderr(), commonFlag.Verbose).WithField("command", cl.Fullname())
		return task(ctx, l, commonFlag, cl, newpos)
	}
}

type Task[T any] func(
	ctx context.Context,
	logger logrus.FieldLogger,
	client *analytics.Client,
	cl flarc.Commandline[T],
	params []any,
) error

// NewTask connects to the analytics server with the resolved Settings, and runs the task.
func NewTask[T any](task Task[T]) flarc.Task[T] {
	return NewTaskWithCommonFlag(func(
		ctx context.Context,
		logger logrus.FieldLogger,
		commonFlag CommonFlags,
		cl flarc.Commandline[T],
		params []any,
	) error {
		env, err := LoadEnvironment(commonFlag.EnvFile)
		if err != nil {
			return err
		}
		settings, err := Resolve(commonFlag, env)
		if err != nil {
			return err
		}

		client, err := analytics.NewClient(settings.Options(logger)...)
		if err != nil {
			return err
		}
		defer client.Close()
		return task(ctx, logger, client, cl, params)
	})
}
