package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/common"
	subinit "github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/initialize"
	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/logger"
	submodel "github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/model"
	subtask "github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/task"
	subtri "github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/triangle"
	"github.com/youta-t/flarc"
)

func main() {
	l := logger.Default().WithField("command", "ledger")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cf, err := common.Flags()
	if err != nil {
		l.Fatal(err)
	}
	init, err := subinit.New()
	if err != nil {
		l.Fatal(err)
	}
	triangle, err := subtri.New()
	if err != nil {
		l.Fatal(err)
	}
	model, err := submodel.New()
	if err != nil {
		l.Fatal(err)
	}
	task, err := subtask.New()
	if err != nil {
		l.Fatal(err)
	}

	ledger, err := flarc.NewCommandGroup(
		"Ledger analytics commandline interface",
		cf,
		flarc.WithSubcommand("init", init),
		flarc.WithSubcommand("triangle", triangle),
		flarc.WithSubcommand("model", model),
		flarc.WithSubcommand("task", task),
	)
	if err != nil {
		l.Fatal(err)
	}

	os.Exit(flarc.Run(ctx, ledger, flarc.WithHelp(true)))
}
