package model

import (
	model_fit "github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/model/fit"
	model_list "github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/model/list"
	model_predict "github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/model/predict"
	model_rm "github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/model/rm"
	model_show "github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/model/show"
	model_types "github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/model/types"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/analytics"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	development, err := newClassCommand(analytics.DevelopmentModelClass)
	if err != nil {
		return nil, err
	}
	tail, err := newClassCommand(analytics.TailModelClass)
	if err != nil {
		return nil, err
	}
	forecast, err := newClassCommand(analytics.ForecastModelClass)
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Fit models and predict with them.",
		struct{}{},
		flarc.WithSubcommand("development", development),
		flarc.WithSubcommand("tail", tail),
		flarc.WithSubcommand("forecast", forecast),
	)
}

func newClassCommand(class analytics.ModelClass) (flarc.Command, error) {
	fit, err := model_fit.New(class)
	if err != nil {
		return nil, err
	}
	predict, err := model_predict.New(class)
	if err != nil {
		return nil, err
	}
	show, err := model_show.New(class)
	if err != nil {
		return nil, err
	}
	list, err := model_list.New(class)
	if err != nil {
		return nil, err
	}
	types, err := model_types.New(class)
	if err != nil {
		return nil, err
	}
	rm, err := model_rm.New(class)
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate "+class.Segment+"s.",
		struct{}{},
		flarc.WithSubcommand("fit", fit),
		flarc.WithSubcommand("predict", predict),
		flarc.WithSubcommand("show", show),
		flarc.WithSubcommand("list", list),
		flarc.WithSubcommand("types", types),
		flarc.WithSubcommand("rm", rm),
	)
}
