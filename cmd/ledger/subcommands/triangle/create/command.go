package create

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/common"
	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/internal/display"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/analytics"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/triangle"
	"github.com/sirupsen/logrus"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Program []string `flag:"program" alias:"p" help:"read cells of the program only from CSV. Repeatable."`
	CSV     bool     `flag:"csv" help:"read FILE as CSV regardless of its extension"`
}

const (
	ARG_NAME = "NAME"
	ARG_FILE = "FILE"
)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Upload a triangle.",
		Flags{},
		flarc.Args{
			{Name: ARG_NAME, Required: true, Help: "name of the triangle"},
			{
				Name: ARG_FILE, Required: true,
				Help: "triangle data. JSON dict, or CSV when it ends with .csv. '-' reads stdin.",
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Upload a triangle and print its id and name.

FILE is a JSON object in the triangle dict format ({"cells": [...]}), or a CSV file with
columns period_start, period_end, evaluation_date, earned_premium, reported_loss,
paid_loss and program.
`),
	)
}

// Read loads triangle data from r.
//
// When asCSV is set, r is read as CSV and cells are filtered by programs.
// Otherwise r is a JSON object.
func Read(r io.Reader, asCSV bool, programs []string) (map[string]any, error) {
	if asCSV {
		t, err := triangle.LoadCSV(r, programs...)
		if err != nil {
			return nil, err
		}
		return t.ToDict(), nil
	}
	if len(programs) != 0 {
		return nil, fmt.Errorf("%w: --program is for CSV", flarc.ErrUsage)
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()
	data := map[string]any{}
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: triangle data is not a JSON object: %w", flarc.ErrUsage, err)
	}
	// validate the shape, but send it as it is.
	if _, err := triangle.FromDict(data); err != nil {
		return nil, fmt.Errorf("%w: %w", flarc.ErrUsage, err)
	}
	return data, nil
}

func Task() common.Task[Flags] {
	return func(
		ctx context.Context,
		logger logrus.FieldLogger,
		client *analytics.Client,
		cl flarc.Commandline[Flags],
		params []any,
	) error {
		name := cl.Args()[ARG_NAME][0]
		file := cl.Args()[ARG_FILE][0]
		flags := cl.Flags()

		var r io.Reader
		if file == "-" {
			r = cl.Stdin()
		} else {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		asCSV := flags.CSV || strings.EqualFold(filepath.Ext(file), ".csv")

		data, err := Read(r, asCSV, flags.Program)
		if err != nil {
			return fmt.Errorf("%w: %s", err, file)
		}

		t, err := client.Triangle().Create(ctx, name, data)
		if err != nil {
			return err
		}
		logger.WithField("id", t.ID()).Info("triangle is created")
		return display.JSON(cl.Stdout(), map[string]string{"id": t.ID(), "name": t.Name()})
	}
}
