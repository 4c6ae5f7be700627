// Package testenv connects commands under test to a fake analytics server.
package testenv

import (
	"testing"
	"time"

	"github.com/ledgerinvesting/ledger-analytics-go/cmd/ledger/subcommands/logger"
	"github.com/ledgerinvesting/ledger-analytics-go/internal/testutils/fakeserver"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/analytics"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/triangle"
)

const APIKey = "cli.test"

// Connect starts a fake server and returns a client of it.
func Connect(t *testing.T, options ...analytics.Option) (*analytics.Client, *fakeserver.Server) {
	t.Helper()
	server := fakeserver.New(t, APIKey)
	client, err := analytics.NewClient(append([]analytics.Option{
		analytics.WithHost(server.Host()),
		analytics.WithAPIKey(APIKey),
		analytics.WithLogger(logger.Null()),
		analytics.WithPollInterval(time.Millisecond),
		analytics.WithPollTimeout(5 * time.Second),
	}, options...)...)
	if err != nil {
		t.Fatal(err)
	}
	return client, server
}

func date(s string) time.Time {
	d, err := time.Parse(triangle.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

// Triangle returns a small paid loss triangle of two accident years.
func Triangle() *triangle.Triangle {
	cell := func(start, end, eval string, paid float64) triangle.Cell {
		return triangle.Cell{
			PeriodStart: date(start), PeriodEnd: date(end), EvaluationDate: date(eval),
			Values: map[string]float64{"paid_loss": paid, "earned_premium": 1000},
		}
	}
	return triangle.New(
		cell("2020-01-01", "2020-12-31", "2020-12-31", 100),
		cell("2020-01-01", "2020-12-31", "2021-12-31", 180),
		cell("2021-01-01", "2021-12-31", "2021-12-31", 120),
	)
}
