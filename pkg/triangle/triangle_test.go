package triangle_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ledgerinvesting/ledger-analytics-go/pkg/triangle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	d, err := time.Parse(triangle.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func meyers() *triangle.Triangle {
	return triangle.New(
		triangle.Cell{
			PeriodStart: date("1988-01-01"), PeriodEnd: date("1988-12-31"),
			EvaluationDate: date("1988-12-31"),
			Values:         map[string]float64{"earned_premium": 5812, "paid_loss": 952},
		},
		triangle.Cell{
			PeriodStart: date("1988-01-01"), PeriodEnd: date("1988-12-31"),
			EvaluationDate: date("1989-12-31"),
			Values:         map[string]float64{"earned_premium": 5812, "paid_loss": 1529},
		},
		triangle.Cell{
			PeriodStart: date("1989-01-01"), PeriodEnd: date("1989-12-31"),
			EvaluationDate: date("1989-12-31"),
			Program:        "commercial auto",
			Values:         map[string]float64{"earned_premium": 4908, "paid_loss": 849.5},
		},
	)
}

func TestDict(t *testing.T) {
	t.Run("FromDict(ToDict(t)) equals t", func(t *testing.T) {
		expected := meyers()
		actual, err := triangle.FromDict(expected.ToDict())
		require.NoError(t, err)
		assert.True(t, expected.Equal(actual))
	})

	t.Run("round trip through JSON keeps the triangle", func(t *testing.T) {
		expected := meyers()
		buf, err := json.Marshal(expected.ToDict())
		require.NoError(t, err)

		decoded := map[string]any{}
		require.NoError(t, json.Unmarshal(buf, &decoded))

		actual, err := triangle.FromDict(decoded)
		require.NoError(t, err)
		assert.True(t, expected.Equal(actual))
		assert.Equal(t, decoded, actual.ToDict())
	})

	t.Run("malformed mapping is an error", func(t *testing.T) {
		for name, d := range map[string]map[string]any{
			"no cells":       {},
			"cells not list": {"cells": "x"},
			"cell not object": {"cells": []any{1.0}},
			"bad date": {"cells": []any{map[string]any{
				"period_start": "1988/01/01", "period_end": "1988-12-31", "evaluation_date": "1988-12-31",
			}}},
			"value not number": {"cells": []any{map[string]any{
				"period_start": "1988-01-01", "period_end": "1988-12-31", "evaluation_date": "1988-12-31",
				"values": map[string]any{"paid_loss": "many"},
			}}},
		} {
			_, err := triangle.FromDict(d)
			assert.Error(t, err, name)
		}
	})
}

func TestTriangle(t *testing.T) {
	tri := meyers()

	assert.Equal(t, []int{0, 12, 0}, []int{tri.Cells[0].DevLag(), tri.Cells[1].DevLag(), tri.Cells[2].DevLag()})
	assert.Equal(t, []string{"", "commercial auto"}, tri.Programs())
	assert.Equal(t, []string{"earned_premium", "paid_loss"}, tri.Fields())

	auto := tri.Filter(func(c triangle.Cell) bool { return c.Program == "commercial auto" })
	assert.Len(t, auto.Cells, 1)
	assert.False(t, tri.Equal(auto))
	assert.True(t, (*triangle.Triangle)(nil).Equal(nil))
}

func TestLoadCSV(t *testing.T) {
	const source = `period_start,period_end,evaluation_date,earned_premium,reported_loss,paid_loss,program,dev_lag
1989-01-01,1989-12-31,1989-12-31,4908,1200,849.5,commercial auto,0
1988-01-01,1988-12-31,1989-12-31,5812,,1529,,12
1988-01-01,1988-12-31,1988-12-31,5812,,952,,0
`

	t.Run("it loads rows as cells, sorted", func(t *testing.T) {
		actual, err := triangle.LoadCSV(strings.NewReader(source))
		require.NoError(t, err)

		expected := meyers()
		expected.Cells[2].Values["reported_loss"] = 1200
		assert.True(t, expected.Equal(actual), "actual = %+v", actual)
	})

	t.Run("it filters by program", func(t *testing.T) {
		actual, err := triangle.LoadCSV(strings.NewReader(source), "commercial auto")
		require.NoError(t, err)
		require.Len(t, actual.Cells, 1)
		assert.Equal(t, "commercial auto", actual.Cells[0].Program)
	})

	t.Run("missing date column is an error", func(t *testing.T) {
		_, err := triangle.LoadCSV(strings.NewReader("period_start,period_end,paid_loss\n"))
		assert.ErrorContains(t, err, "evaluation_date")
	})

	t.Run("broken value is an error with its line", func(t *testing.T) {
		_, err := triangle.LoadCSV(strings.NewReader(
			"period_start,period_end,evaluation_date,paid_loss\n1988-01-01,1988-12-31,1988-12-31,lots\n",
		))
		assert.ErrorContains(t, err, "line 2")
	})

	t.Run("empty source is an error", func(t *testing.T) {
		_, err := triangle.LoadCSV(strings.NewReader(""))
		assert.Error(t, err)
	})
}
