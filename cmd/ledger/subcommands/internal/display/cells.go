package display

import (
	"io"
	"strconv"

	"github.com/ledgerinvesting/ledger-analytics-go/pkg/triangle"
)

// Cells writes cells of the triangle as a table, one row per cell.
func Cells(w io.Writer, t *triangle.Triangle) {
	fields := t.Fields()
	header := append([]string{"PERIOD START", "PERIOD END", "EVALUATION DATE", "DEV LAG", "PROGRAM"}, fields...)

	rows := make([][]string, 0, len(t.Cells))
	for _, c := range t.Cells {
		program := c.Program
		if program == "" {
			program = "-"
		}
		row := []string{
			c.PeriodStart.Format(triangle.DateLayout),
			c.PeriodEnd.Format(triangle.DateLayout),
			c.EvaluationDate.Format(triangle.DateLayout),
			strconv.Itoa(c.DevLag()),
			program,
		}
		for _, f := range fields {
			v, ok := c.Values[f]
			if !ok {
				row = append(row, "-")
				continue
			}
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		rows = append(rows, row)
	}
	Table(w, header, rows)
}
