package triangle

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"
)

// value columns in CSV
var ValueColumns = []string{"earned_premium", "reported_loss", "paid_loss"}

const colDevLag = "dev_lag"

// LoadCSV reads triangle data in CSV.
//
// The first row is the header. Columns are
//
//	period_start, period_end, evaluation_date, earned_premium, reported_loss, paid_loss, program, dev_lag
//
// Dates are required. Empty value cells are skipped. dev_lag is validated but not stored,
// since it is derived from the dates.
//
// # Args
//
// - r: CSV source
//
// - programs: when given, only rows for these programs are loaded.
func LoadCSV(r io.Reader, programs ...string) (*Triangle, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("triangle: csv is empty")
	} else if err != nil {
		return nil, fmt.Errorf("triangle: csv header: %w", err)
	}
	index := map[string]int{}
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{keyPeriodStart, keyPeriodEnd, keyEvaluationDate} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("triangle: csv: column %q is missing", required)
		}
	}

	t := &Triangle{}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("triangle: csv: %w", err)
		}
		line, _ := reader.FieldPos(0)

		field := func(name string) string {
			i, ok := index[name]
			if !ok || len(row) <= i {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		c := Cell{Program: field(keyProgram), Values: map[string]float64{}}
		if len(programs) != 0 && !slices.Contains(programs, c.Program) {
			continue
		}

		for name, dest := range map[string]*time.Time{
			keyPeriodStart:    &c.PeriodStart,
			keyPeriodEnd:      &c.PeriodEnd,
			keyEvaluationDate: &c.EvaluationDate,
		} {
			d, err := time.Parse(DateLayout, field(name))
			if err != nil {
				return nil, fmt.Errorf("triangle: csv line %d: %s: %w", line, name, err)
			}
			*dest = d
		}

		for _, name := range ValueColumns {
			s := field(name)
			if s == "" {
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("triangle: csv line %d: %s: %w", line, name, err)
			}
			c.Values[name] = v
		}

		if s := field(colDevLag); s != "" {
			if _, err := strconv.Atoi(s); err != nil {
				return nil, fmt.Errorf("triangle: csv line %d: %s: %w", line, colDevLag, err)
			}
		}

		t.Cells = append(t.Cells, c)
	}

	t.sort()
	return t, nil
}
