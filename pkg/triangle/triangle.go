// Package triangle is a structured loss development triangle.
//
// A triangle is a set of cells. Each cell is an experience period evaluated at a date,
// with named values (earned premium, paid loss, ...).
//
// The server treats triangle data as an opaque mapping. ToDict and FromDict convert
// between the structured form and the mapping, and FromDict(t.ToDict()) equals t.
package triangle

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"time"
)

// DateLayout is the format of dates in the mapping form.
const DateLayout = "2006-01-02"

const (
	keyCells          = "cells"
	keyPeriodStart    = "period_start"
	keyPeriodEnd      = "period_end"
	keyEvaluationDate = "evaluation_date"
	keyValues         = "values"
	keyMetadata       = "metadata"
	keyProgram        = "program"
)

// Dicter is something which can be sent as triangle data.
type Dicter interface {
	ToDict() map[string]any
}

type Cell struct {
	PeriodStart    time.Time
	PeriodEnd      time.Time
	EvaluationDate time.Time

	// Program is the name of the insurance program, if any.
	Program string

	// Values are named amounts, like "paid_loss": 1200.5 .
	Values map[string]float64
}

// DevLag returns the development lag of the cell in months.
//
// It is months from the end of the period to the evaluation date.
func (c Cell) DevLag() int {
	return (c.EvaluationDate.Year()-c.PeriodEnd.Year())*12 +
		int(c.EvaluationDate.Month()) - int(c.PeriodEnd.Month())
}

func (c Cell) Equal(o Cell) bool {
	return c.PeriodStart.Equal(o.PeriodStart) &&
		c.PeriodEnd.Equal(o.PeriodEnd) &&
		c.EvaluationDate.Equal(o.EvaluationDate) &&
		c.Program == o.Program &&
		maps.Equal(c.Values, o.Values)
}

func (c Cell) less(o Cell) bool {
	if !c.PeriodStart.Equal(o.PeriodStart) {
		return c.PeriodStart.Before(o.PeriodStart)
	}
	if !c.EvaluationDate.Equal(o.EvaluationDate) {
		return c.EvaluationDate.Before(o.EvaluationDate)
	}
	return c.Program < o.Program
}

type Triangle struct {
	Cells []Cell
}

var _ Dicter = &Triangle{}

// New creates a Triangle with cells sorted by period and evaluation date.
func New(cells ...Cell) *Triangle {
	t := &Triangle{Cells: slices.Clone(cells)}
	t.sort()
	return t
}

func (t *Triangle) sort() {
	sort.SliceStable(t.Cells, func(i, j int) bool { return t.Cells[i].less(t.Cells[j]) })
}

// Equal reports whether two triangles have the same cells in the same order.
func (t *Triangle) Equal(o *Triangle) bool {
	if t == nil || o == nil {
		return t == o
	}
	return slices.EqualFunc(t.Cells, o.Cells, Cell.Equal)
}

// Programs returns distinct program names in the triangle, sorted.
func (t *Triangle) Programs() []string {
	seen := map[string]struct{}{}
	for _, c := range t.Cells {
		seen[c.Program] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Fields returns distinct value names in the triangle, sorted.
func (t *Triangle) Fields() []string {
	seen := map[string]struct{}{}
	for _, c := range t.Cells {
		for k := range c.Values {
			seen[k] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Filter returns a new Triangle with cells satisfying pred.
func (t *Triangle) Filter(pred func(Cell) bool) *Triangle {
	ret := &Triangle{}
	for _, c := range t.Cells {
		if pred(c) {
			ret.Cells = append(ret.Cells, c)
		}
	}
	return ret
}

// ToDict converts the triangle to the mapping form.
//
//	{
//	  "cells": [
//	    {
//	      "period_start": "2020-01-01",
//	      "period_end": "2020-12-31",
//	      "evaluation_date": "2021-12-31",
//	      "values": {"paid_loss": 1200.5},
//	      "metadata": {"program": "A"}
//	    }
//	  ]
//	}
//
// "metadata" is omitted when the cell has no program.
func (t *Triangle) ToDict() map[string]any {
	cells := make([]any, 0, len(t.Cells))
	for _, c := range t.Cells {
		values := make(map[string]any, len(c.Values))
		for k, v := range c.Values {
			values[k] = v
		}
		cell := map[string]any{
			keyPeriodStart:    c.PeriodStart.Format(DateLayout),
			keyPeriodEnd:      c.PeriodEnd.Format(DateLayout),
			keyEvaluationDate: c.EvaluationDate.Format(DateLayout),
			keyValues:         values,
		}
		if c.Program != "" {
			cell[keyMetadata] = map[string]any{keyProgram: c.Program}
		}
		cells = append(cells, cell)
	}
	return map[string]any{keyCells: cells}
}

// FromDict builds a Triangle from the mapping form, as decoded from JSON.
//
// The order of cells is kept.
func FromDict(d map[string]any) (*Triangle, error) {
	raw, ok := d[keyCells]
	if !ok {
		return nil, fmt.Errorf("triangle: %q is missing", keyCells)
	}
	rawCells, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("triangle: %q should be a list, but %T", keyCells, raw)
	}

	t := &Triangle{Cells: make([]Cell, 0, len(rawCells))}
	for i, rc := range rawCells {
		m, ok := rc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("triangle: cells[%d] should be an object, but %T", i, rc)
		}
		c, err := cellFromDict(m)
		if err != nil {
			return nil, fmt.Errorf("triangle: cells[%d]: %w", i, err)
		}
		t.Cells = append(t.Cells, c)
	}
	return t, nil
}

func cellFromDict(m map[string]any) (Cell, error) {
	c := Cell{Values: map[string]float64{}}

	for key, dest := range map[string]*time.Time{
		keyPeriodStart:    &c.PeriodStart,
		keyPeriodEnd:      &c.PeriodEnd,
		keyEvaluationDate: &c.EvaluationDate,
	} {
		s, ok := m[key].(string)
		if !ok {
			return Cell{}, fmt.Errorf("%q should be a date string", key)
		}
		d, err := time.Parse(DateLayout, s)
		if err != nil {
			return Cell{}, fmt.Errorf("%q: %w", key, err)
		}
		*dest = d
	}

	if raw, ok := m[keyValues]; ok && raw != nil {
		values, ok := raw.(map[string]any)
		if !ok {
			return Cell{}, fmt.Errorf("%q should be an object, but %T", keyValues, raw)
		}
		for k, v := range values {
			f, err := toFloat(v)
			if err != nil {
				return Cell{}, fmt.Errorf("%s.%s: %w", keyValues, k, err)
			}
			c.Values[k] = f
		}
	}

	if meta, ok := m[keyMetadata].(map[string]any); ok {
		if p, ok := meta[keyProgram].(string); ok {
			c.Program = p
		}
	}
	return c, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case interface{ Float64() (float64, error) }: // json.Number
		return n.Float64()
	default:
		return 0, fmt.Errorf("should be a number, but %T", v)
	}
}
