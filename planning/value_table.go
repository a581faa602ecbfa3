package planning

import (
	"math"
	"strconv"

	"gridplan/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ValueTable is a dense [row][col] table of state values, rounded to two decimals.
// A published table is never mutated: sweeps build a new table and replace the old one.
type ValueTable struct {
	values *mat.Dense
}

// NewValueTable returns a zeroed table for a width x height grid.
func NewValueTable(width, height int) *ValueTable {
	return &ValueTable{
		values: mat.NewDense(height, width, nil),
	}
}

// Dims returns the width and height of the table.
func (vt *ValueTable) Dims() (width, height int) {
	rows, cols := vt.values.Dims()
	return cols, rows
}

// Len returns the number of entries.
func (vt *ValueTable) Len() int {
	width, height := vt.Dims()
	return width * height
}

// At returns the rounded value of a state, or ErrOutOfRange.
func (vt *ValueTable) At(state models.State) (float64, error) {
	width, height := vt.Dims()
	if err := models.CheckBounds(state, width, height); err != nil {
		return 0, err
	}
	return vt.at(state), nil
}

func (vt *ValueTable) at(state models.State) float64 {
	return round2(vt.values.At(state.Row, state.Col))
}

func (vt *ValueTable) set(state models.State, val float64) {
	vt.values.Set(state.Row, state.Col, round2(val))
}

// Rows copies the table into a [row][col] slice.
func (vt *ValueTable) Rows() [][]float64 {
	width, height := vt.Dims()
	rows := make([][]float64, height)
	for r := range rows {
		rows[r] = make([]float64, width)
		mat.Row(rows[r], r, vt.values)
	}
	return rows
}

// MaxDelta returns the largest absolute difference between two tables of equal dimensions.
func (vt *ValueTable) MaxDelta(other *ValueTable) float64 {
	return floats.Distance(
		vt.values.RawMatrix().Data,
		other.values.RawMatrix().Data,
		math.Inf(1))
}

// round2 rounds to the nearest two-decimal value of the exact binary float, with exact
// halves going to even. Scaling by 100 first would round twice.
func round2(val float64) float64 {
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(val, 'f', 2, 64), 64)
	return rounded
}
