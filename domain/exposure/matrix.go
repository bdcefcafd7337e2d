// Package exposure holds the sample and dose matrices and the arithmetic
// that turns sampled environmental quantities into per-individual organism
// doses.
//
// Axis convention, fixed across the whole engine: rows are Monte Carlo
// iterations (shared environmental draws), columns are replicate individuals
// within an iteration (per-person behavioral draws). Every broadcast helper
// asserts vector lengths against the axis it scales; nothing is coerced.
package exposure

import (
	"fmt"
	"math/rand"

	"qmrisk/domain/core"
	"qmrisk/domain/dist"

	"gonum.org/v1/gonum/floats"
)

// DefaultMaxCells bounds iterations x individuals before any matrix is
// allocated. Overridable through configuration.
const DefaultMaxCells = 50_000_000

// CheckCells verifies the cell cap before allocation. A non-positive
// maxCells falls back to DefaultMaxCells.
func CheckCells(iterations, individuals, maxCells int) error {
	if maxCells <= 0 {
		maxCells = DefaultMaxCells
	}
	cells := int64(iterations) * int64(individuals)
	if cells > int64(maxCells) {
		return core.NewResourceError("dose matrix", int(cells), maxCells)
	}
	return nil
}

// Matrix is a dense iterations x individuals array stored iteration-major.
//
// INVARIANTS:
// - iterations >= 1 and individuals >= 1
// - len(data) == iterations*individuals, laid out row by row
// - shape never changes after construction
type Matrix struct {
	iterations  int
	individuals int
	data        []float64
}

// NewMatrix allocates a zeroed matrix.
func NewMatrix(iterations, individuals int) (*Matrix, error) {
	if iterations < 1 {
		return nil, core.NewConfigurationErrorf("matrix", "iterations %d must be at least 1", iterations)
	}
	if individuals < 1 {
		return nil, core.NewConfigurationErrorf("matrix", "individuals %d must be at least 1", individuals)
	}
	return &Matrix{
		iterations:  iterations,
		individuals: individuals,
		data:        make([]float64, iterations*individuals),
	}, nil
}

// FromData wraps an existing iteration-major slice without copying.
func FromData(iterations, individuals int, data []float64) (*Matrix, error) {
	if iterations < 1 || individuals < 1 {
		return nil, core.NewConfigurationErrorf("matrix", "shape %dx%d is not valid", iterations, individuals)
	}
	if len(data) != iterations*individuals {
		return nil, core.NewNumericDomainError("matrix",
			fmt.Sprintf("%d values cannot fill a %dx%d matrix", len(data), iterations, individuals))
	}
	return &Matrix{iterations: iterations, individuals: individuals, data: data}, nil
}

// FromPerIteration broadcasts one value per iteration across all individuals.
func FromPerIteration(perIteration []float64, individuals int) (*Matrix, error) {
	m, err := NewMatrix(len(perIteration), individuals)
	if err != nil {
		return nil, err
	}
	for i, v := range perIteration {
		row := m.Row(i)
		for j := range row {
			row[j] = v
		}
	}
	return m, nil
}

func (m *Matrix) Iterations() int  { return m.iterations }
func (m *Matrix) Individuals() int { return m.individuals }
func (m *Matrix) Cells() int       { return len(m.data) }

// At returns the value for iteration i, individual j.
func (m *Matrix) At(i, j int) float64 { return m.data[i*m.individuals+j] }

// Set stores the value for iteration i, individual j.
func (m *Matrix) Set(i, j int, v float64) { m.data[i*m.individuals+j] = v }

// Row returns the mutable slice of one iteration's individuals.
func (m *Matrix) Row(i int) []float64 {
	return m.data[i*m.individuals : (i+1)*m.individuals]
}

// Data returns the underlying iteration-major slice.
func (m *Matrix) Data() []float64 { return m.data }

// SampleInto fills every cell with an independent draw. Cells are filled
// iteration-major (row 0 left to right, then row 1, ...); this draw order is
// part of the reproducibility contract and must not change.
func (m *Matrix) SampleInto(d dist.Distribution, rng *rand.Rand) {
	for i := range m.data {
		m.data[i] = d.Rand(rng)
	}
}

// ScaleRows multiplies every cell of iteration i by perIteration[i].
func (m *Matrix) ScaleRows(perIteration []float64) error {
	if len(perIteration) != m.iterations {
		return core.NewNumericDomainError("matrix",
			fmt.Sprintf("per-iteration vector has %d entries, matrix has %d iterations", len(perIteration), m.iterations))
	}
	for i := 0; i < m.iterations; i++ {
		row := m.Row(i)
		v := perIteration[i]
		for j := range row {
			row[j] *= v
		}
	}
	return nil
}

// ScaleColumns multiplies every cell of individual j by perIndividual[j].
func (m *Matrix) ScaleColumns(perIndividual []float64) error {
	if len(perIndividual) != m.individuals {
		return core.NewNumericDomainError("matrix",
			fmt.Sprintf("per-individual vector has %d entries, matrix has %d individuals", len(perIndividual), m.individuals))
	}
	for i := 0; i < m.iterations; i++ {
		row := m.Row(i)
		for j := range row {
			row[j] *= perIndividual[j]
		}
	}
	return nil
}

// Scale multiplies every cell by s.
func (m *Matrix) Scale(s float64) {
	for i := range m.data {
		m.data[i] *= s
	}
}

// MulElem multiplies element-wise by another matrix of identical shape.
func (m *Matrix) MulElem(other *Matrix) error {
	if other.iterations != m.iterations || other.individuals != m.individuals {
		return core.NewNumericDomainError("matrix",
			fmt.Sprintf("shape %dx%d does not match %dx%d", other.iterations, other.individuals, m.iterations, m.individuals))
	}
	for i := range m.data {
		m.data[i] *= other.data[i]
	}
	return nil
}

// Apply replaces every cell with fn(cell).
func (m *Matrix) Apply(fn func(float64) float64) {
	for i := range m.data {
		m.data[i] = fn(m.data[i])
	}
}

// RowMeans reduces each iteration to the mean over its individuals.
func (m *Matrix) RowMeans() []float64 {
	out := make([]float64, m.iterations)
	inv := 1.0 / float64(m.individuals)
	for i := 0; i < m.iterations; i++ {
		out[i] = floats.Sum(m.Row(i)) * inv
	}
	return out
}

// RowSums reduces each iteration to the sum over its individuals.
func (m *Matrix) RowSums() []float64 {
	out := make([]float64, m.iterations)
	for i := 0; i < m.iterations; i++ {
		out[i] = floats.Sum(m.Row(i))
	}
	return out
}
