// Package sparse provides a read-only compressed sparse column (CSC) view over
// caller-owned arrays, a row-major twin for instance-wise access, and
// conversions to and from gonum matrices.
//
// A CSC never copies or mutates the arrays it wraps, so one matrix can be read
// from any number of goroutines at once.
package sparse

import (
	"iter"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/xlinear/pkg/errors"
)

// CSC is a rows x cols matrix in compressed sparse column layout.
// Column j occupies indices[indptr[j]:indptr[j+1]] with matching data, and row
// indices inside a column are strictly increasing.
type CSC struct {
	rows, cols int
	indptr     []int
	indices    []int
	data       []float32
}

var _ mat.Matrix = (*CSC)(nil)

// NewCSC wraps the given arrays without copying them. It returns an error
// classified as errors.ErrInvalidDimension when the arrays are inconsistent.
func NewCSC(rows, cols int, indptr, indices []int, data []float32) (*CSC, error) {
	const op = "sparse.NewCSC"
	if rows < 0 {
		return nil, errors.NewDimensionError(op, 0, rows, 0)
	}
	if cols < 0 {
		return nil, errors.NewDimensionError(op, 0, cols, 1)
	}
	if len(indptr) != cols+1 {
		return nil, errors.NewDimensionError(op+" indptr", cols+1, len(indptr), -1)
	}
	if len(indices) != len(data) {
		return nil, errors.NewDimensionError(op+" data", len(indices), len(data), -1)
	}
	if indptr[0] != 0 {
		return nil, errors.NewStructureError(op, "indptr must start at 0", 0)
	}
	if indptr[cols] != len(indices) {
		return nil, errors.NewDimensionError(op+" indices", indptr[cols], len(indices), -1)
	}
	for j := 0; j < cols; j++ {
		if indptr[j+1] < indptr[j] {
			return nil, errors.NewStructureError(op, "indptr must be non-decreasing", j+1)
		}
	}
	for j := 0; j < cols; j++ {
		prev := -1
		for k := indptr[j]; k < indptr[j+1]; k++ {
			r := indices[k]
			if r < 0 || r >= rows {
				return nil, errors.NewStructureError(op, "row index out of range", k)
			}
			if r <= prev {
				return nil, errors.NewStructureError(op, "row indices must be strictly increasing within a column", k)
			}
			prev = r
		}
	}
	return &CSC{rows: rows, cols: cols, indptr: indptr, indices: indices, data: data}, nil
}

// Zeros returns an empty rows x cols matrix.
func Zeros(rows, cols int) *CSC {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &CSC{rows: rows, cols: cols, indptr: make([]int, cols+1)}
}

// Dims returns the number of rows and columns.
func (m *CSC) Dims() (r, c int) { return m.rows, m.cols }

// NNZ returns the number of stored entries.
func (m *CSC) NNZ() int { return len(m.indices) }

// Raw returns the wrapped arrays. Callers must not modify them.
func (m *CSC) Raw() (indptr, indices []int, data []float32) {
	return m.indptr, m.indices, m.data
}

// ColumnNNZ returns the number of stored entries in column j.
func (m *CSC) ColumnNNZ(j int) int {
	return m.indptr[j+1] - m.indptr[j]
}

// ColumnView returns the row indices and values of column j as sub-slices of
// the wrapped arrays.
func (m *CSC) ColumnView(j int) (rows []int, vals []float32) {
	if j < 0 || j >= m.cols {
		panic(mat.ErrColAccess)
	}
	lo, hi := m.indptr[j], m.indptr[j+1]
	return m.indices[lo:hi:hi], m.data[lo:hi:hi]
}

// Column yields the (row, value) pairs of column j in increasing row order.
func (m *CSC) Column(j int) iter.Seq2[int, float64] {
	rows, vals := m.ColumnView(j)
	return func(yield func(int, float64) bool) {
		for k, r := range rows {
			if !yield(r, float64(vals[k])) {
				return
			}
		}
	}
}

// find returns the position of (i, j) in the value array, or -1.
func (m *CSC) find(i, j int) int {
	if i < 0 || i >= m.rows {
		panic(mat.ErrRowAccess)
	}
	rows, _ := m.ColumnView(j)
	k := sort.SearchInts(rows, i)
	if k < len(rows) && rows[k] == i {
		return m.indptr[j] + k
	}
	return -1
}

// Has reports whether entry (i, j) is stored, whatever its value.
func (m *CSC) Has(i, j int) bool {
	return m.find(i, j) >= 0
}

// At returns the value at (i, j), zero when the entry is not stored.
func (m *CSC) At(i, j int) float64 {
	if k := m.find(i, j); k >= 0 {
		return float64(m.data[k])
	}
	return 0
}

// T returns the implicit transpose.
func (m *CSC) T() mat.Matrix {
	return mat.Transpose{Matrix: m}
}

// Column is one sparse column used to assemble a matrix with FromColumns.
// Rows must be strictly increasing.
type Column struct {
	Rows   []int
	Values []float32
}

// FromColumns assembles a new, exclusively owned matrix from per-column entries.
func FromColumns(rows int, cols []Column) (*CSC, error) {
	nnz := 0
	for _, c := range cols {
		if len(c.Rows) != len(c.Values) {
			return nil, errors.NewDimensionError("sparse.FromColumns", len(c.Rows), len(c.Values), -1)
		}
		nnz += len(c.Rows)
	}
	indptr := make([]int, len(cols)+1)
	indices := make([]int, 0, nnz)
	data := make([]float32, 0, nnz)
	for j, c := range cols {
		indices = append(indices, c.Rows...)
		data = append(data, c.Values...)
		indptr[j+1] = len(indices)
	}
	return NewCSC(rows, len(cols), indptr, indices, data)
}

// FromDense copies the non-zero entries of a into a new CSC matrix.
func FromDense(a mat.Matrix) *CSC {
	r, c := a.Dims()
	indptr := make([]int, c+1)
	var indices []int
	var data []float32
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			if v := a.At(i, j); v != 0 {
				indices = append(indices, i)
				data = append(data, float32(v))
			}
		}
		indptr[j+1] = len(indices)
	}
	return &CSC{rows: r, cols: c, indptr: indptr, indices: indices, data: data}
}

// ToDense materializes the matrix. It is meant for tests and small inspections.
func (m *CSC) ToDense() *mat.Dense {
	if m.rows == 0 || m.cols == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(m.rows, m.cols, nil)
	for j := 0; j < m.cols; j++ {
		rows, vals := m.ColumnView(j)
		for k, i := range rows {
			d.Set(i, j, float64(vals[k]))
		}
	}
	return d
}

// SelectColumns returns a new matrix made of the given columns in order.
func (m *CSC) SelectColumns(idx []int) *CSC {
	cols := make([]Column, len(idx))
	for k, j := range idx {
		rows, vals := m.ColumnView(j)
		cols[k] = Column{Rows: rows, Values: vals}
	}
	out, err := FromColumns(m.rows, cols)
	if err != nil {
		// Columns taken from a valid matrix are always consistent.
		panic(err)
	}
	return out
}
