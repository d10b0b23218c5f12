package sparse

import (
	"bytes"
	"encoding/gob"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/xlinear/pkg/errors"
)

// 4x3:
//
//	[1 0 0]
//	[0 0 2]
//	[3 0 4]
//	[0 0 0]
func sample(t *testing.T) *CSC {
	t.Helper()
	m, err := NewCSC(4, 3, []int{0, 2, 2, 4}, []int{0, 2, 1, 2}, []float32{1, 3, 2, 4})
	require.NoError(t, err)
	return m
}

func TestNewCSCRejectsInconsistentArrays(t *testing.T) {
	tests := []struct {
		name    string
		rows    int
		cols    int
		indptr  []int
		indices []int
		data    []float32
	}{
		{"indptr length", 2, 2, []int{0, 1}, []int{0}, []float32{1}},
		{"data length", 2, 1, []int{0, 1}, []int{0}, []float32{1, 2}},
		{"indptr start", 2, 1, []int{1, 1}, []int{0}, []float32{1}},
		{"indptr end", 2, 1, []int{0, 2}, []int{0}, []float32{1}},
		{"indptr decreasing", 2, 2, []int{0, 2, 1}, []int{0}, []float32{1}},
		{"row out of range", 2, 1, []int{0, 1}, []int{2}, []float32{1}},
		{"negative row", 2, 1, []int{0, 1}, []int{-1}, []float32{1}},
		{"unsorted rows", 3, 1, []int{0, 2}, []int{1, 0}, []float32{1, 1}},
		{"duplicate rows", 3, 1, []int{0, 2}, []int{1, 1}, []float32{1, 1}},
		{"negative cols", 2, -1, []int{0}, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCSC(tt.rows, tt.cols, tt.indptr, tt.indices, tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidDimension), "got %v", err)
		})
	}
}

func TestCSCDoesNotCopy(t *testing.T) {
	indices := []int{0, 2}
	data := []float32{5, 6}
	m, err := NewCSC(3, 1, []int{0, 2}, indices, data)
	require.NoError(t, err)

	_, vals := m.ColumnView(0)
	assert.Same(t, &data[0], &vals[0])
	_, rawIdx, _ := m.Raw()
	assert.Same(t, &indices[0], &rawIdx[0])
}

func TestCSCAccess(t *testing.T) {
	m := sample(t)

	r, c := m.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 4, m.NNZ())
	assert.Equal(t, 0, m.ColumnNNZ(1))

	assert.True(t, m.Has(2, 0))
	assert.False(t, m.Has(1, 0))
	assert.Equal(t, 4.0, m.At(2, 2))
	assert.Equal(t, 0.0, m.At(3, 2))
	assert.Equal(t, 3.0, m.T().At(0, 2))

	var rows []int
	var vals []float64
	for i, v := range m.Column(2) {
		rows = append(rows, i)
		vals = append(vals, v)
	}
	assert.Equal(t, []int{1, 2}, rows)
	assert.Equal(t, []float64{2, 4}, vals)

	// early break stops the sequence
	n := 0
	for range m.Column(0) {
		n++
		break
	}
	assert.Equal(t, 1, n)

	assert.Panics(t, func() { m.ColumnView(3) })
	assert.Panics(t, func() { m.At(4, 0) })
}

func TestDenseRoundTrip(t *testing.T) {
	d := mat.NewDense(3, 2, []float64{
		0, 1.5,
		2, 0,
		0, -1,
	})
	m := FromDense(d)
	assert.Equal(t, 3, m.NNZ())
	assert.True(t, mat.Equal(d, m.ToDense()))
	assert.True(t, mat.Equal(d, m), "CSC is itself a mat.Matrix")
}

func TestToCSR(t *testing.T) {
	m := sample(t)
	csr := m.ToCSR()

	r, c := csr.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, m.NNZ(), csr.NNZ())

	cols, vals := csr.RowView(2)
	assert.Equal(t, []int{0, 2}, cols)
	assert.Equal(t, []float32{3, 4}, vals)

	cols, _ = csr.RowView(3)
	assert.Empty(t, cols)
}

func TestFromColumnsAndSelect(t *testing.T) {
	m, err := FromColumns(5, []Column{
		{Rows: []int{1, 4}, Values: []float32{1, 2}},
		{},
		{Rows: []int{0}, Values: []float32{7}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, m.NNZ())

	sel := m.SelectColumns([]int{2, 0})
	assert.Equal(t, 7.0, sel.At(0, 0))
	assert.Equal(t, 2.0, sel.At(4, 1))

	_, err = FromColumns(2, []Column{{Rows: []int{0}, Values: nil}})
	assert.True(t, errors.Is(err, errors.ErrInvalidDimension))

	_, err = FromColumns(2, []Column{{Rows: []int{3}, Values: []float32{1}}})
	assert.True(t, errors.Is(err, errors.ErrInvalidDimension))
}

func TestZeros(t *testing.T) {
	z := Zeros(3, 2)
	r, c := z.Dims()
	assert.Equal(t, []int{3, 2}, []int{r, c})
	assert.Equal(t, 0, z.NNZ())
	assert.False(t, z.Has(1, 1))
}

func TestGobRoundTrip(t *testing.T) {
	for _, m := range []*CSC{sample(t), Zeros(2, 3)} {
		var buf bytes.Buffer
		require.NoError(t, gob.NewEncoder(&buf).Encode(m))

		var got CSC
		require.NoError(t, gob.NewDecoder(&buf).Decode(&got))
		assert.True(t, mat.Equal(m, &got))
		assert.Equal(t, m.NNZ(), got.NNZ())
	}
}

func TestConcurrentReads(t *testing.T) {
	m := sample(t)
	var wg sync.WaitGroup
	sums := make([]float64, 16)
	for g := range sums {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 3; j++ {
				for _, v := range m.Column(j) {
					sums[g] += v
				}
			}
		}()
	}
	wg.Wait()
	for _, s := range sums {
		assert.Equal(t, 10.0, s)
	}
}
