package sparse

// CSR is the row-major counterpart of CSC. Dual solvers sweep instances, so
// they need each instance's features contiguously.
type CSR struct {
	rows, cols int
	indptr     []int
	indices    []int
	data       []float32
}

// ToCSR converts m into a new row-major matrix. Column indices within each row
// come out in increasing order.
func (m *CSC) ToCSR() *CSR {
	indptr := make([]int, m.rows+1)
	for _, r := range m.indices {
		indptr[r+1]++
	}
	for i := 0; i < m.rows; i++ {
		indptr[i+1] += indptr[i]
	}
	next := make([]int, m.rows)
	copy(next, indptr[:m.rows])
	indices := make([]int, len(m.indices))
	data := make([]float32, len(m.data))
	for j := 0; j < m.cols; j++ {
		for k := m.indptr[j]; k < m.indptr[j+1]; k++ {
			r := m.indices[k]
			p := next[r]
			indices[p] = j
			data[p] = m.data[k]
			next[r]++
		}
	}
	return &CSR{rows: m.rows, cols: m.cols, indptr: indptr, indices: indices, data: data}
}

// Dims returns the number of rows and columns.
func (m *CSR) Dims() (r, c int) { return m.rows, m.cols }

// NNZ returns the number of stored entries.
func (m *CSR) NNZ() int { return len(m.indices) }

// RowView returns the column indices and values of row i.
func (m *CSR) RowView(i int) (cols []int, vals []float32) {
	lo, hi := m.indptr[i], m.indptr[i+1]
	return m.indices[lo:hi:hi], m.data[lo:hi:hi]
}
