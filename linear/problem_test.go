package linear

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/xlinear/pkg/errors"
	"github.com/YuminosukeSato/xlinear/sparse"
)

func dense(r, c int, v ...float64) *sparse.CSC {
	return sparse.FromDense(mat.NewDense(r, c, v))
}

func TestExtractMergesLabelCostMaskRelevance(t *testing.T) {
	// 5 instances, 2 labels
	prob := &Problem{
		X: dense(5, 1, 1, 1, 1, 1, 1),
		Y: dense(5, 2,
			1, 0,
			0, 1,
			1, 0,
			0, 0,
			1, 1),
		C: dense(5, 2,
			2, 0,
			0, 0,
			0, 0,
			3, 0,
			0, 0),
		M: dense(5, 2,
			0, 0,
			0, 0,
			1, 0,
			0, 0,
			0, 1),
		R: dense(5, 2,
			0, 0,
			0, 0,
			0, 0,
			0, 0,
			0.5, 0),
	}
	params := DefaultTrainParams()
	params.Cp, params.Cn = 4, 0.25

	local := []int32{-1, -1, -1, -1, -1}
	var lp labelProblem
	extract(prob, &params, 0, &lp, local)

	assert.Equal(t, []int{0, 1, 3, 4}, lp.active, "instance 2 is masked")
	assert.Equal(t, []float64{1, -1, -1, 1}, lp.y)
	assert.Equal(t, []float64{4 * 2, 0.25, 0.25 * 3, 4 * 0.5}, lp.cost)
	assert.Equal(t, []int32{0, 1, -1, 2, 3}, local)

	resetLocal(&lp, local)
	assert.Equal(t, []int32{-1, -1, -1, -1, -1}, local)

	extract(prob, &params, 1, &lp, local)
	assert.Equal(t, []int{0, 1, 2, 3}, lp.active)
	assert.Equal(t, []float64{-1, 1, -1, -1}, lp.y)
	resetLocal(&lp, local)
}

func TestExtractStoredZeroMaskDoesNotMask(t *testing.T) {
	m, err := sparse.NewCSC(2, 1, []int{0, 2}, []int{0, 1}, []float32{0, 1})
	require.NoError(t, err)
	prob := &Problem{X: dense(2, 1, 1, 1), Y: dense(2, 1, 1, 0), M: m}
	params := DefaultTrainParams()

	local := []int32{-1, -1}
	var lp labelProblem
	extract(prob, &params, 0, &lp, local)
	assert.Equal(t, []int{0}, lp.active)
}

func TestExtractAllMasked(t *testing.T) {
	prob := &Problem{
		X: dense(3, 1, 1, 1, 1),
		Y: dense(3, 1, 1, 0, 1),
		M: dense(3, 1, 1, 1, 1),
	}
	params := DefaultTrainParams()
	local := []int32{-1, -1, -1}
	var lp labelProblem
	extract(prob, &params, 0, &lp, local)
	assert.Equal(t, 0, lp.size())
}

func TestValidateShapes(t *testing.T) {
	base := func() *Problem {
		return &Problem{X: sparse.Zeros(4, 3), Y: sparse.Zeros(4, 2)}
	}
	tests := []struct {
		name     string
		mut      func(*Problem)
		w0       *sparse.CSC
		bias     bool
		sentinel error
	}{
		{"Y rows", func(p *Problem) { p.Y = sparse.Zeros(5, 2) }, nil, false, errors.ErrInvalidDimension},
		{"C rows", func(p *Problem) { p.C = sparse.Zeros(3, 2) }, nil, false, errors.ErrInvalidDimension},
		{"M cols", func(p *Problem) { p.M = sparse.Zeros(4, 3) }, nil, false, errors.ErrInvalidDimension},
		{"R cols", func(p *Problem) { p.R = sparse.Zeros(4, 1) }, nil, false, errors.ErrInvalidDimension},
		{"W0 rows", func(*Problem) {}, sparse.Zeros(4, 2), false, errors.ErrInvalidDimension},
		{"W0 rows without bias row", func(*Problem) {}, sparse.Zeros(3, 2), true, errors.ErrInvalidDimension},
		{"W0 too wide", func(*Problem) {}, sparse.Zeros(3, 3), false, errors.ErrInvalidDimension},
		{"missing X", func(p *Problem) { p.X = nil }, nil, false, errors.ErrInvalidParameter},
		{"missing Y", func(p *Problem) { p.Y = nil }, nil, false, errors.ErrInvalidParameter},
		{"negative cost", func(p *Problem) { p.C = dense(4, 2, 0, 0, -1, 0, 0, 0, 0, 0) }, nil, false, errors.ErrInvalidParameter},
		{"NaN feature", func(p *Problem) { p.X = dense(4, 3, math.NaN(), 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0) }, nil, false, errors.ErrInvalidParameter},
		{"Inf warm start", func(*Problem) {}, dense(3, 1, math.Inf(1), 0, 0), false, errors.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base()
			tt.mut(p)
			err := p.Validate(tt.w0, tt.bias)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
		})
	}

	ok := base()
	assert.NoError(t, ok.Validate(nil, false))
	assert.NoError(t, ok.Validate(sparse.Zeros(3, 1), false), "W0 may be narrower than Y")
	assert.NoError(t, ok.Validate(sparse.Zeros(4, 2), true))
}

func TestValidateValues(t *testing.T) {
	// negative features are allowed; negative relevance is not
	p := &Problem{X: dense(2, 2, -1, 0.5, 0, 2), Y: dense(2, 1, 1, 0)}
	require.NoError(t, p.Validate(nil, false))

	p.R = dense(2, 1, 0, -0.5)
	var ve *errors.ValidationError
	require.True(t, errors.As(p.Validate(nil, false), &ve))
	assert.Equal(t, "R", ve.ParamName)
}

func TestCheckValuesLargeArrayReportsFirstOffender(t *testing.T) {
	const n = 3 * valueScanThreshold
	indices := make([]int, n)
	data := make([]float32, n)
	for k := range indices {
		indices[k] = k
		data[k] = 1
	}
	data[n-10] = float32(math.Inf(1))
	data[valueScanThreshold+7] = -2
	m, err := sparse.NewCSC(n, 1, []int{0, n}, indices, data)
	require.NoError(t, err)

	err = checkValues("C", m, true)
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, float32(-2), ve.Value)

	err = checkValues("X", m, false)
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Reason, "finite")
}
