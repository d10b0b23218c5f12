package linear

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/xlinear/pkg/log"
	"github.com/YuminosukeSato/xlinear/sparse"
)

// synthetic builds a seeded multi-label problem. Each instance has roughly
// density*features non-zero TF-IDF-like weights, L2-normalized, and each
// label is positive for about a quarter of the instances.
func synthetic(t testing.TB, seed int64, instances, features, labels int, density float64) *Problem {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))

	x := mat.NewDense(instances, features, nil)
	for i := 0; i < instances; i++ {
		norm := 0.0
		for j := 0; j < features; j++ {
			if rng.Float64() < density {
				v := 0.1 + rng.Float64()
				x.Set(i, j, v)
				norm += v * v
			}
		}
		if norm == 0 {
			j := rng.Intn(features)
			x.Set(i, j, 1)
			norm = 1
		}
		norm = math.Sqrt(norm)
		for j := 0; j < features; j++ {
			x.Set(i, j, x.At(i, j)/norm)
		}
	}

	y := mat.NewDense(instances, labels, nil)
	for j := 0; j < labels; j++ {
		// a hidden direction makes labels partly learnable
		dir := make([]float64, features)
		for k := range dir {
			dir[k] = rng.NormFloat64()
		}
		for i := 0; i < instances; i++ {
			s := 0.0
			for k := 0; k < features; k++ {
				s += x.At(i, k) * dir[k]
			}
			if s+0.3*rng.NormFloat64() > 0.6 {
				y.Set(i, j, 1)
			}
		}
		y.Set(j%instances, j, 1)
	}

	return &Problem{X: sparse.FromDense(x), Y: sparse.FromDense(y)}
}

func mustTrain(t testing.TB, prob *Problem, w0 *sparse.CSC, p TrainParams) *Result {
	t.Helper()
	res, err := NewTrainer(WithLogger(quietLogger())).Train(contextForTest(t), prob, w0, p)
	require.NoError(t, err)
	return res
}

// maxAbsDiff returns the largest entry-wise difference of two same-shaped matrices.
func maxAbsDiff(t testing.TB, a, b *sparse.CSC) float64 {
	t.Helper()
	ar, ac := a.Dims()
	br, bc := b.Dims()
	require.Equal(t, []int{ar, ac}, []int{br, bc}, "shape")
	if ar == 0 || ac == 0 {
		return 0
	}
	var diff mat.Dense
	diff.Sub(a.ToDense(), b.ToDense())
	return maxAbs(&diff)
}

func maxAbs(m *mat.Dense) float64 {
	r, c := m.Dims()
	out := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = math.Max(out, math.Abs(m.At(i, j)))
		}
	}
	return out
}

// requireIdentical asserts bit-identical storage.
func requireIdentical(t testing.TB, want, got *sparse.CSC) {
	t.Helper()
	wr, wc := want.Dims()
	gr, gc := got.Dims()
	require.Equal(t, []int{wr, wc}, []int{gr, gc})
	wp, wi, wd := want.Raw()
	gp, gi, gd := got.Raw()
	require.Equal(t, wp, gp)
	require.Equal(t, wi, gi)
	require.Equal(t, wd, gd)
}

func contextForTest(testing.TB) context.Context { return context.Background() }

func quietLogger() log.Logger { return log.NewTestLogger(log.LevelWarn) }
