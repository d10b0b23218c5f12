package linear

import (
	"sync"

	"github.com/YuminosukeSato/xlinear/core/parallel"
	"github.com/YuminosukeSato/xlinear/pkg/errors"
	"github.com/YuminosukeSato/xlinear/sparse"
)

// Problem bundles the matrices of one multi-label training call.
// X is instances x features; Y, C, M and R are instances x labels.
// C, M and R are optional (nil).
type Problem struct {
	// X holds feature weights, typically non-negative TF-IDF values.
	X *sparse.CSC
	// Y marks label membership; only the sign of a stored value is used.
	Y *sparse.CSC
	// C multiplies the loss of a stored (instance, label) pair; absent pairs cost 1.
	C *sparse.CSC
	// M masks a pair out of its label's objective when the stored value is non-zero.
	M *sparse.CSC
	// R multiplies the loss weight like C; absent pairs weigh 1.
	R *sparse.CSC
}

// Instances returns the number of rows of X.
func (p *Problem) Instances() int {
	r, _ := p.X.Dims()
	return r
}

// Features returns the number of columns of X.
func (p *Problem) Features() int {
	_, c := p.X.Dims()
	return c
}

// Labels returns the number of columns of Y.
func (p *Problem) Labels() int {
	_, c := p.Y.Dims()
	return c
}

// Validate checks shapes and values against each other and against the warm
// start w0 (may be nil). withBias adds one expected row to w0.
func (p *Problem) Validate(w0 *sparse.CSC, withBias bool) error {
	const op = "Problem.Validate"
	if p == nil || p.X == nil {
		return errors.NewValidationError("X", "feature matrix is required", nil)
	}
	if p.Y == nil {
		return errors.NewValidationError("Y", "label matrix is required", nil)
	}
	n, d := p.X.Dims()
	yr, labels := p.Y.Dims()
	if yr != n {
		return errors.NewDimensionError(op+" Y", n, yr, 0)
	}
	for _, aux := range []struct {
		name string
		m    *sparse.CSC
	}{{"C", p.C}, {"M", p.M}, {"R", p.R}} {
		if aux.m == nil {
			continue
		}
		r, c := aux.m.Dims()
		if r != n {
			return errors.NewDimensionError(op+" "+aux.name, n, r, 0)
		}
		if c != labels {
			return errors.NewDimensionError(op+" "+aux.name, labels, c, 1)
		}
	}
	if w0 != nil {
		want := d
		if withBias {
			want++
		}
		r, c := w0.Dims()
		if r != want {
			return errors.NewDimensionError(op+" W0", want, r, 0)
		}
		if c > labels {
			return errors.NewDimensionError(op+" W0", labels, c, 1)
		}
	}

	if err := checkValues("X", p.X, false); err != nil {
		return err
	}
	if p.C != nil {
		if err := checkValues("C", p.C, true); err != nil {
			return err
		}
	}
	if p.R != nil {
		if err := checkValues("R", p.R, true); err != nil {
			return err
		}
	}
	if w0 != nil {
		if err := checkValues("W0", w0, false); err != nil {
			return err
		}
	}
	return nil
}

// valueScanThreshold is the number of stored values above which checkValues
// splits the scan across CPUs.
const valueScanThreshold = 1 << 16

// checkValues reports the first stored value of m that is non-finite, or
// negative when nonNegative is set.
func checkValues(name string, m *sparse.CSC, nonNegative bool) error {
	_, _, data := m.Raw()
	bad := func(v float32) bool {
		f := float64(v)
		return !errors.IsFinite(f) || (nonNegative && f < 0)
	}

	var mu sync.Mutex
	first := len(data)
	parallel.ParallelizeWithThreshold(len(data), valueScanThreshold, 0, func(start, end int) {
		for k := start; k < end; k++ {
			if bad(data[k]) {
				mu.Lock()
				first = min(first, k)
				mu.Unlock()
				return
			}
		}
	})
	if first == len(data) {
		return nil
	}
	if v := data[first]; !errors.IsFinite(float64(v)) {
		return errors.NewValidationError(name, "values must be finite", v)
	}
	return errors.NewValidationError(name, "values must be non-negative", data[first])
}

// labelProblem is one label's sub-problem restricted to active instances.
// Slices are owned by a worker and reused across labels.
type labelProblem struct {
	label  int
	active []int     // instance ids, increasing
	y      []float64 // +1 or -1
	cost   []float64 // per-instance loss weight
}

func (lp *labelProblem) size() int { return len(lp.active) }

// cursor walks one sorted sparse column alongside an increasing instance id.
type cursor struct {
	rows []int
	vals []float32
	k    int
}

func newCursor(m *sparse.CSC, j int) cursor {
	if m == nil {
		return cursor{}
	}
	rows, vals := m.ColumnView(j)
	return cursor{rows: rows, vals: vals}
}

// at returns the stored value for instance i, advancing past smaller rows.
func (c *cursor) at(i int) (float32, bool) {
	for c.k < len(c.rows) && c.rows[c.k] < i {
		c.k++
	}
	if c.k < len(c.rows) && c.rows[c.k] == i {
		return c.vals[c.k], true
	}
	return 0, false
}

// extract fills lp for label j and records each active instance's position
// in local, which must be all -1 on entry. The caller resets local afterwards.
func extract(prob *Problem, params *TrainParams, j int, lp *labelProblem, local []int32) {
	lp.label = j
	lp.active = lp.active[:0]
	lp.y = lp.y[:0]
	lp.cost = lp.cost[:0]

	n := prob.Instances()
	yc := newCursor(prob.Y, j)
	mc := newCursor(prob.M, j)
	cc := newCursor(prob.C, j)
	rc := newCursor(prob.R, j)

	for i := 0; i < n; i++ {
		if v, ok := mc.at(i); ok && v != 0 {
			continue
		}
		sign, weight := -1.0, params.Cn
		if v, ok := yc.at(i); ok && v > 0 {
			sign, weight = 1.0, params.Cp
		}
		if v, ok := cc.at(i); ok {
			weight *= float64(v)
		}
		if v, ok := rc.at(i); ok {
			weight *= float64(v)
		}
		local[i] = int32(len(lp.active))
		lp.active = append(lp.active, i)
		lp.y = append(lp.y, sign)
		lp.cost = append(lp.cost, weight)
	}
}

func resetLocal(lp *labelProblem, local []int32) {
	for _, i := range lp.active {
		local[i] = -1
	}
}
