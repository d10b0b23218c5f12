package linear

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/xlinear/pkg/errors"
	"github.com/YuminosukeSato/xlinear/sparse"
)

// LabelReport describes how one label column was solved.
type LabelReport struct {
	Label           int     `json:"label"`
	ActiveInstances int     `json:"active_instances"`
	Iterations      int     `json:"iterations"`
	Objective       float64 `json:"objective"`
	Violation       float64 `json:"violation"`
	Converged       bool    `json:"converged"`
	// Degenerate is set when every instance was masked and the warm start
	// (or zero) column was returned unchanged.
	Degenerate bool `json:"degenerate"`
}

// dataset is the read-only state shared by all workers of one call.
type dataset struct {
	prob      *Problem
	rows      *sparse.CSR // instance-major copy of X, dual solvers only
	w0        *sparse.CSC
	params    TrainParams
	nFeatures int
	nSolve    int
}

func newDataset(prob *Problem, w0 *sparse.CSC, params TrainParams) *dataset {
	d := &dataset{
		prob:      prob,
		w0:        w0,
		params:    params,
		nFeatures: prob.Features(),
	}
	d.nSolve = d.nFeatures
	if params.HasBias() {
		d.nSolve++
	}
	if params.SolverType.IsDual() && params.MaxIter > 0 {
		d.rows = prob.X.ToCSR()
	}
	return d
}

func (d *dataset) rowDot(i int, w []float64) float64 {
	cols, vals := d.rows.RowView(i)
	s := 0.0
	for k, j := range cols {
		s += w[j] * float64(vals[k])
	}
	if d.params.HasBias() {
		s += w[d.nFeatures] * d.params.Bias
	}
	return s
}

func (d *dataset) rowAxpy(a float64, i int, w []float64) {
	cols, vals := d.rows.RowView(i)
	for k, j := range cols {
		w[j] += a * float64(vals[k])
	}
	if d.params.HasBias() {
		w[d.nFeatures] += a * d.params.Bias
	}
}

func (d *dataset) rowNormSq(i int) float64 {
	_, vals := d.rows.RowView(i)
	s := 0.0
	for _, v := range vals {
		s += float64(v) * float64(v)
	}
	if d.params.HasBias() {
		s += d.params.Bias * d.params.Bias
	}
	return s
}

// gatherColumn collects the active entries of solve coordinate j as
// (local instance, value) pairs. Coordinate nFeatures is the bias.
func (d *dataset) gatherColumn(ws *workspace, j int) ([]int32, []float64) {
	idx, val := ws.colIdx[:0], ws.colVal[:0]
	if j == d.nFeatures {
		for l := range ws.lp.active {
			idx = append(idx, int32(l))
			val = append(val, d.params.Bias)
		}
	} else {
		rows, vals := d.prob.X.ColumnView(j)
		for k, i := range rows {
			if l := ws.local[i]; l >= 0 {
				idx = append(idx, l)
				val = append(val, float64(vals[k]))
			}
		}
	}
	ws.colIdx, ws.colVal = idx, val
	return idx, val
}

// warmColumn copies column j of the warm start, or returns an empty column.
func (d *dataset) warmColumn(j int) sparse.Column {
	if d.w0 == nil {
		return sparse.Column{}
	}
	if _, c := d.w0.Dims(); j >= c {
		return sparse.Column{}
	}
	rows, vals := d.w0.ColumnView(j)
	return sparse.Column{Rows: slices.Clone(rows), Values: slices.Clone(vals)}
}

// workspace holds one worker's scratch buffers. It is never shared.
type workspace struct {
	lp    labelProblem
	local []int32
	step  stepper

	w      []float64 // dense primal vector over solve coordinates
	margin []float64 // y_i * w.x_i per active instance
	colIdx []int32
	colVal []float64

	alpha []float64
	qd    []float64
	upper []float64
}

func newWorkspace(d *dataset) *workspace {
	ws := &workspace{
		local: make([]int32, d.prob.Instances()),
		step:  newStepper(d.params.SolverType),
		w:     make([]float64, d.nSolve),
	}
	for i := range ws.local {
		ws.local[i] = -1
	}
	return ws
}

// grow returns buf resized to n, reusing its storage when possible.
func grow(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
}

// stepper is one solver variant's coordinate-descent step. Adding a variant
// means adding a case to newStepper.
type stepper interface {
	// init derives the variant's state from ws.w, which holds the starting point.
	init(d *dataset, ws *workspace)
	// sweep visits every coordinate once in a fixed order and returns the
	// stopping measure.
	sweep(d *dataset, ws *workspace) float64
	// objective returns the primal objective at ws.w.
	objective(d *dataset, ws *workspace) float64
}

func newStepper(t SolverType) stepper {
	switch t {
	case L2RL2LossSVCPrimal:
		return &primalStepper{loss: squaredHinge{}}
	case L2RLRPrimal:
		return &primalStepper{loss: logistic{}}
	case L2RL2LossSVCDual:
		return &svcDualStepper{hinge: false}
	case L2RL1LossSVCDual:
		return &svcDualStepper{hinge: true}
	case L2RLRDual:
		return &lrDualStepper{}
	default:
		panic("linear: unhandled solver type " + t.String())
	}
}

// solve trains label j and returns its output column.
func (ws *workspace) solve(d *dataset, j int) (col sparse.Column, rep LabelReport, err error) {
	lp := &ws.lp
	extract(d.prob, &d.params, j, lp, ws.local)
	defer resetLocal(lp, ws.local)

	rep = LabelReport{Label: j, ActiveInstances: lp.size()}
	if lp.size() == 0 || d.params.MaxIter == 0 {
		rep.Degenerate = lp.size() == 0
		return d.warmColumn(j), rep, nil
	}

	clear(ws.w)
	if d.w0 != nil {
		if _, c := d.w0.Dims(); j < c {
			rows, vals := d.w0.ColumnView(j)
			for k, r := range rows {
				ws.w[r] = float64(vals[k])
			}
		}
	}

	ws.step.init(d, ws)
	obj := ws.step.objective(d, ws)
	if err := errors.CheckScalar("objective", obj, 0); err != nil {
		return col, rep, err
	}

	for it := 1; it <= d.params.MaxIter; it++ {
		v := ws.step.sweep(d, ws)
		obj = ws.step.objective(d, ws)
		rep.Iterations = it
		rep.Objective = obj
		rep.Violation = v
		if err := errors.CheckNumericalStability("objective", []float64{obj, v}, it); err != nil {
			return col, rep, err
		}
		if v <= d.params.Threshold {
			rep.Converged = true
			break
		}
	}
	return ws.sparseColumn(d.params.WeightEpsilon), rep, nil
}

func (ws *workspace) sparseColumn(eps float64) sparse.Column {
	var col sparse.Column
	for j, v := range ws.w {
		if math.Abs(v) > eps {
			col.Rows = append(col.Rows, j)
			col.Values = append(col.Values, float32(v))
		}
	}
	return col
}

// primalObjective returns 0.5*||w||^2 + sum_i c_i loss(margin_i).
func primalObjective(loss marginLoss, ws *workspace) float64 {
	obj := 0.5 * floats.Dot(ws.w, ws.w)
	for l, m := range ws.margin {
		if c := ws.lp.cost[l]; c != 0 {
			obj += c * loss.value(m)
		}
	}
	return obj
}

// refreshMargins recomputes y_i * w.x_i for every active instance from rows.
func refreshMargins(d *dataset, ws *workspace) {
	lp := &ws.lp
	ws.margin = grow(ws.margin, lp.size())
	for l, i := range lp.active {
		ws.margin[l] = lp.y[l] * d.rowDot(i, ws.w)
	}
}
