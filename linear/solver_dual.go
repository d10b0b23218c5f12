package linear

import (
	"math"

	"github.com/YuminosukeSato/xlinear/pkg/errors"
)

// svcDualStepper is dual coordinate descent for the L2-regularized SVM.
// With hinge set the dual is box-constrained (L1 loss); otherwise the
// squared hinge adds a diagonal term and leaves alpha unbounded above.
type svcDualStepper struct {
	hinge bool
	diag  []float64
}

func (s *svcDualStepper) loss() marginLoss {
	if s.hinge {
		return hinge{}
	}
	return squaredHinge{}
}

// init starts from alpha = 0 without a warm start. Otherwise it recovers
// alpha from the margins of the starting point:
// squared hinge alpha_i = 2 c_i max(0, 1-m_i), hinge alpha_i = c_i when m_i < 1.
// w is then rebuilt as sum_i alpha_i y_i x_i so that it matches alpha exactly.
// The first sweep therefore starts from that rebuilt w, which equals the
// warm start only when the warm start is already a dual-feasible optimum.
// Calls with MaxIter = 0 never reach init and return the warm start as is.
func (s *svcDualStepper) init(d *dataset, ws *workspace) {
	lp := &ws.lp
	n := lp.size()
	ws.alpha = grow(ws.alpha, n)
	ws.qd = grow(ws.qd, n)
	ws.upper = grow(ws.upper, n)
	s.diag = grow(s.diag, n)

	warm := anyNonZero(ws.w)
	if warm {
		refreshMargins(d, ws)
	}
	for l, i := range lp.active {
		c := lp.cost[l]
		switch {
		case c == 0:
			s.diag[l], ws.upper[l] = 0, 0
		case s.hinge:
			s.diag[l], ws.upper[l] = 0, c
		default:
			s.diag[l], ws.upper[l] = 0.5/c, math.Inf(1)
		}
		ws.qd[l] = s.diag[l] + d.rowNormSq(i)

		switch {
		case c == 0 || !warm:
			ws.alpha[l] = 0
		case s.hinge:
			ws.alpha[l] = 0
			if ws.margin[l] < 1 {
				ws.alpha[l] = c
			}
		default:
			ws.alpha[l] = 2 * c * math.Max(0, 1-ws.margin[l])
		}
	}

	clear(ws.w)
	for l, i := range lp.active {
		if a := ws.alpha[l]; a != 0 {
			d.rowAxpy(a*lp.y[l], i, ws.w)
		}
	}
}

// sweep returns the spread of the projected gradient, PGmax - PGmin.
func (s *svcDualStepper) sweep(d *dataset, ws *workspace) float64 {
	lp := &ws.lp
	pgMax, pgMin := math.Inf(-1), math.Inf(1)
	for l, i := range lp.active {
		u := ws.upper[l]
		if u == 0 {
			continue
		}
		yi := lp.y[l]
		a := ws.alpha[l]
		g := yi*d.rowDot(i, ws.w) - 1 + a*s.diag[l]

		pg := g
		switch {
		case a == 0:
			pg = math.Min(g, 0)
		case a == u:
			pg = math.Max(g, 0)
		}
		pgMax = math.Max(pgMax, pg)
		pgMin = math.Min(pgMin, pg)

		if math.Abs(pg) > 1e-12 && ws.qd[l] > 0 {
			next := math.Min(math.Max(a-g/ws.qd[l], 0), u)
			ws.alpha[l] = next
			d.rowAxpy((next-a)*yi, i, ws.w)
		}
	}
	if pgMax < pgMin {
		return 0
	}
	return pgMax - pgMin
}

func (s *svcDualStepper) objective(d *dataset, ws *workspace) float64 {
	refreshMargins(d, ws)
	return primalObjective(s.loss(), ws)
}

// Inner Newton settings for the logistic dual.
const (
	lrMaxInnerIter  = 100
	lrInnerEpsStart = 1e-2
	lrInnerEpsFloor = 1e-10
)

// lrDualStepper is dual coordinate descent for L2-regularized logistic
// regression. Each instance carries a pair alpha[2l] + alpha[2l+1] = c_l with
// both parts strictly inside (0, c_l).
type lrDualStepper struct {
	innerEps    float64
	innerEpsMin float64
}

// init sets alpha[2l] = c_l * sigmoid(-m_l), the value the optimality
// conditions give for the starting margins, clipped away from the bounds.
// With no warm start alpha[2l] starts at its lower clip.
// As for the SVM duals, w is rebuilt from alpha afterwards, so a warm start
// that is not optimal is replaced by the primal point of the recovered alpha.
func (s *lrDualStepper) init(d *dataset, ws *workspace) {
	lp := &ws.lp
	n := lp.size()
	ws.alpha = grow(ws.alpha, 2*n)
	ws.qd = grow(ws.qd, n)

	warm := anyNonZero(ws.w)
	if warm {
		refreshMargins(d, ws)
	}
	for l, i := range lp.active {
		c := lp.cost[l]
		ws.qd[l] = d.rowNormSq(i)
		if c == 0 {
			ws.alpha[2*l], ws.alpha[2*l+1] = 0, 0
			continue
		}
		lo := math.Min(0.001*c, 1e-8)
		a := lo
		if warm {
			a = errors.ClipValue(c*errors.Sigmoid(-ws.margin[l]), lo, c-lo)
		}
		ws.alpha[2*l] = a
		ws.alpha[2*l+1] = c - a
	}

	clear(ws.w)
	for l, i := range lp.active {
		if a := ws.alpha[2*l]; a != 0 {
			d.rowAxpy(a*lp.y[l], i, ws.w)
		}
	}

	s.innerEps = lrInnerEpsStart
	s.innerEpsMin = math.Max(lrInnerEpsFloor, math.Min(1e-8, d.params.Threshold))
}

// sweep returns the largest sub-problem gradient seen before its Newton steps.
func (s *lrDualStepper) sweep(d *dataset, ws *workspace) float64 {
	lp := &ws.lp
	gMax := 0.0
	newtonIter := 0
	for l, i := range lp.active {
		c := lp.cost[l]
		if c == 0 {
			continue
		}
		yi := lp.y[l]
		a := ws.qd[l]
		b := yi * d.rowDot(i, ws.w)

		// pick the half of the pair whose sub-problem is better conditioned
		ind1, ind2, sign := 2*l, 2*l+1, 1.0
		if 0.5*a*(ws.alpha[ind2]-ws.alpha[ind1])+b < 0 {
			ind1, ind2, sign = 2*l+1, 2*l, -1.0
		}

		alphaOld := ws.alpha[ind1]
		z := alphaOld
		if c-z < 0.5*c {
			z *= 0.1
		}
		gp := a*(z-alphaOld) + sign*b + math.Log(z/(c-z))
		gMax = math.Max(gMax, math.Abs(gp))

		const eta = 0.1
		inner := 0
		for inner <= lrMaxInnerIter {
			if math.Abs(gp) < s.innerEps {
				break
			}
			gpp := a + c/(c-z)/z
			next := z - gp/gpp
			if next <= 0 {
				z *= eta
			} else {
				z = next
			}
			gp = a*(z-alphaOld) + sign*b + math.Log(z/(c-z))
			newtonIter++
			inner++
		}

		if inner > 0 {
			ws.alpha[ind1] = z
			ws.alpha[ind2] = c - z
			d.rowAxpy(sign*(z-alphaOld)*yi, i, ws.w)
		}
	}

	if newtonIter <= lp.size()/10 {
		s.innerEps = math.Max(s.innerEpsMin, 0.1*s.innerEps)
	}
	return gMax
}

func (s *lrDualStepper) objective(d *dataset, ws *workspace) float64 {
	refreshMargins(d, ws)
	return primalObjective(logistic{}, ws)
}

func anyNonZero(w []float64) bool {
	for _, v := range w {
		if v != 0 {
			return true
		}
	}
	return false
}
