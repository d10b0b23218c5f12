package linear

import (
	"math"

	"github.com/YuminosukeSato/xlinear/pkg/errors"
)

// marginLoss is a per-instance loss as a function of the margin m = y * w.x.
type marginLoss interface {
	value(m float64) float64
	// derivs returns the first and (generalized) second derivative in m.
	derivs(m float64) (d1, d2 float64)
}

// squaredHinge is max(0, 1-m)^2.
type squaredHinge struct{}

func (squaredHinge) value(m float64) float64 {
	if m >= 1 {
		return 0
	}
	return (1 - m) * (1 - m)
}

func (squaredHinge) derivs(m float64) (float64, float64) {
	if m >= 1 {
		return 0, 0
	}
	return -2 * (1 - m), 2
}

// hinge is max(0, 1-m). Only its value is needed.
type hinge struct{}

func (hinge) value(m float64) float64 {
	return math.Max(0, 1-m)
}

func (hinge) derivs(m float64) (float64, float64) {
	if m >= 1 {
		return 0, 0
	}
	return -1, 0
}

// logistic is log(1 + exp(-m)).
type logistic struct{}

func (logistic) value(m float64) float64 {
	return errors.LogOnePlusExp(-m)
}

func (logistic) derivs(m float64) (float64, float64) {
	p := errors.Sigmoid(m)
	return -(1 - p), p * (1 - p)
}

// Newton step line search constants.
const (
	armijoSigma   = 0.01
	armijoBeta    = 0.5
	maxLineSearch = 30
	minGradient   = 1e-12
)

// primalStepper sweeps solve coordinates in increasing order and takes a
// line-searched Newton step on each one.
type primalStepper struct {
	loss marginLoss
}

func (s *primalStepper) init(d *dataset, ws *workspace) {
	lp := &ws.lp
	ws.margin = grow(ws.margin, lp.size())
	clear(ws.margin)
	for j, wj := range ws.w {
		if wj == 0 {
			continue
		}
		idx, val := d.gatherColumn(ws, j)
		for k, l := range idx {
			ws.margin[l] += wj * val[k]
		}
	}
	for l := range ws.margin {
		ws.margin[l] *= lp.y[l]
	}
}

func (s *primalStepper) sweep(d *dataset, ws *workspace) float64 {
	lp := &ws.lp
	violation := 0.0
	for j := range ws.w {
		idx, val := d.gatherColumn(ws, j)
		wj := ws.w[j]

		g, h := wj, 1.0
		for k, l := range idx {
			c := lp.cost[l]
			if c == 0 {
				continue
			}
			x := val[k]
			d1, d2 := s.loss.derivs(ws.margin[l])
			g += c * d1 * lp.y[l] * x
			h += c * d2 * x * x
		}
		violation = math.Max(violation, math.Abs(g))
		if math.Abs(g) <= minGradient {
			continue
		}

		step := -g / h
		slope := g * step
		lambda := 1.0
		accepted := false
		for try := 0; try < maxLineSearch; try++ {
			z := lambda * step
			delta := 0.5*(wj+z)*(wj+z) - 0.5*wj*wj
			for k, l := range idx {
				c := lp.cost[l]
				if c == 0 {
					continue
				}
				m := ws.margin[l]
				delta += c * (s.loss.value(m+z*lp.y[l]*val[k]) - s.loss.value(m))
			}
			if delta <= armijoSigma*lambda*slope {
				accepted = true
				break
			}
			lambda *= armijoBeta
		}
		if !accepted {
			continue
		}

		z := lambda * step
		ws.w[j] = wj + z
		for k, l := range idx {
			ws.margin[l] += z * lp.y[l] * val[k]
		}
	}
	return violation
}

func (s *primalStepper) objective(_ *dataset, ws *workspace) float64 {
	return primalObjective(s.loss, ws)
}
