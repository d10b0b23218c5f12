package linear

// Option configures TrainParams on top of DefaultTrainParams.
type Option func(*TrainParams)

// NewTrainParams applies opts to the defaults.
func NewTrainParams(opts ...Option) TrainParams {
	p := DefaultTrainParams()
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// WithSolver sets the solver variant.
func WithSolver(s SolverType) Option {
	return func(p *TrainParams) {
		p.SolverType = s
	}
}

// WithMaxIter sets the per-label sweep cap.
func WithMaxIter(n int) Option {
	return func(p *TrainParams) {
		p.MaxIter = n
	}
}

// WithThreshold sets the convergence tolerance.
func WithThreshold(tol float64) Option {
	return func(p *TrainParams) {
		p.Threshold = tol
	}
}

// WithCosts sets the positive and negative class cost multipliers.
func WithCosts(cp, cn float64) Option {
	return func(p *TrainParams) {
		p.Cp = cp
		p.Cn = cn
	}
}

// WithBias enables the bias coordinate with the given feature value.
// A negative value disables it.
func WithBias(b float64) Option {
	return func(p *TrainParams) {
		p.Bias = b
	}
}

// WithWeightEpsilon sets the sparsification cutoff for output coefficients.
func WithWeightEpsilon(eps float64) Option {
	return func(p *TrainParams) {
		p.WeightEpsilon = eps
	}
}

// WithThreads sets the number of parallel workers.
func WithThreads(n int) Option {
	return func(p *TrainParams) {
		p.Threads = n
	}
}
