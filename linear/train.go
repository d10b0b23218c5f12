// Package linear trains one L2-regularized linear classifier per label column
// of a sparse multi-label problem by coordinate descent, optionally
// warm-started from an earlier weight matrix.
package linear

import (
	"context"
	"fmt"
	"time"

	"github.com/YuminosukeSato/xlinear/core/parallel"
	"github.com/YuminosukeSato/xlinear/pkg/errors"
	"github.com/YuminosukeSato/xlinear/pkg/log"
	"github.com/YuminosukeSato/xlinear/sparse"
)

// Result is the output of Trainer.Train.
type Result struct {
	// W is features(+1 with bias) x labels; column j belongs to label j.
	W *sparse.CSC
	// Labels holds one report per label, in label order.
	Labels   []LabelReport
	Duration time.Duration
}

// Unconverged returns the labels that used every sweep without meeting the
// threshold. Degenerate and zero-iteration labels are not included.
func (r *Result) Unconverged() []int {
	var out []int
	for _, rep := range r.Labels {
		if rep.Iterations > 0 && !rep.Converged {
			out = append(out, rep.Label)
		}
	}
	return out
}

// Degenerate returns the labels whose instances were all masked.
func (r *Result) Degenerate() []int {
	var out []int
	for _, rep := range r.Labels {
		if rep.Degenerate {
			out = append(out, rep.Label)
		}
	}
	return out
}

// Trainer runs training calls. It holds no per-call state, so one Trainer can
// serve concurrent calls.
type Trainer struct {
	logger log.Logger
}

// TrainerOption configures a Trainer.
type TrainerOption func(*Trainer)

// WithLogger sets the logger. The default is the "linear" component logger.
func WithLogger(l log.Logger) TrainerOption {
	return func(t *Trainer) {
		t.logger = l
	}
}

// NewTrainer creates a Trainer.
func NewTrainer(opts ...TrainerOption) *Trainer {
	t := &Trainer{}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = log.GetLoggerWithName("linear")
	}
	return t
}

// Train fits every label column of prob.Y and returns the weight matrix.
// w0 may be nil; when given, its column j seeds label j and labels beyond its
// width start from zero.
func Train(ctx context.Context, prob *Problem, w0 *sparse.CSC, params TrainParams) (*sparse.CSC, error) {
	res, err := NewTrainer().Train(ctx, prob, w0, params)
	if err != nil {
		return nil, err
	}
	return res.W, nil
}

// Train validates params and shapes once, solves the labels on a pool of
// params.Threads workers and assembles W in label order. The first label that
// fails aborts the call; no partial W is returned.
func (t *Trainer) Train(ctx context.Context, prob *Problem, w0 *sparse.CSC, params TrainParams) (res *Result, err error) {
	defer errors.Recover(&err, "linear.Train")
	start := time.Now()

	p, err := Resolve(params)
	if err != nil {
		t.logger.Error("Invalid training parameters", err, log.PhaseKey, log.PhaseResolve)
		return nil, err
	}
	if err := prob.Validate(w0, p.HasBias()); err != nil {
		t.logger.Error("Invalid training input", err, log.OperationKey, log.OperationValidate)
		return nil, err
	}

	logger := t.logger.With(log.SolverKey, p.SolverType.String())
	nLabels := prob.Labels()
	logger.Info("Training started",
		log.OperationKey, log.OperationTrain,
		log.SamplesKey, prob.Instances(),
		log.FeaturesKey, prob.Features(),
		log.LabelsKey, nLabels,
		log.NNZKey, prob.X.NNZ(),
		log.MaxIterKey, p.MaxIter,
		log.ThresholdKey, p.Threshold,
		log.CpKey, p.Cp,
		log.CnKey, p.Cn,
		log.BiasKey, p.Bias,
		log.ThreadsKey, p.Threads,
		log.WarmStartKey, w0 != nil,
	)

	d := newDataset(prob, w0, p)
	cols := make([]sparse.Column, nLabels)
	reports := make([]LabelReport, nLabels)

	err = parallel.ForEach(ctx, nLabels, p.Threads,
		func(int) *workspace { return newWorkspace(d) },
		func(_ context.Context, ws *workspace, j int) error {
			col, rep, err := ws.solve(d, j)
			if err != nil {
				return errors.WithLabel(err, j)
			}
			cols[j], reports[j] = col, rep
			if logger.Enabled(ctx, log.LevelDebug) {
				logger.Debug("Label solved",
					log.LabelKey, j,
					log.ActiveKey, rep.ActiveInstances,
					log.IterationKey, rep.Iterations,
					log.ObjectiveKey, rep.Objective,
					log.ViolationKey, rep.Violation,
					log.ConvergedKey, rep.Converged,
				)
			}
			return nil
		})
	if err != nil {
		logger.Error("Training failed", err, log.PhaseKey, log.PhaseDispatch)
		return nil, err
	}

	W, err := sparse.FromColumns(d.nSolve, cols)
	if err != nil {
		return nil, errors.Wrap(err, "assemble weight matrix")
	}
	res = &Result{W: W, Labels: reports, Duration: time.Since(start)}

	if deg := res.Degenerate(); len(deg) > 0 {
		errors.Warn(errors.NewEmptyProblemWarning(deg))
	}
	if un := res.Unconverged(); len(un) > 0 && p.Threshold > 0 {
		errors.Warn(errors.NewConvergenceWarning(p.SolverType.String(), p.MaxIter,
			fmt.Sprintf("%d of %d labels did not reach threshold %g", len(un), nLabels, p.Threshold)))
	}

	logger.Info("Training completed",
		log.OperationKey, log.OperationTrain,
		log.LabelsKey, nLabels,
		log.NNZKey, W.NNZ(),
		log.DegenerateKey, len(res.Degenerate()),
		log.DurationMsKey, res.Duration.Milliseconds(),
	)
	return res, nil
}
