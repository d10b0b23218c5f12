// Package metrics は学習呼び出しの診断情報（ラベルごとの反復回数や収束状況）を集計する。
package metrics

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/YuminosukeSato/xlinear/linear"
	"github.com/YuminosukeSato/xlinear/pkg/errors"
	"github.com/YuminosukeSato/xlinear/pkg/log"
)

// Summary は1回の学習呼び出しの集計結果
type Summary struct {
	Labels      int `json:"labels"`
	Converged   int `json:"converged"`
	Unconverged int `json:"unconverged"`
	Degenerate  int `json:"degenerate"`
	// Solved は1回以上スイープしたラベル数。以下の反復統計はこれらのラベルが対象。
	Solved int `json:"solved"`

	MeanIterations   float64 `json:"mean_iterations"`
	MedianIterations float64 `json:"median_iterations"`
	P95Iterations    float64 `json:"p95_iterations"`
	MaxIterations    float64 `json:"max_iterations"`

	TotalObjective float64 `json:"total_objective"`
	MaxViolation   float64 `json:"max_violation"`
	MeanActive     float64 `json:"mean_active_instances"`
}

// Summarize はラベルごとのレポートを集計する
//
// レポートが空の場合は ErrEmptyData を返す。
func Summarize(reports []linear.LabelReport) (Summary, error) {
	if len(reports) == 0 {
		return Summary{}, errors.Wrap(errors.ErrEmptyData, "Summarize")
	}

	s := Summary{Labels: len(reports)}
	var iters, active stats.Float64Data
	for _, rep := range reports {
		active = append(active, float64(rep.ActiveInstances))
		switch {
		case rep.Degenerate:
			s.Degenerate++
			continue
		case rep.Converged:
			s.Converged++
		case rep.Iterations > 0:
			s.Unconverged++
		}
		if rep.Iterations == 0 {
			continue
		}
		s.Solved++
		iters = append(iters, float64(rep.Iterations))
		s.TotalObjective += rep.Objective
		s.MaxViolation = math.Max(s.MaxViolation, rep.Violation)
	}

	var err error
	if s.MeanActive, err = active.Mean(); err != nil {
		return Summary{}, errors.Wrap(err, "Summarize: active instances")
	}
	if len(iters) == 0 {
		return s, nil
	}

	if s.MeanIterations, err = iters.Mean(); err != nil {
		return Summary{}, errors.Wrap(err, "Summarize: mean")
	}
	if s.MedianIterations, err = iters.Median(); err != nil {
		return Summary{}, errors.Wrap(err, "Summarize: median")
	}
	if s.P95Iterations, err = iters.Percentile(95); err != nil {
		return Summary{}, errors.Wrap(err, "Summarize: percentile")
	}
	if s.MaxIterations, err = iters.Max(); err != nil {
		return Summary{}, errors.Wrap(err, "Summarize: max")
	}
	return s, nil
}

// Log は集計結果を1行のInfoログとして出力する
func (s Summary) Log(logger log.Logger) {
	logger.Info("Training summary",
		log.LabelsKey, s.Labels,
		"converged", s.Converged,
		"unconverged", s.Unconverged,
		log.DegenerateKey, s.Degenerate,
		"iterations.mean", s.MeanIterations,
		"iterations.median", s.MedianIterations,
		"iterations.p95", s.P95Iterations,
		"iterations.max", s.MaxIterations,
		log.ObjectiveKey, s.TotalObjective,
		log.ViolationKey, s.MaxViolation,
	)
}
