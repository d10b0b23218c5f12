package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/xlinear/core/model"
	"github.com/YuminosukeSato/xlinear/linear"
	"github.com/YuminosukeSato/xlinear/metrics"
	"github.com/YuminosukeSato/xlinear/pkg/errors"
	"github.com/YuminosukeSato/xlinear/pkg/log"
	"github.com/YuminosukeSato/xlinear/sparse"
)

func newTrainCmd(v *viper.Viper) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "train one classifier per label column",
		Long: `Train one classifier per label column of Y and write the weight matrix.

  Sample usages:
  xlinear train --x X.gob --y Y.gob --out W.gob
  xlinear train --x X.gob --y Y.gob --w0 W.gob --out W1.gob --solver L2R_LR_DUAL
  xlinear train --x X.gob --y Y.gob --m mask.gob --max-iter 0 --w0 W.gob --out W.gob`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTrain(cmd, v)
		},
	}

	def := linear.DefaultTrainParams()
	f := cmd.Flags()
	f.String("x", "", "feature matrix X (instances x features), gob CSC")
	f.String("y", "", "label matrix Y (instances x labels), gob CSC")
	f.String("c", "", "optional per-instance-label cost matrix")
	f.String("m", "", "optional mask matrix; a non-zero entry excludes the instance for that label")
	f.String("r", "", "optional relevance matrix multiplied into the cost")
	f.String("w0", "", "optional warm-start weight matrix")
	f.String("out", "W.gob", "output weight matrix")
	f.String("solver", def.SolverType.String(), "solver: "+solverNames())
	f.Int("max-iter", def.MaxIter, "maximum sweeps per label; 0 returns the warm start unchanged")
	f.Float64("threshold", def.Threshold, "stopping tolerance")
	f.Float64("cp", def.Cp, "cost of positive instances")
	f.Float64("cn", def.Cn, "cost of negative instances")
	f.Float64("bias", def.Bias, "bias feature value; negative disables the bias row")
	f.Float64("weight-eps", def.WeightEpsilon, "weights with magnitude at or below this are dropped")
	f.Int("threads", def.Threads, "worker count; non-positive uses every CPU")
	f.String("profile", "", "write a profile: cpu, mem, block, mutex, trace")
	f.String("profile-dir", ".", "directory for profile output")
	f.String("plot", "", "write a histogram of sweeps per label (png, svg, pdf)")
	f.String("report", "", "write a JSON training report with per-label results")
	if err := v.BindPFlags(f); err != nil {
		return nil, errors.Wrap(err, "bind train flags")
	}

	return cmd, nil
}

func solverNames() string {
	var names []string
	for _, s := range linear.SolverTypes() {
		names = append(names, s.String())
	}
	return strings.Join(names, ", ")
}

func paramsFrom(v *viper.Viper) (linear.TrainParams, error) {
	solver, err := linear.ParseSolverType(v.GetString("solver"))
	if err != nil {
		return linear.TrainParams{}, err
	}
	return linear.NewTrainParams(
		linear.WithSolver(solver),
		linear.WithMaxIter(v.GetInt("max-iter")),
		linear.WithThreshold(v.GetFloat64("threshold")),
		linear.WithCosts(v.GetFloat64("cp"), v.GetFloat64("cn")),
		linear.WithBias(v.GetFloat64("bias")),
		linear.WithWeightEpsilon(v.GetFloat64("weight-eps")),
		linear.WithThreads(v.GetInt("threads")),
	), nil
}

func profileMode(name string) (func(*profile.Profile), error) {
	switch strings.ToLower(name) {
	case "cpu":
		return profile.CPUProfile, nil
	case "mem":
		return profile.MemProfile, nil
	case "block":
		return profile.BlockProfile, nil
	case "mutex":
		return profile.MutexProfile, nil
	case "trace":
		return profile.TraceProfile, nil
	}
	return nil, errors.NewValidationError("profile", "must be cpu, mem, block, mutex or trace", name)
}

func runTrain(cmd *cobra.Command, v *viper.Viper) error {
	logger := log.GetLoggerWithName("cli")

	if v.GetString("x") == "" || v.GetString("y") == "" {
		return errors.NewValidationError("x/y", "both --x and --y are required", nil)
	}
	params, err := paramsFrom(v)
	if err != nil {
		return err
	}

	if name := v.GetString("profile"); name != "" {
		mode, err := profileMode(name)
		if err != nil {
			return err
		}
		defer profile.Start(mode, profile.ProfilePath(v.GetString("profile-dir")), profile.Quiet, profile.NoShutdownHook).Stop()
	}

	prob := &linear.Problem{}
	inputs := []struct {
		flag string
		dst  **sparse.CSC
	}{
		{"x", &prob.X}, {"y", &prob.Y}, {"c", &prob.C}, {"m", &prob.M}, {"r", &prob.R},
	}
	for _, in := range inputs {
		m, err := model.LoadOptionalMatrix(v.GetString(in.flag))
		if err != nil {
			logger.Error("Failed to load matrix", err, log.PathKey, v.GetString(in.flag), log.OperationKey, log.OperationLoad)
			return err
		}
		*in.dst = m
	}
	w0, err := model.LoadOptionalMatrix(v.GetString("w0"))
	if err != nil {
		logger.Error("Failed to load warm start", err, log.PathKey, v.GetString("w0"), log.OperationKey, log.OperationLoad)
		return err
	}

	res, err := linear.NewTrainer().Train(cmd.Context(), prob, w0, params)
	if err != nil {
		return err
	}

	out := v.GetString("out")
	if err := model.SaveMatrix(res.W, out); err != nil {
		logger.Error("Failed to save weights", err, log.PathKey, out, log.OperationKey, log.OperationSave)
		return err
	}
	logger.Info("Weights saved", log.PathKey, out, log.NNZKey, res.W.NNZ())

	summary, err := metrics.Summarize(res.Labels)
	if err == nil {
		summary.Log(logger)
		printSummary(cmd.OutOrStdout(), out, res, summary)
	}

	if path := v.GetString("report"); path != "" {
		tr := model.NewTrainingReport(res, params, w0 != nil)
		for _, key := range []string{"x", "y", "c", "m", "r", "w0", "out"} {
			if f := v.GetString(key); f != "" {
				tr.Metadata[key] = f
			}
		}
		if err := model.SaveReport(tr, path); err != nil {
			logger.Error("Failed to save report", err, log.PathKey, path, log.OperationKey, log.OperationSave)
			return err
		}
	}
	if path := v.GetString("plot"); path != "" {
		if err := metrics.PlotIterations(res.Labels, 0, path); err != nil {
			// nothing was swept, e.g. --max-iter 0
			if errors.Is(err, errors.ErrEmptyData) {
				logger.Warn("Skipping iteration plot", log.WarningKey, err)
				return nil
			}
			return err
		}
	}
	return nil
}

func printSummary(w io.Writer, out string, res *linear.Result, s metrics.Summary) {
	r, c := res.W.Dims()
	fmt.Fprintf(w, "wrote %s: %d x %d, %d non-zeros\n", out, r, c, res.W.NNZ())
	fmt.Fprintf(w, "labels: %d converged, %d unconverged, %d degenerate\n", s.Converged, s.Unconverged, s.Degenerate)
	if s.Solved > 0 {
		fmt.Fprintf(w, "sweeps: mean %.1f, median %.0f, p95 %.0f, max %.0f\n",
			s.MeanIterations, s.MedianIterations, s.P95Iterations, s.MaxIterations)
	}
	fmt.Fprintf(w, "elapsed: %s\n", res.Duration)
}
