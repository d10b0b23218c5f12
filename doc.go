// Package xlinear trains one L2-regularized linear classifier per label of a
// sparse multi-label problem, the per-node step of extreme multi-label tree
// models. Training can resume from an earlier weight matrix.
//
// # Features
//
//   - Five coordinate-descent solvers: squared-hinge and logistic loss in
//     primal form, squared-hinge, hinge and logistic loss in dual form
//   - Warm start from a previous weight matrix, including zero-sweep calls
//     that return it unchanged
//   - Per instance-label cost, mask and relevance matrices
//   - Labels are solved in parallel with results that do not depend on the
//     worker count
//   - Zero-copy CSC views over caller-owned arrays
//
// # Quick Start
//
//	X, _ := sparse.NewCSC(n, d, xIndptr, xIndices, xData)
//	Y, _ := sparse.NewCSC(n, L, yIndptr, yIndices, yData)
//	prob := &linear.Problem{X: X, Y: Y}
//
//	params := linear.NewTrainParams(
//	    linear.WithSolver(linear.L2RL2LossSVCDual),
//	    linear.WithMaxIter(100),
//	)
//	W0, err := linear.Train(ctx, prob, nil, params)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// continue from W0 after the data changed
//	W, err := linear.Train(ctx, prob, W0, params)
//
// # Packages
//
//   - sparse: CSC matrix views and the CSR copy used by dual solvers
//   - linear: parameters, per-label extraction, solvers and the trainer
//   - core/parallel: the worker pool that solves labels
//   - core/model: gob persistence for matrices and reports
//   - metrics: run summaries and sweep histograms
//   - pkg/errors, pkg/log: error kinds and structured logging
//   - cmd/xlinear: the command-line trainer
package xlinear
