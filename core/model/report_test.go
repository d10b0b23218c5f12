package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/xlinear/linear"
	"github.com/YuminosukeSato/xlinear/pkg/errors"
	"github.com/YuminosukeSato/xlinear/sparse"
)

func sampleResult(t *testing.T) *linear.Result {
	t.Helper()
	W, err := sparse.NewCSC(3, 2, []int{0, 1, 3}, []int{2, 0, 1}, []float32{0.5, -1, 2})
	require.NoError(t, err)
	return &linear.Result{
		W: W,
		Labels: []linear.LabelReport{
			{Label: 0, ActiveInstances: 4, Iterations: 7, Objective: 1.25, Violation: 0.01, Converged: true},
			{Label: 1, ActiveInstances: 0, Degenerate: true},
		},
		Duration: 1500 * time.Millisecond,
	}
}

func TestTrainingReportRoundTrip(t *testing.T) {
	params := linear.NewTrainParams(linear.WithSolver(linear.L2RLRDual), linear.WithBias(1))
	tr := NewTrainingReport(sampleResult(t), params, true)
	tr.Metadata["x"] = "X.gob"

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, SaveReport(tr, path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"solver_type": "L2R_LR_DUAL"`)

	got, err := LoadReport(path)
	require.NoError(t, err)
	assert.Equal(t, tr.Params, got.Params)
	assert.Equal(t, tr.Labels, got.Labels)
	assert.Equal(t, []int{3, 2, 3}, []int{got.Rows, got.Cols, got.NNZ})
	assert.True(t, got.WarmStart)
	assert.Equal(t, 1500*time.Millisecond, got.Duration())
	assert.Equal(t, "X.gob", got.Metadata["x"])
}

func TestTrainingReportValidate(t *testing.T) {
	base := NewTrainingReport(sampleResult(t), linear.DefaultTrainParams(), false)
	require.NoError(t, base.Validate())

	tests := []struct {
		name     string
		mut      func(*TrainingReport)
		sentinel error
	}{
		{"missing version", func(r *TrainingReport) { r.Version = "" }, errors.ErrInvalidParameter},
		{"future version", func(r *TrainingReport) { r.Version = "99" }, errors.ErrInvalidParameter},
		{"label count", func(r *TrainingReport) { r.Labels = r.Labels[:1] }, errors.ErrInvalidDimension},
		{"label order", func(r *TrainingReport) { r.Labels[0].Label, r.Labels[1].Label = 1, 0 }, errors.ErrInvalidDimension},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base.Clone()
			tt.mut(r)
			assert.True(t, errors.Is(r.Validate(), tt.sentinel))
		})
	}
	assert.NoError(t, base.Validate(), "Clone does not share labels")
}

func TestLoadReportErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadReport(filepath.Join(dir, "missing.json"))
	var me *errors.ModelError
	assert.True(t, errors.As(err, &me))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = LoadReport(bad)
	assert.True(t, errors.As(err, &me))
	assert.Equal(t, "decode", me.Kind)
}
