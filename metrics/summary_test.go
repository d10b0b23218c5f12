package metrics

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/xlinear/linear"
	"github.com/YuminosukeSato/xlinear/pkg/errors"
	"github.com/YuminosukeSato/xlinear/pkg/log"
)

func reports() []linear.LabelReport {
	return []linear.LabelReport{
		{Label: 0, ActiveInstances: 10, Iterations: 4, Objective: 1.5, Violation: 0.01, Converged: true},
		{Label: 1, ActiveInstances: 10, Iterations: 8, Objective: 2.5, Violation: 0.02, Converged: true},
		{Label: 2, ActiveInstances: 10, Iterations: 100, Objective: 3, Violation: 0.7},
		{Label: 3, ActiveInstances: 0, Degenerate: true},
		{Label: 4, ActiveInstances: 6},
	}
}

func TestSummarize(t *testing.T) {
	s, err := Summarize(reports())
	require.NoError(t, err)

	assert.Equal(t, 5, s.Labels)
	assert.Equal(t, 2, s.Converged)
	assert.Equal(t, 1, s.Unconverged)
	assert.Equal(t, 1, s.Degenerate)
	assert.Equal(t, 3, s.Solved)

	assert.InDelta(t, 112.0/3, s.MeanIterations, 1e-12)
	assert.Equal(t, 8.0, s.MedianIterations)
	assert.Equal(t, 100.0, s.MaxIterations)
	assert.GreaterOrEqual(t, s.P95Iterations, s.MedianIterations)
	assert.LessOrEqual(t, s.P95Iterations, s.MaxIterations)

	assert.InDelta(t, 7.0, s.TotalObjective, 1e-12)
	assert.Equal(t, 0.7, s.MaxViolation)
	assert.InDelta(t, 36.0/5, s.MeanActive, 1e-12)
}

func TestSummarizeWithoutSweeps(t *testing.T) {
	s, err := Summarize([]linear.LabelReport{{Label: 0, ActiveInstances: 3}, {Label: 1, Degenerate: true}})
	require.NoError(t, err)
	assert.Zero(t, s.Solved)
	assert.Zero(t, s.MeanIterations)
	assert.Equal(t, 1, s.Degenerate)
}

func TestSummarizeEmpty(t *testing.T) {
	_, err := Summarize(nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestSummaryLog(t *testing.T) {
	logger := log.NewTestLogger(log.LevelInfo)
	s, err := Summarize(reports())
	require.NoError(t, err)

	s.Log(logger)
	entries := logger.EntriesWithMessage("Training summary")
	require.Len(t, entries, 1)
	assert.Equal(t, float64(5), entries[0][log.LabelsKey])
	assert.Equal(t, float64(100), entries[0]["iterations.max"])
}

func TestPlotIterations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iterations.png")
	require.NoError(t, PlotIterations(reports(), 10, path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("\x89PNG")))
}

func TestWriteIterations(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteIterations(&buf, reports(), 0, "svg"))
	assert.Contains(t, buf.String(), "<svg")

	err := WriteIterations(&buf, []linear.LabelReport{{Label: 0, Degenerate: true}}, 5, "png")
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	err = WriteIterations(&buf, reports(), 5, "bmp")
	var me *errors.ModelError
	assert.True(t, errors.As(err, &me))
}
