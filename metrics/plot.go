package metrics

import (
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/xlinear/linear"
	"github.com/YuminosukeSato/xlinear/pkg/errors"
)

// 出力画像のサイズ
const (
	plotWidth  = 6 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// iterationHistogram はスイープしたラベルの反復回数のヒストグラムを作る
func iterationHistogram(reports []linear.LabelReport, bins int) (*plot.Plot, error) {
	var values plotter.Values
	for _, rep := range reports {
		if rep.Iterations > 0 {
			values = append(values, float64(rep.Iterations))
		}
	}
	if len(values) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "no label was swept")
	}
	if bins <= 0 {
		bins = 20
	}

	h, err := plotter.NewHist(values, bins)
	if err != nil {
		return nil, errors.Wrap(err, "build histogram")
	}

	p := plot.New()
	p.Title.Text = "Coordinate-descent sweeps per label"
	p.X.Label.Text = "iterations"
	p.Y.Label.Text = "labels"
	p.Add(h)
	return p, nil
}

// PlotIterations はヒストグラムをファイルに保存する。形式は拡張子（png, svg, pdf など）で決まる。
func PlotIterations(reports []linear.LabelReport, bins int, filename string) error {
	p, err := iterationHistogram(reports, bins)
	if err != nil {
		return err
	}
	if err := p.Save(plotWidth, plotHeight, filename); err != nil {
		return errors.NewModelError("PlotIterations", "save "+filepath.Ext(filename), err)
	}
	return nil
}

// WriteIterations はヒストグラムを format 形式で w に書き出す
func WriteIterations(w io.Writer, reports []linear.LabelReport, bins int, format string) error {
	p, err := iterationHistogram(reports, bins)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(plotWidth, plotHeight, strings.ToLower(format))
	if err != nil {
		return errors.NewModelError("WriteIterations", "format "+format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.NewModelError("WriteIterations", "write", err)
	}
	return nil
}
