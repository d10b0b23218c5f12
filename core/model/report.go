package model

import (
	"encoding/json"
	"os"
	"time"

	"github.com/YuminosukeSato/xlinear/linear"
	"github.com/YuminosukeSato/xlinear/pkg/errors"
)

// ReportVersion は TrainingReport の形式のバージョン（互換性チェック用）
const ReportVersion = "1"

// TrainingReport は学習呼び出しの結果を表す構造体（シリアライゼーション用）。
// 重み行列そのものは含まず、SaveMatrix で別に保存する。
type TrainingReport struct {
	Version string             `json:"version"`
	Params  linear.TrainParams `json:"params"`

	// Rows, Cols, NNZ は出力された重み行列の形と非ゼロ数
	Rows int `json:"rows"`
	Cols int `json:"cols"`
	NNZ  int `json:"nnz"`

	WarmStart  bool                 `json:"warm_start"`
	DurationMs int64                `json:"duration_ms"`
	Labels     []linear.LabelReport `json:"labels"`

	// Metadata は追加のメタデータ（入力ファイル名等）
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewTrainingReport は学習結果からレポートを作成する
func NewTrainingReport(res *linear.Result, params linear.TrainParams, warmStart bool) *TrainingReport {
	r, c := res.W.Dims()
	return &TrainingReport{
		Version:    ReportVersion,
		Params:     params,
		Rows:       r,
		Cols:       c,
		NNZ:        res.W.NNZ(),
		WarmStart:  warmStart,
		DurationMs: res.Duration.Milliseconds(),
		Labels:     append([]linear.LabelReport(nil), res.Labels...),
		Metadata:   make(map[string]interface{}),
	}
}

// Duration は学習時間を返す
func (tr *TrainingReport) Duration() time.Duration {
	return time.Duration(tr.DurationMs) * time.Millisecond
}

// ToJSON はTrainingReportをJSON形式にシリアライズ
func (tr *TrainingReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(tr, "", "  ")
}

// FromJSON はJSON形式からTrainingReportをデシリアライズ
func (tr *TrainingReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, tr)
}

// Validate はTrainingReportの妥当性を検証
func (tr *TrainingReport) Validate() error {
	if tr.Version == "" {
		return errors.NewValidationError("version", "is required", tr.Version)
	}
	if tr.Version != ReportVersion {
		return errors.NewValidationError("version", "unsupported report version", tr.Version)
	}
	if len(tr.Labels) != tr.Cols {
		return errors.NewDimensionError("TrainingReport.Labels", tr.Cols, len(tr.Labels), -1)
	}
	for j, rep := range tr.Labels {
		if rep.Label != j {
			return errors.NewStructureError("TrainingReport.Labels", "reports must be in label order", j)
		}
	}
	return nil
}

// Clone はTrainingReportのディープコピーを作成
func (tr *TrainingReport) Clone() *TrainingReport {
	clone := *tr
	clone.Labels = append([]linear.LabelReport(nil), tr.Labels...)
	clone.Metadata = make(map[string]interface{}, len(tr.Metadata))
	for k, v := range tr.Metadata {
		clone.Metadata[k] = v
	}
	return &clone
}

// SaveReport はレポートをJSONファイルに保存する
func SaveReport(tr *TrainingReport, filename string) error {
	data, err := tr.ToJSON()
	if err != nil {
		return errors.NewModelError("SaveReport", "encode", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), 0o644); err != nil {
		return errors.NewModelError("SaveReport", "write file", err)
	}
	return nil
}

// LoadReport はJSONファイルからレポートを読み込み、検証する
func LoadReport(filename string) (*TrainingReport, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.NewModelError("LoadReport", "read file", err)
	}
	var tr TrainingReport
	if err := tr.FromJSON(data); err != nil {
		return nil, errors.NewModelError("LoadReport", "decode", err)
	}
	if err := tr.Validate(); err != nil {
		return nil, err
	}
	return &tr, nil
}
