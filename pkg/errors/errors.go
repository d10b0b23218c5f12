// Package errors は xlinear 全体のエラーハンドリングと警告システムを提供します。
// 形状エラー・パラメータエラー・数値発散の3分類を型付きエラーとして表現し、
// いずれも cockroachdb/errors によるスタックトレースを保持します。
package errors

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("xlinear-warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler は警告ハンドラを設定します。
// ConvergenceWarning などの処理方法を呼び出し側で制御できます。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nil を渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されていれば構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	エラー分類（errors.Is で判定するための番兵）
//
// ===========================================================================

var (
	// ErrInvalidDimension は行列形状の不整合を表します。呼び出し全体で致命的です。
	ErrInvalidDimension = New("invalid dimension")

	// ErrInvalidParameter は学習設定の不正を表します。ディスパッチ前に検出されます。
	ErrInvalidParameter = New("invalid parameter")

	// ErrNumericalDivergence はラベル単位の求解で NaN/Inf が発生したことを表します。
	ErrNumericalDivergence = New("numerical divergence")

	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")
)

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// ConvergenceWarning は最適化が反復上限までに収束しなかった場合の警告です。
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing max_iter or relaxing threshold.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning は新しいConvergenceWarningを作成します。
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// EmptyProblemWarning は有効インスタンスが0件のラベルがあったことを知らせます。
// エラーではなく、該当列はウォームスタート（またはゼロ）のまま返されます。
type EmptyProblemWarning struct {
	Labels []int
}

func (w *EmptyProblemWarning) Error() string {
	const shown = 8
	parts := make([]string, 0, shown)
	for i, l := range w.Labels {
		if i == shown {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, fmt.Sprint(l))
	}
	return fmt.Sprintf("%d label(s) had no active instances and were returned unchanged: [%s]",
		len(w.Labels), strings.Join(parts, " "))
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *EmptyProblemWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Int("count", len(w.Labels)).
		Ints("labels", w.Labels).
		Str("type", "EmptyProblemWarning")
}

// NewEmptyProblemWarning は新しいEmptyProblemWarningを作成します。ラベルは昇順に並べ替えられます。
func NewEmptyProblemWarning(labels []int) *EmptyProblemWarning {
	sorted := append([]int(nil), labels...)
	sort.Ints(sorted)
	return &EmptyProblemWarning{Labels: sorted}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0: rows, 1: columns, -1: 配列長
}

func (e *DimensionError) axisName() string {
	switch e.Axis {
	case 0:
		return "rows"
	case 1:
		return "columns"
	default:
		return "array length"
	}
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("xlinear: %s: dimension mismatch on axis %d (%s). Expected %d, got %d",
		e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

// Unwrap は ErrInvalidDimension を返し、errors.Is による分類を可能にします。
func (e *DimensionError) Unwrap() error { return ErrInvalidDimension }

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", e.axisName()).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// StructureError は疎行列の配列構造そのものが壊れている場合のエラーです
// （indptr の非単調性、行番号の範囲外など）。分類上は InvalidDimension です。
type StructureError struct {
	Op     string
	Reason string
	Index  int
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("xlinear: %s: malformed sparse structure at %d: %s", e.Op, e.Index, e.Reason)
}

// Unwrap は ErrInvalidDimension を返します。
func (e *StructureError) Unwrap() error { return ErrInvalidDimension }

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *StructureError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("reason", e.Reason).
		Int("index", e.Index).
		Str("type", "StructureError")
}

// NewStructureError は新しいStructureErrorを作成し、スタックトレースを付与します。
func NewStructureError(op, reason string, index int) error {
	return errors.WithStack(&StructureError{Op: op, Reason: reason, Index: index})
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
// ParamName に問題のあるフィールド名が入ります。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("xlinear: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// Unwrap は ErrInvalidParameter を返します。
func (e *ValidationError) Unwrap() error { return ErrInvalidParameter }

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ModelError はモデルの保存・読み込みなど周辺処理の一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("xlinear: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("xlinear: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// NumericalInstabilityError は数値計算が発散した（NaN/Inf が発生した）場合のエラーです。
// Label は発散したラベル列の番号で、ラベルに紐づかない場合は -1 です。
type NumericalInstabilityError struct {
	Operation string                 // 発生した操作（例: "objective", "gradient"）
	Values    []float64              // 問題のある値
	Context   map[string]interface{} // デバッグ用の追加コンテキスト情報
	Iteration int                    // 発生したイテレーション番号
	Label     int
}

func (e *NumericalInstabilityError) Error() string {
	vals := make([]string, 0, len(e.Values))
	for i, v := range e.Values {
		if i >= 5 {
			vals = append(vals, "...")
			break
		}
		vals = append(vals, fmt.Sprintf("%.6g", v))
	}
	where := ""
	if e.Label >= 0 {
		where = fmt.Sprintf(" for label %d", e.Label)
	}
	return fmt.Sprintf("xlinear: numerical instability detected in %s%s at iteration %d. Values: [%s]",
		e.Operation, where, e.Iteration, strings.Join(vals, ", "))
}

// Unwrap は ErrNumericalDivergence を返します。
func (e *NumericalInstabilityError) Unwrap() error { return ErrNumericalDivergence }

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NumericalInstabilityError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Int("label", e.Label).
		Int("iteration", e.Iteration).
		Floats64("values", e.Values).
		Str("type", "NumericalInstabilityError")
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
		Label:     -1,
		Context:   make(map[string]interface{}),
	}
	return errors.WithStack(err)
}

// WithLabel はエラーチェーン中の NumericalInstabilityError にラベル番号を設定し、
// ラベル番号をメッセージに含めてラップします。err が nil なら nil を返します。
func WithLabel(err error, label int) error {
	if err == nil {
		return nil
	}
	var ni *NumericalInstabilityError
	if errors.As(err, &ni) && ni.Label < 0 {
		ni.Label = label
	}
	return errors.Wrapf(err, "label %d", label)
}

// LabelOf はエラーチェーンから発散したラベル番号を取り出します。
func LabelOf(err error) (int, bool) {
	var ni *NumericalInstabilityError
	if errors.As(err, &ni) && ni.Label >= 0 {
		return ni.Label, true
	}
	return -1, false
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}
