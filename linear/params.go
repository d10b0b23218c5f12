package linear

import (
	"fmt"
	"math"
	"runtime"
	"strings"

	"github.com/YuminosukeSato/xlinear/pkg/errors"
)

// SolverType selects the loss function and the coordinate-descent family.
type SolverType int

const (
	// L2RL2LossSVCDual solves the squared-hinge SVM by dual coordinate descent.
	L2RL2LossSVCDual SolverType = iota + 1
	// L2RL1LossSVCDual solves the hinge SVM by dual coordinate descent.
	L2RL1LossSVCDual
	// L2RLRDual solves logistic regression by dual coordinate descent.
	L2RLRDual
	// L2RL2LossSVCPrimal solves the squared-hinge SVM by primal coordinate descent.
	L2RL2LossSVCPrimal
	// L2RLRPrimal solves logistic regression by primal coordinate descent.
	L2RLRPrimal
)

var solverNames = map[SolverType]string{
	L2RL2LossSVCDual:   "L2R_L2LOSS_SVC_DUAL",
	L2RL1LossSVCDual:   "L2R_L1LOSS_SVC_DUAL",
	L2RLRDual:          "L2R_LR_DUAL",
	L2RL2LossSVCPrimal: "L2R_L2LOSS_SVC_PRIMAL",
	L2RLRPrimal:        "L2R_LR_PRIMAL",
}

var solverAliases = map[string]SolverType{
	"L2R_L2LOSS_SVC": L2RL2LossSVCDual,
	"L2R_LR":         L2RLRPrimal,
}

// SolverTypes lists every supported variant.
func SolverTypes() []SolverType {
	return []SolverType{L2RL2LossSVCDual, L2RL1LossSVCDual, L2RLRDual, L2RL2LossSVCPrimal, L2RLRPrimal}
}

// String returns the canonical name, e.g. "L2R_L2LOSS_SVC_DUAL".
func (s SolverType) String() string {
	if name, ok := solverNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SolverType(%d)", int(s))
}

// Valid reports whether s is a supported variant.
func (s SolverType) Valid() bool {
	_, ok := solverNames[s]
	return ok
}

// IsDual reports whether s sweeps over instances instead of features.
func (s SolverType) IsDual() bool {
	return s == L2RL2LossSVCDual || s == L2RL1LossSVCDual || s == L2RLRDual
}

// ParseSolverType parses a canonical name or alias, ignoring case.
func ParseSolverType(name string) (SolverType, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	for s, n := range solverNames {
		if n == key {
			return s, nil
		}
	}
	if s, ok := solverAliases[key]; ok {
		return s, nil
	}
	return 0, errors.NewValidationError("solver_type", "unknown solver", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s SolverType) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, errors.NewValidationError("solver_type", "unknown solver", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SolverType) UnmarshalText(b []byte) error {
	v, err := ParseSolverType(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// TrainParams configures one training call.
type TrainParams struct {
	SolverType SolverType `json:"solver_type"`

	// MaxIter caps the number of full sweeps per label. 0 returns the warm start unchanged.
	MaxIter int `json:"max_iter"`

	// Threshold stops a label once the gradient or projected-gradient measure is at or below it.
	Threshold float64 `json:"threshold"`

	// Cp and Cn scale the loss of positive and negative instances. 0 means 1.
	Cp float64 `json:"cp"`
	Cn float64 `json:"cn"`

	// Bias appends a constant feature with this value when >= 0; negative disables it.
	Bias float64 `json:"bias"`

	// WeightEpsilon drops output coefficients whose magnitude is at or below it.
	WeightEpsilon float64 `json:"weight_epsilon"`

	// Threads is the worker count; <= 0 means one per CPU.
	Threads int `json:"threads"`
}

// DefaultTrainParams returns the defaults used when a field is not set explicitly.
func DefaultTrainParams() TrainParams {
	return TrainParams{
		SolverType:    L2RL2LossSVCDual,
		MaxIter:       100,
		Threshold:     0.1,
		Cp:            1,
		Cn:            1,
		Bias:          -1,
		WeightEpsilon: 1e-10,
		Threads:       -1,
	}
}

// HasBias reports whether a bias coordinate is appended.
func (p TrainParams) HasBias() bool { return p.Bias >= 0 }

// Resolve validates p and fills normalized defaults. The returned error is a
// *errors.ValidationError naming the offending field.
func Resolve(p TrainParams) (TrainParams, error) {
	if !p.SolverType.Valid() {
		return p, errors.NewValidationError("solver_type", "unknown solver", int(p.SolverType))
	}
	if p.MaxIter < 0 {
		return p, errors.NewValidationError("max_iter", "must be non-negative", p.MaxIter)
	}
	if !finite(p.Threshold) || p.Threshold < 0 {
		return p, errors.NewValidationError("threshold", "must be finite and non-negative", p.Threshold)
	}
	var err error
	if p.Cp, err = resolveCost("Cp", p.Cp); err != nil {
		return p, err
	}
	if p.Cn, err = resolveCost("Cn", p.Cn); err != nil {
		return p, err
	}
	if !finite(p.Bias) {
		return p, errors.NewValidationError("bias", "must be finite", p.Bias)
	}
	if p.Bias < 0 {
		p.Bias = -1
	}
	if !finite(p.WeightEpsilon) || p.WeightEpsilon < 0 {
		return p, errors.NewValidationError("weight_epsilon", "must be finite and non-negative", p.WeightEpsilon)
	}
	if p.Threads <= 0 {
		p.Threads = runtime.NumCPU()
	}
	return p, nil
}

func resolveCost(name string, v float64) (float64, error) {
	if v == 0 {
		return 1, nil
	}
	if !finite(v) || v < 0 {
		return v, errors.NewValidationError(name, "must be finite and positive", v)
	}
	return v, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
