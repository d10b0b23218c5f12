package log

// Attribute keys shared by every component so that log queries stay stable
// across backends.
const (
	// ComponentKey identifies which package is emitting the record.
	ComponentKey = "ml.component"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// PhaseKey indicates the phase within an operation.
	PhaseKey = "ml.phase"

	// SolverKey records the canonical solver variant name.
	SolverKey = "solver.type"
)

// Data shape keys.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	LabelsKey   = "data.labels"
	NNZKey      = "data.nnz"

	// ActiveKey is the number of unmasked instances of one label.
	ActiveKey = "data.active_instances"
)

// Training progress keys.
const (
	LabelKey     = "training.label"
	IterationKey = "training.iteration"
	ObjectiveKey = "training.objective"
	ViolationKey = "training.violation"
	ConvergedKey = "training.converged"
	WarmStartKey = "training.warm_start"

	// DegenerateKey counts labels that had no active instances.
	DegenerateKey = "training.degenerate"
)

// Hyperparameter keys.
const (
	MaxIterKey   = "hyperparams.max_iter"
	ThresholdKey = "hyperparams.threshold"
	CpKey        = "hyperparams.cp"
	CnKey        = "hyperparams.cn"
	BiasKey      = "hyperparams.bias"
	ThreadsKey   = "hyperparams.threads"
)

// Performance and infrastructure keys.
const (
	DurationMsKey = "perf.duration_ms"
	WorkerIDKey   = "infra.worker_id"
	PathKey       = "io.path"
)

// Error keys.
const (
	ErrorTypeKey = "error.type"
	WarningKey   = "warning"
)

// Operation values.
const (
	OperationTrain    = "train"
	OperationValidate = "validate"
	OperationSave     = "save"
	OperationLoad     = "load"
)

// Phase values.
const (
	PhaseResolve  = "resolve"
	PhaseDispatch = "dispatch"
	PhaseSolve    = "solve"
	PhaseAssemble = "assemble"
)
