// Package log defines standard attribute keys for estimator operations.
//
// Using these keys consistently across packages enables filtering of
// structured logs by model, operation, data shape, and hyperparameters.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "Exact", "RFF"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "holdout"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "krr", "kernel", "synth"
	ComponentKey = "ml.component"
)

// Data shape.
const (
	// SamplesKey indicates the number of samples (columns) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of feature dimensions (rows).
	FeaturesKey = "data.features"

	// LatentsKey indicates the number of latent parameter dimensions.
	LatentsKey = "data.latents"

	// OrderKey indicates the random feature approximation order H.
	OrderKey = "data.order"
)

// Hyperparameter search context.
const (
	// LambdaKey is the kernel bandwidth scale of a grid cell.
	LambdaKey = "grid.lambda"

	// RhoKey is the Tikhonov regularization of a grid cell.
	RhoKey = "grid.rho"

	// CellKey is the flattened grid cell index.
	CellKey = "grid.cell"

	// CostKey is the holdout cost computed for a grid cell.
	CostKey = "grid.cost"
)

// Performance.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)
