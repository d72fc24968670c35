// Package tracking talks to the experiment-tracking server: run history
// queries, run lifecycle, metric/tag logging, artifact upload and the model
// registry. The Trainer consumes the Client interface; HTTPClient implements
// it against the MLflow REST API.
package tracking

import "context"

// RunStatus is the terminal status recorded on a finished run.
type RunStatus string

const (
	// RunFinished marks a run that completed successfully.
	RunFinished RunStatus = "FINISHED"
	// RunFailed marks a run that ended in an error.
	RunFailed RunStatus = "FAILED"
)

// Run is one recorded execution of a training or search procedure.
type Run struct {
	// ID is the tracking server's unique run identifier.
	ID string

	// StartTime is the run's start in milliseconds since the epoch.
	StartTime int64

	// Metrics holds the run's latest logged metric values.
	Metrics map[string]float64

	// Params holds the run's logged hyperparameters as recorded strings.
	Params map[string]string
}

// ModelVersion is one immutable version of a registered model.
type ModelVersion struct {
	// Name is the registered model name.
	Name string

	// Version is the registry-assigned version number, as a string.
	Version string

	// RunID is the run the version was registered from.
	RunID string

	// CreationTime is the version's creation in milliseconds since the epoch.
	CreationTime int64
}

// Client is the tracking-server surface the training workflow needs. All
// calls are synchronous and carry a context; there is no ambient global
// tracking state.
type Client interface {
	// SearchRuns returns the experiment's runs matching filter, in the order
	// the orderBy clauses dictate.
	SearchRuns(ctx context.Context, filter string, orderBy []string) ([]Run, error)

	// CreateRun starts a new named run and returns its identifier.
	CreateRun(ctx context.Context, runName string) (string, error)

	// EndRun finalizes a run with the given terminal status.
	EndRun(ctx context.Context, runID string, status RunStatus) error

	// LogMetric records a scalar metric on a run.
	LogMetric(ctx context.Context, runID, key string, value float64) error

	// SetTag records a tag on a run.
	SetTag(ctx context.Context, runID, key, value string) error

	// UploadArtifact stores an artifact body under the run's artifact root.
	UploadArtifact(ctx context.Context, runID, path string, data []byte) error

	// RegisterModel ensures the registered model exists and creates a new
	// version of it from the run's uploaded artifact.
	RegisterModel(ctx context.Context, name, runID, artifactPath string) (ModelVersion, error)

	// ModelVersions lists every version of a registered model.
	ModelVersions(ctx context.Context, name string) ([]ModelVersion, error)

	// SetModelAlias points a named alias at a specific model version.
	SetModelAlias(ctx context.Context, name, alias, version string) error
}
