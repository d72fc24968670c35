package train

import (
	"context"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/probloan/loantrain/pkg/errors"
	"github.com/probloan/loantrain/tracking"
)

// fakeClient is an in-memory tracking.Client for trainer tests.
type fakeClient struct {
	runs []tracking.Run

	createdRuns []string
	endedRuns   map[string]tracking.RunStatus
	metrics     map[string]map[string]float64
	tags        map[string]map[string]string
	artifacts   map[string][]byte
	versions    map[string][]tracking.ModelVersion
	aliases     map[string]map[string]string
}

func newFakeClient(runs ...tracking.Run) *fakeClient {
	return &fakeClient{
		runs:      runs,
		endedRuns: map[string]tracking.RunStatus{},
		metrics:   map[string]map[string]float64{},
		tags:      map[string]map[string]string{},
		artifacts: map[string][]byte{},
		versions:  map[string][]tracking.ModelVersion{},
		aliases:   map[string]map[string]string{},
	}
}

func (f *fakeClient) SearchRuns(_ context.Context, filter string, _ []string) ([]tracking.Run, error) {
	// The server-side filter excludes the sentinel; mimic that here.
	matched := make([]tracking.Run, 0, len(f.runs))
	for _, run := range f.runs {
		if metric, ok := run.Metrics[MetricValidROCAUC]; ok && metric < 1 {
			matched = append(matched, run)
		}
	}
	return matched, nil
}

func (f *fakeClient) CreateRun(_ context.Context, runName string) (string, error) {
	runID := "run-" + strconv.Itoa(len(f.createdRuns)+1)
	f.createdRuns = append(f.createdRuns, runID)
	return runID, nil
}

func (f *fakeClient) EndRun(_ context.Context, runID string, status tracking.RunStatus) error {
	f.endedRuns[runID] = status
	return nil
}

func (f *fakeClient) LogMetric(_ context.Context, runID, key string, value float64) error {
	if f.metrics[runID] == nil {
		f.metrics[runID] = map[string]float64{}
	}
	f.metrics[runID][key] = value
	return nil
}

func (f *fakeClient) SetTag(_ context.Context, runID, key, value string) error {
	if f.tags[runID] == nil {
		f.tags[runID] = map[string]string{}
	}
	f.tags[runID][key] = value
	return nil
}

func (f *fakeClient) UploadArtifact(_ context.Context, runID, path string, data []byte) error {
	f.artifacts[runID+"/"+path] = data
	return nil
}

func (f *fakeClient) RegisterModel(_ context.Context, name, runID, artifactPath string) (tracking.ModelVersion, error) {
	version := tracking.ModelVersion{
		Name:    name,
		Version: strconv.Itoa(len(f.versions[name]) + 1),
		RunID:   runID,
	}
	f.versions[name] = append(f.versions[name], version)
	return version, nil
}

func (f *fakeClient) ModelVersions(_ context.Context, name string) ([]tracking.ModelVersion, error) {
	// The registry does not promise ascending order; return newest first the
	// way the MLflow search endpoint tends to.
	stored := f.versions[name]
	out := make([]tracking.ModelVersion, len(stored))
	for i, v := range stored {
		out[len(stored)-1-i] = v
	}
	return out, nil
}

func (f *fakeClient) SetModelAlias(_ context.Context, name, alias, version string) error {
	if f.aliases[name] == nil {
		f.aliases[name] = map[string]string{}
	}
	f.aliases[name][alias] = version
	return nil
}

// goodParams is a full recorded hyperparameter set in the registry's string
// format.
func goodParams() map[string]string {
	return map[string]string{
		"class_weight":  "balanced",
		"discretizer":   "EqualFrequencyDiscretiser(q=2)",
		"warm_start":    "False",
		"imputer":       "MeanMedianImputer(imputation_method='median')",
		"solver":        "lbfgs",
		"scaler":        "SklearnTransformerWrapper(transformer=StandardScaler())",
		"max_iter":      "50",
		"fit_intercept": "True",
		"tol":           "0.0001",
		"multi_class":   "auto",
		"C":             "1.0",
	}
}

func historicalRun(id string, startTime int64, metric float64) tracking.Run {
	return tracking.Run{
		ID:        id,
		StartTime: startTime,
		Metrics:   map[string]float64{MetricValidROCAUC: metric},
		Params:    goodParams(),
	}
}

// trainingData builds a small separable binary problem with a missing value.
func trainingData() (*mat.Dense, *mat.VecDense) {
	n := 40
	X := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		if i < n/2 {
			X.Set(i, 0, float64(i%10))
			X.Set(i, 1, float64(i%7))
		} else {
			X.Set(i, 0, 30+float64(i%10))
			X.Set(i, 1, 30+float64(i%7))
			y.SetVec(i, 1)
		}
	}
	X.Set(5, 1, math.NaN())
	return X, y
}

func TestSelectBestRunPicksHighestMetric(t *testing.T) {
	client := newFakeClient(
		historicalRun("run-a", 100, 0.81),
		historicalRun("run-b", 200, 0.95),
		historicalRun("run-c", 300, 1.0),
		historicalRun("run-d", 400, 0.62),
	)
	X, y := trainingData()
	trainer := NewTrainer(X, y, "model_prob_loan", client)

	metric, params, err := trainer.SelectBestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.95, metric)
	assert.Equal(t, goodParams(), params)
}

func TestSelectBestRunBreaksTiesByStartTime(t *testing.T) {
	old := historicalRun("run-old", 100, 0.9)
	old.Params["max_iter"] = "100"
	newest := historicalRun("run-new", 500, 0.9)
	newest.Params["max_iter"] = "500"
	mid := historicalRun("run-mid", 300, 0.9)
	mid.Params["max_iter"] = "300"
	client := newFakeClient(old, newest, mid)

	X, y := trainingData()
	trainer := NewTrainer(X, y, "model_prob_loan", client)

	_, params, err := trainer.SelectBestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "500", params["max_iter"], "equal metrics resolve to the most recent run")

	_, again, err := trainer.SelectBestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, params, again, "selection over an unchanged history is stable")
}

func TestSelectBestRunNoEligibleRuns(t *testing.T) {
	client := newFakeClient(historicalRun("run-sentinel", 100, 1.0))
	X, y := trainingData()
	trainer := NewTrainer(X, y, "model_prob_loan", client)

	_, _, err := trainer.SelectBestRun(context.Background())
	var noRunErr *errors.NoEligibleRunError
	require.ErrorAs(t, err, &noRunErr)
}

func TestRunRegistersAndPromotes(t *testing.T) {
	client := newFakeClient(historicalRun("run-best", 100, 0.9))
	// Two versions already exist; the run below must mint version 3 and move
	// the alias onto it.
	client.versions["model_prob_loan"] = []tracking.ModelVersion{
		{Name: "model_prob_loan", Version: "1", RunID: "old-1"},
		{Name: "model_prob_loan", Version: "2", RunID: "old-2"},
	}

	X, y := trainingData()
	trainer := NewTrainer(X, y, "model_prob_loan", client,
		WithFeatureNames([]string{"person_age", "person_income"}))

	require.NoError(t, trainer.Run(context.Background()))

	require.Len(t, client.createdRuns, 1)
	runID := client.createdRuns[0]
	assert.Equal(t, tracking.RunFinished, client.endedRuns[runID])
	assert.Equal(t, "model_prob_loan", client.tags[runID]["model_name"])

	metric, ok := client.metrics[runID][MetricValidROCAUC]
	require.True(t, ok, "validation metric logged")
	assert.Greater(t, metric, 0.9, "in-sample AUC on separable data")

	assert.NotEmpty(t, client.artifacts[runID+"/model/pipeline.gob"])
	assert.NotEmpty(t, client.artifacts[runID+"/model/input_example.json"])
	assert.NotEmpty(t, client.artifacts[runID+"/roc_curve.png"])

	require.Len(t, client.versions["model_prob_loan"], 3)
	assert.Equal(t, "3", client.aliases["model_prob_loan"][ProductionAlias],
		"alias tracks the newest version even when the registry lists it first")
}

// Promotion is last-write-wins: the alias lands on the newest version even
// when a previously aliased version had a better metric.
func TestRunPromotionIsLastWriteWins(t *testing.T) {
	client := newFakeClient(historicalRun("run-best", 100, 0.7))
	client.versions["model_prob_loan"] = []tracking.ModelVersion{
		{Name: "model_prob_loan", Version: "1", RunID: "old-1"},
	}
	client.aliases["model_prob_loan"] = map[string]string{ProductionAlias: "1"}

	X, y := trainingData()
	trainer := NewTrainer(X, y, "model_prob_loan", client)

	require.NoError(t, trainer.Run(context.Background()))

	assert.Equal(t, "2", client.aliases["model_prob_loan"][ProductionAlias],
		"alias moved off the previously aliased version")
}

func TestRunRejectsUnknownSpecString(t *testing.T) {
	params := goodParams()
	params["scaler"] = "__import__('os').system('true')"
	client := newFakeClient(tracking.Run{
		ID:        "run-evil",
		StartTime: 100,
		Metrics:   map[string]float64{MetricValidROCAUC: 0.9},
		Params:    params,
	})

	X, y := trainingData()
	trainer := NewTrainer(X, y, "model_prob_loan", client)

	err := trainer.Run(context.Background())
	var specErr *errors.SpecRejectionError
	require.ErrorAs(t, err, &specErr)
	assert.Empty(t, client.createdRuns, "no run recorded for a rejected spec")
}

func TestBuildPipelineMinMaxScaler(t *testing.T) {
	params := goodParams()
	params["scaler"] = "SklearnTransformerWrapper(transformer=MinMaxScaler())"

	pipe, err := buildPipeline(params)
	require.NoError(t, err)

	X, y := trainingData()
	require.NoError(t, pipe.Fit(X, y))
	scores, err := pipe.PositiveProba(X)
	require.NoError(t, err)
	assert.Equal(t, 40, scores.Len())
}
