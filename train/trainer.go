// Package train orchestrates the final-model workflow: it selects the best
// historical run, rebuilds the preprocessing+classifier pipeline from that
// run's recorded hyperparameters, fits and evaluates it, and registers the
// result with the tracking server.
package train

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/probloan/loantrain/evaluation"
	"github.com/probloan/loantrain/hyperparams"
	"github.com/probloan/loantrain/linear"
	"github.com/probloan/loantrain/pipeline"
	"github.com/probloan/loantrain/pkg/errors"
	"github.com/probloan/loantrain/pkg/log"
	"github.com/probloan/loantrain/tracking"
)

const (
	// MetricValidROCAUC is the validation metric recorded on every run.
	MetricValidROCAUC = "valid_roc_auc"

	// bestRunFilter excludes the sentinel metric value 1.0 placeholder runs
	// carry.
	bestRunFilter = "metrics.valid_roc_auc < 1"

	// ProductionAlias is the registry alias moved onto each newly registered
	// version.
	ProductionAlias = "production"

	// finalRunName names the run the final training is recorded under.
	finalRunName = "final_model"

	// artifactName is the run-relative path of the serialized pipeline.
	artifactName = "model/pipeline.gob"
)

// Trainer holds the training data and registers the fitted pipeline under the
// configured model name.
type Trainer struct {
	x         *mat.Dense
	y         *mat.VecDense
	modelName string
	client    tracking.Client
	evaluator *evaluation.Evaluator
	logger    *slog.Logger

	featureNames []string
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithFeatureNames records the feature column names logged with the input
// example artifact.
func WithFeatureNames(names []string) Option {
	return func(t *Trainer) { t.featureNames = names }
}

// NewTrainer creates a Trainer over the given data and tracking client.
func NewTrainer(X *mat.Dense, y *mat.VecDense, modelName string, client tracking.Client, opts ...Option) *Trainer {
	t := &Trainer{
		x:         X,
		y:         y,
		modelName: modelName,
		client:    client,
		evaluator: evaluation.NewEvaluator(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SelectBestRun returns the metric and full hyperparameter set of the
// historical run with the highest validation ROC AUC strictly below 1.
// Equal metrics resolve to the most recently started run, so repeated calls
// against an unchanged history return the same run. With no eligible run the
// result is a NoEligibleRunError.
func (t *Trainer) SelectBestRun(ctx context.Context) (float64, map[string]string, error) {
	t.logger.Info("selecting best historical run", slog.String(log.ModelNameKey, t.modelName))

	runs, err := t.client.SearchRuns(ctx, bestRunFilter, []string{
		"metrics." + MetricValidROCAUC + " DESC",
		"attributes.start_time DESC",
	})
	if err != nil {
		return 0, nil, errors.Wrap(err, "search runs")
	}

	best := -1
	for i, run := range runs {
		metric, ok := run.Metrics[MetricValidROCAUC]
		if !ok || metric >= 1 {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		bestMetric := runs[best].Metrics[MetricValidROCAUC]
		if metric > bestMetric || (metric == bestMetric && run.StartTime > runs[best].StartTime) {
			best = i
		}
	}
	if best < 0 {
		return 0, nil, errors.NewNoEligibleRunError(bestRunFilter)
	}

	chosen := runs[best]
	t.logger.Info("best run selected",
		slog.String(log.RunIDKey, chosen.ID),
		slog.Float64(log.MetricKey, chosen.Metrics[MetricValidROCAUC]))
	return chosen.Metrics[MetricValidROCAUC], chosen.Params, nil
}

// buildClassifier constructs the logistic classifier from recorded
// hyperparameters. Every value passes through the closed-vocabulary parser.
func buildClassifier(params map[string]string) (*linear.LogisticRegression, error) {
	warmStart, err := hyperparams.ParseBool(hyperparams.KeyWarmStart, params[hyperparams.KeyWarmStart])
	if err != nil {
		return nil, err
	}
	fitIntercept, err := hyperparams.ParseBool(hyperparams.KeyFitIntercept, params[hyperparams.KeyFitIntercept])
	if err != nil {
		return nil, err
	}
	multiClass, err := hyperparams.ParseMultiClass(params[hyperparams.KeyMultiClass])
	if err != nil {
		return nil, err
	}
	classWeight, err := hyperparams.ParseClassWeight(params[hyperparams.KeyClassWeight])
	if err != nil {
		return nil, err
	}
	solver, err := hyperparams.ParseSolver(params[hyperparams.KeySolver])
	if err != nil {
		return nil, err
	}
	maxIter, err := hyperparams.ParseInt(hyperparams.KeyMaxIter, params[hyperparams.KeyMaxIter])
	if err != nil {
		return nil, err
	}
	tol, err := hyperparams.ParseFloat(hyperparams.KeyTol, params[hyperparams.KeyTol])
	if err != nil {
		return nil, err
	}
	c, err := hyperparams.ParseFloat(hyperparams.KeyC, params[hyperparams.KeyC])
	if err != nil {
		return nil, err
	}

	return linear.NewLogisticRegression(
		linear.WithWarmStart(warmStart),
		linear.WithMultiClass(multiClass),
		linear.WithClassWeight(classWeight),
		linear.WithMaxIter(maxIter),
		linear.WithC(c),
		linear.WithSolver(solver),
		linear.WithTol(tol),
		linear.WithFitIntercept(fitIntercept),
	), nil
}

// buildPipeline assembles imputer, discretiser, scaler and classifier from
// the best run's hyperparameters.
func buildPipeline(params map[string]string) (*pipeline.Pipeline, error) {
	classifier, err := buildClassifier(params)
	if err != nil {
		return nil, err
	}

	imputer, err := hyperparams.ParseImputer(params[hyperparams.KeyImputer])
	if err != nil {
		return nil, err
	}
	discretiser, err := hyperparams.ParseDiscretiser(params[hyperparams.KeyDiscretizer])
	if err != nil {
		return nil, err
	}
	scaler, err := hyperparams.ParseScaler(params[hyperparams.KeyScaler])
	if err != nil {
		return nil, err
	}

	return pipeline.New(classifier,
		pipeline.Step{Name: "imputer", Transformer: imputer},
		pipeline.Step{Name: "discretizer", Transformer: discretiser},
		pipeline.Step{Name: "scaler", Transformer: scaler},
	), nil
}

// Run executes the full workflow: best-run lookup, pipeline reconstruction,
// in-sample fit, evaluation, metric logging and model registration. The
// workflow is one-shot and linear; if registration fails after the fit, the
// fitted pipeline is lost and a retry trains again.
func (t *Trainer) Run(ctx context.Context) error {
	_, params, err := t.SelectBestRun(ctx)
	if err != nil {
		return err
	}

	t.logger.Info("starting final training", slog.String(log.ModelNameKey, t.modelName))

	pipe, err := buildPipeline(params)
	if err != nil {
		return err
	}

	if err := pipe.Fit(t.x, t.y); err != nil {
		return errors.Wrap(err, "pipeline fit")
	}

	scores, err := pipe.PositiveProba(t.x)
	if err != nil {
		return errors.Wrap(err, "predict probabilities")
	}
	metric, err := t.evaluator.EvaluatePredictions(t.y, scores)
	if err != nil {
		return errors.Wrap(err, "evaluate predictions")
	}
	t.logger.Info("final model evaluated", slog.Float64(log.MetricKey, metric))

	runID, err := t.client.CreateRun(ctx, finalRunName)
	if err != nil {
		return errors.Wrap(err, "create run")
	}

	if err := t.record(ctx, runID, pipe, scores, metric); err != nil {
		if endErr := t.client.EndRun(ctx, runID, tracking.RunFailed); endErr != nil {
			t.logger.Error("finalizing failed run", log.ErrAttr(endErr))
		}
		return err
	}
	return t.client.EndRun(ctx, runID, tracking.RunFinished)
}

// record logs the metric and artifacts, registers the new model version and
// moves the production alias onto it. scores are the positive-class
// probabilities already computed during evaluation.
func (t *Trainer) record(ctx context.Context, runID string, pipe *pipeline.Pipeline, scores *mat.VecDense, metric float64) error {
	if err := t.client.SetTag(ctx, runID, "model_name", t.modelName); err != nil {
		return errors.Wrap(err, "set tag")
	}
	if err := t.client.LogMetric(ctx, runID, MetricValidROCAUC, metric); err != nil {
		return errors.Wrap(err, "log metric")
	}

	blob, err := pipe.Marshal()
	if err != nil {
		return err
	}
	if err := t.client.UploadArtifact(ctx, runID, artifactName, blob); err != nil {
		return errors.Wrap(err, "upload pipeline artifact")
	}

	example, err := t.inputExample()
	if err != nil {
		return err
	}
	if err := t.client.UploadArtifact(ctx, runID, "model/input_example.json", example); err != nil {
		return errors.Wrap(err, "upload input example")
	}

	if curve, err := evaluation.ROCCurvePNG(t.y, scores); err != nil {
		// The curve is a convenience artifact; a degenerate label distribution
		// must not fail registration.
		t.logger.Warn("skipping roc curve artifact", log.ErrAttr(err))
	} else if err := t.client.UploadArtifact(ctx, runID, "roc_curve.png", curve); err != nil {
		return errors.Wrap(err, "upload roc curve")
	}

	version, err := t.client.RegisterModel(ctx, t.modelName, runID, artifactName)
	if err != nil {
		return errors.Wrap(err, "register model")
	}
	t.logger.Info("model version registered",
		slog.String(log.ModelNameKey, t.modelName),
		slog.String("model.version", version.Version))

	versions, err := t.client.ModelVersions(ctx, t.modelName)
	if err != nil {
		return errors.Wrap(err, "list model versions")
	}
	if len(versions) == 0 {
		return errors.Newf("registered model %q has no versions", t.modelName)
	}

	// Promotion is last-write-wins: the alias always moves to the newest
	// version, even when its metric is worse than the currently aliased
	// version's. The registry does not guarantee list order, so newest is
	// resolved explicitly.
	newest := versions[0]
	for _, v := range versions[1:] {
		if newerVersion(v, newest) {
			newest = v
		}
	}
	if err := t.client.SetModelAlias(ctx, t.modelName, ProductionAlias, newest.Version); err != nil {
		return errors.Wrap(err, "set model alias")
	}
	t.logger.Info("production alias moved",
		slog.String(log.ModelNameKey, t.modelName),
		slog.String("model.version", newest.Version))
	return nil
}

// newerVersion reports whether a was registered after b. Registry version
// numbers are monotonically increasing numeric strings; creation time is the
// fallback when one does not parse.
func newerVersion(a, b tracking.ModelVersion) bool {
	av, aErr := strconv.Atoi(a.Version)
	bv, bErr := strconv.Atoi(b.Version)
	if aErr == nil && bErr == nil {
		return av > bv
	}
	return a.CreationTime > b.CreationTime
}

// inputExample serializes the first feature row as the registered model's
// input example.
func (t *Trainer) inputExample() ([]byte, error) {
	_, cols := t.x.Dims()
	row := make([]float64, cols)
	mat.Row(row, 0, t.x)

	example := map[string]any{"data": [][]float64{row}}
	if len(t.featureNames) == len(row) {
		example["columns"] = t.featureNames
	}

	encoded, err := json.Marshal(example)
	if err != nil {
		return nil, errors.Wrap(err, "encode input example")
	}
	return encoded, nil
}
