// Command loantrain runs the full training workflow: load the configured
// dataset, select the best historical run from the tracking server, retrain
// the pipeline with its hyperparameters and register the result.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/alexflint/go-arg"

	"github.com/probloan/loantrain/config"
	"github.com/probloan/loantrain/dataset"
	"github.com/probloan/loantrain/pkg/log"
	"github.com/probloan/loantrain/tracking"
	"github.com/probloan/loantrain/train"
)

type args struct {
	Config   string `arg:"--config" default:"configs/config.yaml" help:"path to the project configuration"`
	Dataset  string `arg:"--dataset,required" help:"logical name of the dataset to train on"`
	LogLevel string `arg:"--log-level" default:"info" help:"debug, info, warn or error"`
}

func main() {
	var a args
	arg.MustParse(&a)

	log.SetupLogger(a.LogLevel)
	logger := slog.Default()

	if err := run(context.Background(), a); err != nil {
		logger.Error("training workflow failed", log.ErrAttr(err))
		os.Exit(1)
	}
	logger.Info("training workflow finished")
}

func run(ctx context.Context, a args) error {
	cfg, err := config.Load(a.Config)
	if err != nil {
		return err
	}

	loader := dataset.NewLoader(cfg)
	df, err := loader.Load(a.Dataset)
	if err != nil {
		return err
	}
	X, y, err := loader.SplitFeatures(df)
	if err != nil {
		return err
	}

	client, err := tracking.NewHTTPClient(ctx, cfg.TrackingURI, cfg.ExperimentName)
	if err != nil {
		return err
	}

	trainer := train.NewTrainer(X, y, cfg.ModelName, client,
		train.WithFeatureNames(cfg.FeatureColumns()))
	return trainer.Run(ctx)
}
