// Package loantrain is a small training utility for a loan-default
// classifier. It loads a configured CSV dataset, reconstructs a
// preprocessing+logistic-regression pipeline from the hyperparameters of the
// best historical run recorded on an MLflow tracking server, fits and
// evaluates it, and registers the fitted pipeline as the new production model
// version.
//
// The workflow is wired by cmd/loantrain:
//
//	cfg, _ := config.Load("configs/config.yaml")
//	loader := dataset.NewLoader(cfg)
//	df, _ := loader.Load("train_dataset")
//	X, y, _ := loader.SplitFeatures(df)
//	client, _ := tracking.NewHTTPClient(ctx, cfg.TrackingURI, cfg.ExperimentName)
//	trainer := train.NewTrainer(X, y, cfg.ModelName, client)
//	err := trainer.Run(ctx)
package loantrain
