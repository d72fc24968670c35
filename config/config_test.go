package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/probloan/loantrain/pkg/errors"
)

const validConfig = `
datasets:
  train_dataset: train.csv
  valid_dataset: valid.csv
columns_to_use:
  - person_age
  - person_income
  - loan_amnt
  - target
target_column: target
model_name: model_prob_loan
tracking_uri: http://127.0.0.1:5000
experiment_name: prob_loan
data_dir: data/raw
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ModelName != "model_prob_loan" {
		t.Errorf("ModelName = %q", cfg.ModelName)
	}
	if got := len(cfg.ColumnsToUse); got != 4 {
		t.Errorf("columns = %d, want 4", got)
	}
	if cfg.DataDir != "data/raw" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}

	file, err := cfg.DatasetFile("train_dataset")
	if err != nil {
		t.Fatalf("DatasetFile failed: %v", err)
	}
	if file != "train.csv" {
		t.Errorf("DatasetFile = %q, want train.csv", file)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load of a missing file should fail")
	}
}

func TestLoadMalformed(t *testing.T) {
	if _, err := Load(writeConfig(t, "datasets: [not a map")); err == nil {
		t.Fatal("Load of malformed YAML should fail")
	}
}

func TestLoadTargetNotInColumns(t *testing.T) {
	bad := `
datasets:
  d: d.csv
columns_to_use: [a, b]
target_column: c
model_name: m
`
	_, err := Load(writeConfig(t, bad))
	var confErr *errors.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("got %v, want ConfigurationError", err)
	}
}

func TestDatasetFileUnknown(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	_, err = cfg.DatasetFile("nonexistent")
	var confErr *errors.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("got %v, want ConfigurationError", err)
	}
}

func TestFeatureColumns(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	features := cfg.FeatureColumns()
	if len(features) != 3 {
		t.Fatalf("features = %v, want 3 columns", features)
	}
	for _, col := range features {
		if col == cfg.TargetColumn {
			t.Errorf("target column leaked into features: %v", features)
		}
	}
}
