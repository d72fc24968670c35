// Package config loads the static project configuration: dataset name to
// filename mapping, columns to retain, target column, registry model name and
// tracking-server coordinates.
package config

import (
	"os"

	"gopkg.in/yaml.v2"

	"github.com/probloan/loantrain/pkg/errors"
)

// Config is the parsed project configuration.
type Config struct {
	// Datasets maps a logical dataset name to its CSV filename under DataDir.
	Datasets map[string]string `yaml:"datasets"`

	// ColumnsToUse lists the columns retained from a loaded dataset,
	// in order. Includes the target column.
	ColumnsToUse []string `yaml:"columns_to_use"`

	// TargetColumn is the label column inside ColumnsToUse.
	TargetColumn string `yaml:"target_column"`

	// ModelName is the registry name the trained pipeline is registered under.
	ModelName string `yaml:"model_name"`

	// TrackingURI is the MLflow tracking server address.
	TrackingURI string `yaml:"tracking_uri"`

	// ExperimentName is the active experiment on the tracking server.
	ExperimentName string `yaml:"experiment_name"`

	// DataDir is the root directory raw datasets are read from.
	DataDir string `yaml:"data_dir"`
}

// Load reads and parses the YAML configuration at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	var cfg Config
	if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = "data/raw"
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ModelName == "" {
		return errors.NewConfigurationError("model_name", "must be set")
	}
	if len(c.ColumnsToUse) == 0 {
		return errors.NewConfigurationError("columns_to_use", "must list at least one column")
	}
	if c.TargetColumn == "" {
		return errors.NewConfigurationError("target_column", "must be set")
	}
	for _, col := range c.ColumnsToUse {
		if col == c.TargetColumn {
			return nil
		}
	}
	return errors.NewConfigurationError("target_column", "must be a member of columns_to_use")
}

// DatasetFile resolves a logical dataset name to its configured filename.
func (c *Config) DatasetFile(name string) (string, error) {
	file, ok := c.Datasets[name]
	if !ok {
		return "", errors.NewConfigurationError(name, "unknown dataset name")
	}
	return file, nil
}

// FeatureColumns returns ColumnsToUse without the target column.
func (c *Config) FeatureColumns() []string {
	features := make([]string, 0, len(c.ColumnsToUse))
	for _, col := range c.ColumnsToUse {
		if col != c.TargetColumn {
			features = append(features, col)
		}
	}
	return features
}
