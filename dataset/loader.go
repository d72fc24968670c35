// Package dataset resolves logical dataset names to CSV files, loads them and
// projects them to the configured column set.
package dataset

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"

	"github.com/probloan/loantrain/config"
	"github.com/probloan/loantrain/pkg/errors"
	"github.com/probloan/loantrain/pkg/log"
)

// Loader reads configured datasets from the raw data directory.
type Loader struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewLoader creates a Loader over the given configuration.
func NewLoader(cfg *config.Config) *Loader {
	return &Loader{cfg: cfg, logger: slog.Default()}
}

// Load resolves name through the configuration, reads the CSV and projects it
// to the configured columns. An unknown name fails with ConfigurationError
// before any file access; read or projection failures are DataAccessError.
func (l *Loader) Load(name string) (dataframe.DataFrame, error) {
	l.logger.Info("loading dataset", slog.String(log.DatasetKey, name))

	file, err := l.cfg.DatasetFile(name)
	if err != nil {
		l.logger.Error("unknown dataset name", log.ErrAttr(err))
		return dataframe.DataFrame{}, err
	}

	path := filepath.Join(l.cfg.DataDir, file)
	f, err := os.Open(path)
	if err != nil {
		accessErr := errors.NewDataAccessError(path, err)
		l.logger.Error("dataset file unreadable", log.ErrAttr(accessErr))
		return dataframe.DataFrame{}, accessErr
	}
	defer f.Close()

	df := dataframe.ReadCSV(f)
	if df.Err != nil {
		accessErr := errors.NewDataAccessError(path, df.Err)
		l.logger.Error("dataset file malformed", log.ErrAttr(accessErr))
		return dataframe.DataFrame{}, accessErr
	}

	present := make(map[string]bool, len(df.Names()))
	for _, col := range df.Names() {
		present[col] = true
	}
	for _, col := range l.cfg.ColumnsToUse {
		if !present[col] {
			accessErr := errors.NewMissingColumnError(path, col)
			l.logger.Error("configured column missing", log.ErrAttr(accessErr))
			return dataframe.DataFrame{}, accessErr
		}
	}

	projected := df.Select(l.cfg.ColumnsToUse)
	if projected.Err != nil {
		accessErr := errors.NewDataAccessError(path, projected.Err)
		return dataframe.DataFrame{}, accessErr
	}

	l.logger.Info("dataset loaded",
		slog.String(log.DatasetKey, name),
		slog.Int(log.SamplesKey, projected.Nrow()),
		slog.Int(log.FeaturesKey, projected.Ncol()))
	return projected, nil
}

// SplitFeatures converts a loaded dataframe into a feature matrix and label
// vector using the configured target column. Unparseable cells become NaN and
// are left for the pipeline's imputer.
func (l *Loader) SplitFeatures(df dataframe.DataFrame) (*mat.Dense, *mat.VecDense, error) {
	rows := df.Nrow()
	if rows == 0 {
		return nil, nil, errors.Wrap(errors.ErrEmptyData, "SplitFeatures")
	}

	features := l.cfg.FeatureColumns()
	X := mat.NewDense(rows, len(features), nil)
	for j, name := range features {
		col := df.Col(name).Float()
		for i := 0; i < rows; i++ {
			X.Set(i, j, col[i])
		}
	}

	y := mat.NewVecDense(rows, df.Col(l.cfg.TargetColumn).Float())
	return X, y, nil
}
