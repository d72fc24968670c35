// Package preprocessing implements the transformation stages the training
// pipeline is reconstructed from: missing-value imputation, equal-frequency
// discretisation and feature scaling.
package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/probloan/loantrain/model"
	"github.com/probloan/loantrain/pkg/errors"
)

// Imputation strategies supported by MeanMedianImputer.
const (
	ImputeMean   = "mean"
	ImputeMedian = "median"
)

// MeanMedianImputer replaces NaN entries with the per-column mean or median
// learned from the non-missing values at Fit time.
type MeanMedianImputer struct {
	model.BaseEstimator

	// Strategy is "mean" or "median".
	Strategy string

	// Statistics holds the learned fill value per column.
	Statistics []float64

	// NFeatures is the number of columns seen at Fit.
	NFeatures int
}

// NewMeanMedianImputer creates an imputer with the given strategy.
func NewMeanMedianImputer(strategy string) *MeanMedianImputer {
	return &MeanMedianImputer{Strategy: strategy}
}

// Fit learns the per-column fill statistic, ignoring NaN entries.
func (m *MeanMedianImputer) Fit(X mat.Matrix) error {
	if m.Strategy != ImputeMean && m.Strategy != ImputeMedian {
		return errors.NewValueError("MeanMedianImputer.Fit",
			fmt.Sprintf("unknown imputation strategy %q", m.Strategy))
	}

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "MeanMedianImputer.Fit")
	}

	m.NFeatures = c
	m.Statistics = make([]float64, c)

	for j := 0; j < c; j++ {
		observed := make([]float64, 0, r)
		for i := 0; i < r; i++ {
			if v := X.At(i, j); !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}
		if len(observed) == 0 {
			return errors.NewValueError("MeanMedianImputer.Fit",
				fmt.Sprintf("column %d has no observed values", j))
		}
		if m.Strategy == ImputeMean {
			m.Statistics[j] = stat.Mean(observed, nil)
		} else {
			m.Statistics[j] = median(observed)
		}
	}

	m.SetFitted()
	return nil
}

// Transform replaces NaN entries with the learned statistics.
func (m *MeanMedianImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MeanMedianImputer", "Transform")
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MeanMedianImputer.Transform", m.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				v = m.Statistics[j]
			}
			result.Set(i, j, v)
		}
	}

	return result, nil
}

// FitTransform fits the imputer and transforms the same data.
func (m *MeanMedianImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// String returns the imputer's textual representation.
func (m *MeanMedianImputer) String() string {
	return fmt.Sprintf("MeanMedianImputer(imputation_method=%q)", m.Strategy)
}

// median sorts a copy of values and returns the midpoint.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
