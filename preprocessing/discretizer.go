package preprocessing

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/probloan/loantrain/model"
	"github.com/probloan/loantrain/pkg/errors"
)

// EqualFrequencyDiscretiser bins each column into Q intervals holding roughly
// the same number of training samples. Transform maps a value to the ordinal
// of its interval (0..Q-1); values beyond the learned range land in the first
// or last bin.
type EqualFrequencyDiscretiser struct {
	model.BaseEstimator

	// Q is the number of bins per column.
	Q int

	// Boundaries holds, per column, the Q-1 interior cut points learned at Fit.
	Boundaries [][]float64

	// NFeatures is the number of columns seen at Fit.
	NFeatures int
}

// NewEqualFrequencyDiscretiser creates a discretiser with q bins per column.
func NewEqualFrequencyDiscretiser(q int) *EqualFrequencyDiscretiser {
	return &EqualFrequencyDiscretiser{Q: q}
}

// Fit learns per-column quantile cut points.
func (d *EqualFrequencyDiscretiser) Fit(X mat.Matrix) error {
	if d.Q < 2 {
		return errors.NewValueError("EqualFrequencyDiscretiser.Fit",
			fmt.Sprintf("q must be at least 2, got %d", d.Q))
	}

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "EqualFrequencyDiscretiser.Fit")
	}

	d.NFeatures = c
	d.Boundaries = make([][]float64, c)

	for j := 0; j < c; j++ {
		column := make([]float64, r)
		for i := 0; i < r; i++ {
			column[i] = X.At(i, j)
		}
		sort.Float64s(column)

		cuts := make([]float64, 0, d.Q-1)
		for k := 1; k < d.Q; k++ {
			// Quantile linearly interpolated between adjacent ranks.
			pos := float64(k) / float64(d.Q) * float64(r-1)
			lo := int(pos)
			frac := pos - float64(lo)
			q := column[lo]
			if lo+1 < r {
				q += frac * (column[lo+1] - column[lo])
			}
			cuts = append(cuts, q)
		}
		d.Boundaries[j] = cuts
	}

	d.SetFitted()
	return nil
}

// Transform maps each value to its bin ordinal.
func (d *EqualFrequencyDiscretiser) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !d.IsFitted() {
		return nil, errors.NewNotFittedError("EqualFrequencyDiscretiser", "Transform")
	}

	r, c := X.Dims()
	if c != d.NFeatures {
		return nil, errors.NewDimensionError("EqualFrequencyDiscretiser.Transform", d.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			bin := sort.SearchFloat64s(d.Boundaries[j], v)
			result.Set(i, j, float64(bin))
		}
	}

	return result, nil
}

// FitTransform fits the discretiser and transforms the same data.
func (d *EqualFrequencyDiscretiser) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := d.Fit(X); err != nil {
		return nil, err
	}
	return d.Transform(X)
}

// String returns the discretiser's textual representation.
func (d *EqualFrequencyDiscretiser) String() string {
	return fmt.Sprintf("EqualFrequencyDiscretiser(q=%d)", d.Q)
}
