package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/probloan/loantrain/linear"
	"github.com/probloan/loantrain/preprocessing"
)

// trainingData builds a binary problem with a few missing entries so every
// stage has work to do.
func trainingData() (*mat.Dense, *mat.VecDense) {
	n := 40
	X := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		if i < n/2 {
			X.Set(i, 0, float64(i%10))
			X.Set(i, 1, float64(i%5))
		} else {
			X.Set(i, 0, 20+float64(i%10))
			X.Set(i, 1, 20+float64(i%5))
			y.SetVec(i, 1)
		}
	}
	X.Set(3, 0, math.NaN())
	X.Set(27, 1, math.NaN())
	return X, y
}

func newTestPipeline() *Pipeline {
	return New(
		linear.NewLogisticRegression(linear.WithMaxIter(200), linear.WithRandomState(5)),
		Step{Name: "imputer", Transformer: preprocessing.NewMeanMedianImputer(preprocessing.ImputeMedian)},
		Step{Name: "discretizer", Transformer: preprocessing.NewEqualFrequencyDiscretiser(4)},
		Step{Name: "scaler", Transformer: preprocessing.NewStandardScalerDefault()},
	)
}

func TestPipelineFitPredict(t *testing.T) {
	X, y := trainingData()
	pipe := newTestPipeline()

	require.NoError(t, pipe.Fit(X, y))

	predictions, err := pipe.Predict(X)
	require.NoError(t, err)

	correct := 0
	for i := 0; i < 40; i++ {
		if predictions.At(i, 0) == y.AtVec(i) {
			correct++
		}
	}
	assert.GreaterOrEqual(t, float64(correct)/40.0, 0.9, "accuracy on separable data")
}

func TestPipelinePositiveProba(t *testing.T) {
	X, y := trainingData()
	pipe := newTestPipeline()
	require.NoError(t, pipe.Fit(X, y))

	scores, err := pipe.PositiveProba(X)
	require.NoError(t, err)
	require.Equal(t, 40, scores.Len())

	for i := 0; i < scores.Len(); i++ {
		assert.GreaterOrEqual(t, scores.AtVec(i), 0.0)
		assert.LessOrEqual(t, scores.AtVec(i), 1.0)
	}
}

func TestPipelineNotFitted(t *testing.T) {
	pipe := newTestPipeline()
	_, err := pipe.Predict(mat.NewDense(1, 2, nil))
	assert.Error(t, err)
}

func TestPipelineMarshalRoundTrip(t *testing.T) {
	X, y := trainingData()
	pipe := newTestPipeline()
	require.NoError(t, pipe.Fit(X, y))

	blob, err := pipe.Marshal()
	require.NoError(t, err)
	require.NotEmpty(t, blob)

	restored, err := Unmarshal(blob)
	require.NoError(t, err)

	want, err := pipe.PositiveProba(X)
	require.NoError(t, err)
	got, err := restored.PositiveProba(X)
	require.NoError(t, err)

	for i := 0; i < want.Len(); i++ {
		assert.InDelta(t, want.AtVec(i), got.AtVec(i), 1e-12, "row %d", i)
	}
}
