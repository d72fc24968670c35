// Package linear implements the logistic-regression classifier the training
// pipeline terminates in.
package linear

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/probloan/loantrain/pkg/errors"
)

// LogisticRegression is an L2-regularised logistic classifier trained by
// gradient descent. The hyperparameter surface mirrors the values recorded by
// historical search runs: C, tol, max_iter, solver, fit_intercept, warm_start,
// class_weight and multi_class.
type LogisticRegression struct {
	// Hyperparameters
	c            float64 // inverse regularization strength
	fitIntercept bool
	classWeight  string // "balanced" or "none"
	solver       string // recorded solver name; informational, one solver here
	maxIter      int
	multiClass   string // "auto" or "ovr"
	warmStart    bool
	tol          float64
	randomState  int64

	// Learned parameters
	coef      [][]float64 // one weight vector for binary, one per class for OVR
	intercept []float64
	classes   []int
	nClasses  int
	nFeatures int
	nIter     []int

	fitted bool
	rand   *rand.Rand
}

// Option configures a LogisticRegression.
type Option func(*LogisticRegression)

// NewLogisticRegression creates a classifier with sklearn-compatible defaults.
func NewLogisticRegression(opts ...Option) *LogisticRegression {
	lr := &LogisticRegression{
		c:            1.0,
		fitIntercept: true,
		classWeight:  "none",
		solver:       "lbfgs",
		maxIter:      100,
		multiClass:   "auto",
		warmStart:    false,
		tol:          1e-4,
		randomState:  -1,
	}

	for _, opt := range opts {
		opt(lr)
	}

	if lr.randomState >= 0 {
		lr.rand = rand.New(rand.NewSource(lr.randomState))
	} else {
		lr.rand = rand.New(rand.NewSource(rand.Int63()))
	}

	return lr
}

// WithC sets the inverse regularization strength.
func WithC(c float64) Option {
	return func(lr *LogisticRegression) { lr.c = c }
}

// WithFitIntercept sets whether an intercept term is fit.
func WithFitIntercept(fit bool) Option {
	return func(lr *LogisticRegression) { lr.fitIntercept = fit }
}

// WithClassWeight sets the class-weighting strategy ("balanced" or "none").
func WithClassWeight(weight string) Option {
	return func(lr *LogisticRegression) { lr.classWeight = weight }
}

// WithSolver records the solver name the hyperparameters carried.
func WithSolver(solver string) Option {
	return func(lr *LogisticRegression) { lr.solver = solver }
}

// WithMaxIter sets the maximum number of gradient iterations.
func WithMaxIter(maxIter int) Option {
	return func(lr *LogisticRegression) { lr.maxIter = maxIter }
}

// WithMultiClass sets the multi-class strategy ("auto" or "ovr").
func WithMultiClass(multiClass string) Option {
	return func(lr *LogisticRegression) { lr.multiClass = multiClass }
}

// WithWarmStart reuses the previous coefficients as the starting point of Fit.
func WithWarmStart(warm bool) Option {
	return func(lr *LogisticRegression) { lr.warmStart = warm }
}

// WithTol sets the convergence tolerance on the gradient norm.
func WithTol(tol float64) Option {
	return func(lr *LogisticRegression) { lr.tol = tol }
}

// WithRandomState seeds weight initialization for reproducible fits.
func WithRandomState(seed int64) Option {
	return func(lr *LogisticRegression) { lr.randomState = seed }
}

// Fit trains the classifier on features X and labels y (n×1).
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("LogisticRegression.Fit", 1, yCols, 1)
	}

	lr.extractClasses(y)
	lr.nFeatures = nFeatures

	if !lr.warmStart || lr.coef == nil {
		lr.initializeWeights(nFeatures)
	}

	if lr.nClasses == 2 {
		if err := lr.fitBinary(X, y, 0, lr.classes[1]); err != nil {
			return err
		}
	} else {
		// One-vs-rest for more than two classes, whatever multi_class says:
		// the single solver here has no multinomial mode.
		for classIdx, class := range lr.classes {
			if err := lr.fitBinary(X, y, classIdx, class); err != nil {
				return err
			}
		}
	}

	lr.fitted = true
	return nil
}

// extractClasses records the sorted unique labels in y.
func (lr *LogisticRegression) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	classMap := make(map[int]bool)
	for i := 0; i < rows; i++ {
		classMap[int(y.At(i, 0))] = true
	}

	lr.classes = make([]int, 0, len(classMap))
	for class := range classMap {
		lr.classes = append(lr.classes, class)
	}
	sort.Ints(lr.classes)
	lr.nClasses = len(lr.classes)
}

// initializeWeights draws small random starting coefficients.
func (lr *LogisticRegression) initializeWeights(nFeatures int) {
	if lr.rand == nil {
		lr.rand = rand.New(rand.NewSource(rand.Int63()))
	}
	nVectors := 1
	if lr.nClasses > 2 {
		nVectors = lr.nClasses
	}

	lr.coef = make([][]float64, nVectors)
	for i := range lr.coef {
		lr.coef[i] = make([]float64, nFeatures)
		for j := range lr.coef[i] {
			lr.coef[i][j] = lr.rand.NormFloat64() * 0.01
		}
	}
	lr.intercept = make([]float64, nVectors)
	lr.nIter = make([]int, nVectors)
}

// sampleWeights returns the per-sample weight for a positive class, applying
// the "balanced" strategy n/(2*count) when configured.
func (lr *LogisticRegression) sampleWeights(y mat.Matrix, positive int) []float64 {
	nSamples, _ := y.Dims()
	weights := make([]float64, nSamples)

	if lr.classWeight != "balanced" {
		for i := range weights {
			weights[i] = 1.0
		}
		return weights
	}

	nPos := 0
	for i := 0; i < nSamples; i++ {
		if int(y.At(i, 0)) == positive {
			nPos++
		}
	}
	nNeg := nSamples - nPos
	if nPos == 0 || nNeg == 0 {
		for i := range weights {
			weights[i] = 1.0
		}
		return weights
	}

	wPos := float64(nSamples) / (2.0 * float64(nPos))
	wNeg := float64(nSamples) / (2.0 * float64(nNeg))
	for i := 0; i < nSamples; i++ {
		if int(y.At(i, 0)) == positive {
			weights[i] = wPos
		} else {
			weights[i] = wNeg
		}
	}
	return weights
}

// fitBinary runs weighted gradient descent for one weight vector, treating
// `positive` as the positive class.
func (lr *LogisticRegression) fitBinary(X, y mat.Matrix, vectorIdx, positive int) error {
	nSamples, nFeatures := X.Dims()

	yBinary := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		if int(y.At(i, 0)) == positive {
			yBinary[i] = 1.0
		}
	}

	weights := lr.coef[vectorIdx]
	intercept := &lr.intercept[vectorIdx]
	sampleW := lr.sampleWeights(y, positive)

	baseLearningRate := 1.0
	converged := false

	for iter := 0; iter < lr.maxIter; iter++ {
		gradWeights := make([]float64, nFeatures)
		gradIntercept := 0.0

		for i := 0; i < nSamples; i++ {
			z := *intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * weights[j]
			}
			residual := sampleW[i] * (sigmoid(z) - yBinary[i])
			gradIntercept += residual
			for j := 0; j < nFeatures; j++ {
				gradWeights[j] += residual * X.At(i, j)
			}
		}

		for j := range gradWeights {
			gradWeights[j] /= float64(nSamples)
		}
		gradIntercept /= float64(nSamples)

		// L2 penalty with strength 1/C.
		lambda := 1.0 / lr.c
		for j := range weights {
			gradWeights[j] += lambda * weights[j] / float64(nSamples)
		}

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))

		for j := range weights {
			weights[j] -= learningRate * gradWeights[j]
		}
		if lr.fitIntercept {
			*intercept -= learningRate * gradIntercept
		}

		lr.nIter[vectorIdx] = iter + 1

		maxGrad := math.Abs(gradIntercept)
		for _, g := range gradWeights {
			if math.Abs(g) > maxGrad {
				maxGrad = math.Abs(g)
			}
		}
		if maxGrad < lr.tol {
			converged = true
			break
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.maxIter))
	}

	return nil
}

// decision computes the linear score of row i for weight vector v.
func (lr *LogisticRegression) decision(X mat.Matrix, i, v int) float64 {
	z := lr.intercept[v]
	for j := 0; j < lr.nFeatures; j++ {
		z += X.At(i, j) * lr.coef[v][j]
	}
	return z
}

// Predict returns the predicted class label per row.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.fitted {
		return nil, errors.NewNotFittedError("LogisticRegression", "Predict")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != lr.nFeatures {
		return nil, errors.NewDimensionError("LogisticRegression.Predict", lr.nFeatures, nFeatures, 1)
	}

	predictions := mat.NewDense(nSamples, 1, nil)

	if lr.nClasses == 2 {
		for i := 0; i < nSamples; i++ {
			if sigmoid(lr.decision(X, i, 0)) >= 0.5 {
				predictions.Set(i, 0, float64(lr.classes[1]))
			} else {
				predictions.Set(i, 0, float64(lr.classes[0]))
			}
		}
		return predictions, nil
	}

	for i := 0; i < nSamples; i++ {
		best, bestScore := 0, math.Inf(-1)
		for v := 0; v < lr.nClasses; v++ {
			if score := lr.decision(X, i, v); score > bestScore {
				best, bestScore = v, score
			}
		}
		predictions.Set(i, 0, float64(lr.classes[best]))
	}
	return predictions, nil
}

// PredictProba returns per-class probabilities, one column per class in
// sorted label order.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !lr.fitted {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != lr.nFeatures {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", lr.nFeatures, nFeatures, 1)
	}

	probas := mat.NewDense(nSamples, lr.nClasses, nil)

	if lr.nClasses == 2 {
		for i := 0; i < nSamples; i++ {
			p := sigmoid(lr.decision(X, i, 0))
			probas.Set(i, 0, 1.0-p)
			probas.Set(i, 1, p)
		}
		return probas, nil
	}

	// Softmax over per-class scores.
	for i := 0; i < nSamples; i++ {
		scores := make([]float64, lr.nClasses)
		maxScore := math.Inf(-1)
		for v := 0; v < lr.nClasses; v++ {
			scores[v] = lr.decision(X, i, v)
			if scores[v] > maxScore {
				maxScore = scores[v]
			}
		}
		sum := 0.0
		for v := range scores {
			scores[v] = math.Exp(scores[v] - maxScore)
			sum += scores[v]
		}
		for v := range scores {
			probas.Set(i, v, scores[v]/sum)
		}
	}
	return probas, nil
}

// Classes returns the sorted class labels seen at Fit.
func (lr *LogisticRegression) Classes() []int {
	out := make([]int, len(lr.classes))
	copy(out, lr.classes)
	return out
}

// GetParams returns the classifier's hyperparameters.
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":             lr.c,
		"fit_intercept": lr.fitIntercept,
		"class_weight":  lr.classWeight,
		"solver":        lr.solver,
		"max_iter":      lr.maxIter,
		"multi_class":   lr.multiClass,
		"warm_start":    lr.warmStart,
		"tol":           lr.tol,
	}
}

// sigmoid computes the logistic function.
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
