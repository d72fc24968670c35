package model

import "gonum.org/v1/gonum/mat"

// Transformer is a preprocessing stage that learns from data and transforms it.
type Transformer interface {
	// Fit learns the parameters the transformation needs.
	Fit(X mat.Matrix) error

	// Transform applies the learned transformation.
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform fits and transforms in one call.
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// Classifier is a supervised model producing class labels and probabilities.
type Classifier interface {
	// Fit trains the classifier on features X and labels y (n×1).
	Fit(X, y mat.Matrix) error

	// Predict returns the predicted class label per row (n×1).
	Predict(X mat.Matrix) (mat.Matrix, error)

	// PredictProba returns per-class probabilities (n×nClasses).
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}
