package model

// EstimatorState tracks whether an estimator has been fit.
type EstimatorState int

const (
	// NotFitted is the state before Fit has completed.
	NotFitted EstimatorState = iota
	// Fitted is the state after a successful Fit.
	Fitted
)

// BaseEstimator is embedded by every estimator to carry its fitted state.
// The state field is exported so estimators embedding it survive a gob round
// trip when serialized for artifact upload.
type BaseEstimator struct {
	State EstimatorState
}

// IsFitted reports whether the estimator has been fit.
func (e *BaseEstimator) IsFitted() bool {
	return e.State == Fitted
}

// SetFitted marks the estimator as fit.
func (e *BaseEstimator) SetFitted() {
	e.State = Fitted
}

// Reset returns the estimator to the unfitted state.
func (e *BaseEstimator) Reset() {
	e.State = NotFitted
}
