package linear

import (
	"bytes"
	"encoding/gob"
)

// logisticSnapshot is the gob wire form of a LogisticRegression. The live
// struct keeps its fields unexported, so persistence goes through an explicit
// snapshot rather than reflection.
type logisticSnapshot struct {
	C            float64
	FitIntercept bool
	ClassWeight  string
	Solver       string
	MaxIter      int
	MultiClass   string
	WarmStart    bool
	Tol          float64

	Coef      [][]float64
	Intercept []float64
	Classes   []int
	NClasses  int
	NFeatures int
	NIter     []int
	Fitted    bool
}

// GobEncode serializes the classifier, including learned coefficients.
func (lr *LogisticRegression) GobEncode() ([]byte, error) {
	snap := logisticSnapshot{
		C:            lr.c,
		FitIntercept: lr.fitIntercept,
		ClassWeight:  lr.classWeight,
		Solver:       lr.solver,
		MaxIter:      lr.maxIter,
		MultiClass:   lr.multiClass,
		WarmStart:    lr.warmStart,
		Tol:          lr.tol,
		Coef:         lr.coef,
		Intercept:    lr.intercept,
		Classes:      lr.classes,
		NClasses:     lr.nClasses,
		NFeatures:    lr.nFeatures,
		NIter:        lr.nIter,
		Fitted:       lr.fitted,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode restores a serialized classifier.
func (lr *LogisticRegression) GobDecode(data []byte) error {
	var snap logisticSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return err
	}

	lr.c = snap.C
	lr.fitIntercept = snap.FitIntercept
	lr.classWeight = snap.ClassWeight
	lr.solver = snap.Solver
	lr.maxIter = snap.MaxIter
	lr.multiClass = snap.MultiClass
	lr.warmStart = snap.WarmStart
	lr.tol = snap.Tol
	lr.coef = snap.Coef
	lr.intercept = snap.Intercept
	lr.classes = snap.Classes
	lr.nClasses = snap.NClasses
	lr.nFeatures = snap.NFeatures
	lr.nIter = snap.NIter
	lr.fitted = snap.Fitted
	return nil
}
