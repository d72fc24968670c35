// Package pipeline composes preprocessing transformers and a terminal
// classifier into a single unit that is fit, applied and serialized together.
package pipeline

import (
	"bytes"
	"encoding/gob"

	"gonum.org/v1/gonum/mat"

	"github.com/probloan/loantrain/linear"
	"github.com/probloan/loantrain/model"
	"github.com/probloan/loantrain/pkg/errors"
	"github.com/probloan/loantrain/preprocessing"
)

func init() {
	// Concrete stage types crossing the gob interface boundary.
	gob.Register(&preprocessing.MeanMedianImputer{})
	gob.Register(&preprocessing.EqualFrequencyDiscretiser{})
	gob.Register(&preprocessing.StandardScaler{})
	gob.Register(&preprocessing.MinMaxScaler{})
	gob.Register(&linear.LogisticRegression{})
}

// Step is a named transformation stage.
type Step struct {
	Name        string
	Transformer model.Transformer
}

// Pipeline applies its steps in order and ends in a classifier.
type Pipeline struct {
	Steps      []Step
	Classifier model.Classifier

	fitted bool
}

// New creates a pipeline from ordered steps and a terminal classifier.
func New(classifier model.Classifier, steps ...Step) *Pipeline {
	return &Pipeline{Steps: steps, Classifier: classifier}
}

// Fit runs FitTransform through every step and fits the classifier on the
// fully transformed features.
func (p *Pipeline) Fit(X, y mat.Matrix) error {
	if p.Classifier == nil {
		return errors.NewValueError("Pipeline.Fit", "pipeline has no classifier")
	}

	transformed := X
	for _, step := range p.Steps {
		out, err := step.Transformer.FitTransform(transformed)
		if err != nil {
			return errors.Wrapf(err, "step %q", step.Name)
		}
		transformed = out
	}

	if err := p.Classifier.Fit(transformed, y); err != nil {
		return errors.Wrap(err, "classifier fit")
	}

	p.fitted = true
	return nil
}

// transform applies the fitted steps in order.
func (p *Pipeline) transform(X mat.Matrix) (mat.Matrix, error) {
	transformed := X
	for _, step := range p.Steps {
		out, err := step.Transformer.Transform(transformed)
		if err != nil {
			return nil, errors.Wrapf(err, "step %q", step.Name)
		}
		transformed = out
	}
	return transformed, nil
}

// Predict transforms X through the steps and returns class labels.
func (p *Pipeline) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !p.fitted {
		return nil, errors.NewNotFittedError("Pipeline", "Predict")
	}
	transformed, err := p.transform(X)
	if err != nil {
		return nil, err
	}
	return p.Classifier.Predict(transformed)
}

// PredictProba transforms X through the steps and returns class probabilities.
func (p *Pipeline) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !p.fitted {
		return nil, errors.NewNotFittedError("Pipeline", "PredictProba")
	}
	transformed, err := p.transform(X)
	if err != nil {
		return nil, err
	}
	return p.Classifier.PredictProba(transformed)
}

// PositiveProba returns the probability of the positive class (column 1)
// per row.
func (p *Pipeline) PositiveProba(X mat.Matrix) (*mat.VecDense, error) {
	probas, err := p.PredictProba(X)
	if err != nil {
		return nil, err
	}

	r, c := probas.Dims()
	if c < 2 {
		return nil, errors.NewValueError("Pipeline.PositiveProba",
			"probability matrix has fewer than two classes")
	}

	out := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		out.SetVec(i, probas.At(i, 1))
	}
	return out, nil
}

// pipelineSnapshot is the gob wire form of a Pipeline.
type pipelineSnapshot struct {
	Steps      []Step
	Classifier model.Classifier
	Fitted     bool
}

// Marshal serializes the fitted pipeline for artifact upload.
func (p *Pipeline) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	snap := pipelineSnapshot{Steps: p.Steps, Classifier: p.Classifier, Fitted: p.fitted}
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, errors.Wrap(err, "pipeline marshal")
	}
	return buf.Bytes(), nil
}

// Unmarshal restores a pipeline serialized by Marshal.
func Unmarshal(data []byte) (*Pipeline, error) {
	var snap pipelineSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return nil, errors.Wrap(err, "pipeline unmarshal")
	}
	return &Pipeline{Steps: snap.Steps, Classifier: snap.Classifier, fitted: snap.Fitted}, nil
}
