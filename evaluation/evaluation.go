// Package evaluation scores predicted probabilities against true labels and
// renders the ROC curve the run logs as an artifact.
package evaluation

import (
	"bytes"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/probloan/loantrain/metrics"
	"github.com/probloan/loantrain/pkg/errors"
)

// Evaluator computes the validation metric for a fitted classifier's
// predictions.
type Evaluator struct{}

// NewEvaluator creates an Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// EvaluatePredictions returns the ROC AUC of the predicted positive-class
// scores against the true binary labels.
func (e *Evaluator) EvaluatePredictions(yTrue, yScore *mat.VecDense) (float64, error) {
	return metrics.ROCAUC(yTrue, yScore)
}

// ROCCurvePNG renders the ROC curve of the predictions as a PNG image.
func ROCCurvePNG(yTrue, yScore *mat.VecDense) ([]byte, error) {
	n := yTrue.Len()
	if n == 0 || yScore.Len() != n {
		return nil, errors.NewValueError("ROCCurvePNG", "label and score vectors must be non-empty and equal length")
	}

	nPos, nNeg := 0, 0
	order := make([]int, n)
	for i := range order {
		order[i] = i
		if yTrue.AtVec(i) == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return nil, errors.NewValueError("ROCCurvePNG", "both classes must be present")
	}

	sort.Slice(order, func(a, b int) bool {
		return yScore.AtVec(order[a]) > yScore.AtVec(order[b])
	})

	pts := make(plotter.XYs, 0, n+1)
	pts = append(pts, plotter.XY{X: 0, Y: 0})
	tp, fp := 0, 0
	for _, idx := range order {
		if yTrue.AtVec(idx) == 1 {
			tp++
		} else {
			fp++
		}
		pts = append(pts, plotter.XY{
			X: float64(fp) / float64(nNeg),
			Y: float64(tp) / float64(nPos),
		})
	}

	p := plot.New()
	p.Title.Text = "ROC curve"
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, errors.Wrap(err, "roc line")
	}
	p.Add(line, plotter.NewGrid())

	w, err := p.WriterTo(5*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return nil, errors.Wrap(err, "roc png writer")
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "roc png render")
	}
	return buf.Bytes(), nil
}
