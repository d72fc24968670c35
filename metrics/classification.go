// Package metrics implements the binary-classification metrics the workflow
// logs against the tracking server.
package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/probloan/loantrain/pkg/errors"
)

// ROCAUC computes the area under the ROC curve for binary labels and
// predicted scores. Tied scores contribute half a pair. Degenerate input with
// a single class present scores 0.5.
func ROCAUC(yTrue, yScore *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("ROCAUC", "empty vector")
	}
	if yScore.Len() != n {
		return 0, errors.NewDimensionError("ROCAUC", n, yScore.Len(), 0)
	}

	nPos := 0
	for i := 0; i < n; i++ {
		switch yTrue.AtVec(i) {
		case 1:
			nPos++
		case 0:
		default:
			return 0, errors.NewValueError("ROCAUC", "labels must be 0 or 1")
		}
	}
	nNeg := n - nPos
	if nPos == 0 || nNeg == 0 {
		// AUC is undefined with a single class; 0.5 matches the chance level.
		return 0.5, nil
	}

	// Mann-Whitney U via average ranks of the positive scores.
	type scored struct {
		score float64
		label float64
	}
	pairs := make([]scored, n)
	for i := 0; i < n; i++ {
		pairs[i] = scored{score: yScore.AtVec(i), label: yTrue.AtVec(i)}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score < pairs[j].score })

	rankSumPos := 0.0
	i := 0
	for i < n {
		j := i
		for j < n && pairs[j].score == pairs[i].score {
			j++
		}
		// Average rank across the tie group, 1-based.
		avgRank := float64(i+j+1) / 2.0
		for k := i; k < j; k++ {
			if pairs[k].label == 1 {
				rankSumPos += avgRank
			}
		}
		i = j
	}

	u := rankSumPos - float64(nPos)*float64(nPos+1)/2.0
	return u / (float64(nPos) * float64(nNeg)), nil
}

// Accuracy computes the fraction of exact label matches.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("Accuracy", n, yPred.Len(), 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}
