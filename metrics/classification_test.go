package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestROCAUC(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yScore  []float64
		want    float64
		wantErr bool
	}{
		{
			name:   "Perfect classifier",
			yTrue:  []float64{0, 0, 0, 1, 1, 1},
			yScore: []float64{0.1, 0.2, 0.3, 0.7, 0.8, 0.9},
			want:   1.0,
		},
		{
			name:   "Worst classifier",
			yTrue:  []float64{0, 0, 0, 1, 1, 1},
			yScore: []float64{0.9, 0.8, 0.7, 0.3, 0.2, 0.1},
			want:   0.0,
		},
		{
			name:   "Random classifier",
			yTrue:  []float64{0, 1, 0, 1},
			yScore: []float64{0.5, 0.5, 0.5, 0.5},
			want:   0.5,
		},
		{
			name:   "Typical case",
			yTrue:  []float64{0, 0, 1, 1},
			yScore: []float64{0.1, 0.4, 0.35, 0.8},
			want:   0.75,
		},
		{
			name:   "All positive labels",
			yTrue:  []float64{1, 1, 1, 1},
			yScore: []float64{0.1, 0.4, 0.35, 0.8},
			want:   0.5,
		},
		{
			name:   "All negative labels",
			yTrue:  []float64{0, 0, 0, 0},
			yScore: []float64{0.1, 0.4, 0.35, 0.8},
			want:   0.5,
		},
		{
			name:    "Non-binary labels",
			yTrue:   []float64{0, 0.5, 1},
			yScore:  []float64{0.1, 0.5, 0.9},
			wantErr: true,
		},
		{
			name:    "Dimension mismatch",
			yTrue:   []float64{0, 1},
			yScore:  []float64{0.5},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yTrue := mat.NewVecDense(len(tt.yTrue), tt.yTrue)
			yScore := mat.NewVecDense(len(tt.yScore), tt.yScore)

			got, err := ROCAUC(yTrue, yScore)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ROCAUC() expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ROCAUC() unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ROCAUC() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccuracy(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{0, 1, 1, 0})
	yPred := mat.NewVecDense(4, []float64{0, 1, 0, 0})

	got, err := Accuracy(yTrue, yPred)
	if err != nil {
		t.Fatalf("Accuracy() unexpected error: %v", err)
	}
	if got != 0.75 {
		t.Errorf("Accuracy() = %v, want 0.75", got)
	}
}

func TestAccuracyDimensionMismatch(t *testing.T) {
	yTrue := mat.NewVecDense(2, []float64{0, 1})
	yPred := mat.NewVecDense(3, []float64{0, 1, 1})

	if _, err := Accuracy(yTrue, yPred); err == nil {
		t.Fatal("Accuracy() expected dimension error")
	}
}
