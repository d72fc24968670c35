package preprocessing

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestEqualFrequencyDiscretiserBins(t *testing.T) {
	// 10 evenly spread values, 2 bins: lower half -> 0, upper half -> 1.
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	X := mat.NewDense(len(values), 1, values)

	d := NewEqualFrequencyDiscretiser(2)
	out, err := d.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		if got := out.At(i, 0); got != 0 {
			t.Errorf("row %d: bin = %v, want 0", i, got)
		}
	}
	for i := 6; i < 10; i++ {
		if got := out.At(i, 0); got != 1 {
			t.Errorf("row %d: bin = %v, want 1", i, got)
		}
	}
}

func TestEqualFrequencyDiscretiserRange(t *testing.T) {
	values := []float64{5, 1, 9, 3, 7, 2, 8, 4, 6, 10}
	X := mat.NewDense(len(values), 1, values)

	d := NewEqualFrequencyDiscretiser(4)
	out, err := d.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	for i := 0; i < len(values); i++ {
		bin := out.At(i, 0)
		if bin < 0 || bin > 3 {
			t.Errorf("row %d: bin %v outside [0,3]", i, bin)
		}
	}
}

func TestEqualFrequencyDiscretiserOutOfRangeValues(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})

	d := NewEqualFrequencyDiscretiser(2)
	if err := d.Fit(X); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// Values beyond the learned range land in the edge bins.
	out, err := d.Transform(mat.NewDense(2, 1, []float64{-100, 100}))
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if got := out.At(0, 0); got != 0 {
		t.Errorf("below-range bin = %v, want 0", got)
	}
	if got := out.At(1, 0); got != 1 {
		t.Errorf("above-range bin = %v, want 1", got)
	}
}

func TestEqualFrequencyDiscretiserInvalidQ(t *testing.T) {
	d := NewEqualFrequencyDiscretiser(1)
	if err := d.Fit(mat.NewDense(2, 1, []float64{1, 2})); err == nil {
		t.Fatal("Fit with q=1 should fail")
	}
}
