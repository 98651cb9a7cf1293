package utils

import (
	"math"
	"testing"
)

func TestNormalizeL2(t *testing.T) {
	v := []float32{3, 4}
	NormalizeL2(v)
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("NormalizeL2([3 4]) = %v", v)
	}
	if n := L2Norm(v); math.Abs(n-1) > 1e-6 {
		t.Errorf("norm after normalize = %f", n)
	}

	zero := []float32{0, 0, 0}
	NormalizeL2(zero)
	for i, x := range zero {
		if x != 0 {
			t.Errorf("zero[%d] = %f, want 0", i, x)
		}
	}
}
