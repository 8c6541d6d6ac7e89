package filter

import (
	"math"
	"testing"
)

func TestNewKernel(t *testing.T) {
	tests := []struct {
		name     string
		radius   float64
		wantHalf int
	}{
		{"zero radius", 0, 0},
		{"negative radius", -3, 0},
		{"radius 1", 1, 1},
		{"radius 2.5", 2.5, 3},
		{"radius 5", 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := NewKernel(tt.radius)
			if k.Half != tt.wantHalf {
				t.Errorf("Half = %d, want %d", k.Half, tt.wantHalf)
			}
			if len(k.Weights) != tt.wantHalf*2+1 {
				t.Errorf("len(Weights) = %d, want %d", len(k.Weights), tt.wantHalf*2+1)
			}
		})
	}
}

func TestKernelWeights(t *testing.T) {
	// sigma = radius/2, so the center tap is 1 and the tap at distance
	// sigma is exp(-0.5).
	k := NewKernel(4)

	if k.Weights[k.Half] != 1 {
		t.Errorf("center weight = %v, want 1", k.Weights[k.Half])
	}

	want := float32(math.Exp(-0.5))
	got := k.Weights[k.Half+2] // distance 2 = sigma for radius 4
	if math.Abs(float64(got-want)) > 1e-6 {
		t.Errorf("weight at sigma = %v, want %v", got, want)
	}

	// Symmetry.
	for i := 0; i <= k.Half; i++ {
		if k.Weights[k.Half-i] != k.Weights[k.Half+i] {
			t.Errorf("weights not symmetric at offset %d", i)
		}
	}
}

func TestKernelIdentity(t *testing.T) {
	if !NewKernel(0).Identity() {
		t.Error("radius 0 kernel should be identity")
	}
	if NewKernel(1).Identity() {
		t.Error("radius 1 kernel should not be identity")
	}
}

func TestCachedKernel(t *testing.T) {
	a := CachedKernel(3.5)
	b := CachedKernel(3.5)
	if a != b {
		t.Error("CachedKernel returned distinct kernels for the same radius")
	}

	c := CachedKernel(4.5)
	if a == c {
		t.Error("CachedKernel returned the same kernel for different radii")
	}
}
