package separation

import (
	"math"
	"testing"
)

func TestBuildWindow(t *testing.T) {
	got, err := BuildWindow(10, 3)
	if err != nil {
		t.Fatalf("BuildWindow failed: %v", err)
	}
	want := []float32{0, 0.5, 1, 1, 1, 1, 1, 1, 0.5, 0}
	if len(got) != len(want) {
		t.Fatalf("window length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Errorf("window[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestBuildWindowMonotonic(t *testing.T) {
	w, err := BuildWindow(100, 10)
	if err != nil {
		t.Fatalf("BuildWindow failed: %v", err)
	}
	for i := 1; i < 10; i++ {
		if w[i] < w[i-1] {
			t.Errorf("fade-in not non-decreasing at %d: %f < %f", i, w[i], w[i-1])
		}
	}
	for i := 10; i < 90; i++ {
		if w[i] != 1 {
			t.Errorf("plateau at %d = %f, want 1", i, w[i])
		}
	}
	for i := 91; i < 100; i++ {
		if w[i] > w[i-1] {
			t.Errorf("fade-out not non-increasing at %d", i)
		}
	}
}

func TestBuildWindowBadFade(t *testing.T) {
	tests := []struct {
		size, fade int
	}{
		{10, 0},
		{10, -1},
		{10, 6},
		{4, 3},
	}
	for _, tt := range tests {
		if _, err := BuildWindow(tt.size, tt.fade); err == nil {
			t.Errorf("BuildWindow(%d, %d) expected error", tt.size, tt.fade)
		}
	}
}
