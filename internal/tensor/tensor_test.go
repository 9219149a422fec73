package tensor

import (
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	got, err := New([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got.Rank() != 2 || got.Dim(0) != 2 || got.Dim(1) != 3 {
		t.Fatalf("shape %v, want (2, 3)", got.Shape)
	}

	if _, err := New([]float32{1, 2, 3}, 2, 2); err == nil {
		t.Error("length/shape mismatch must be rejected")
	}
	if _, err := New(nil, -1, 2); err == nil {
		t.Error("negative dimension must be rejected")
	}
}

func TestRow(t *testing.T) {
	a := Zeros(2, 3, 4)
	for i := range a.Data {
		a.Data[i] = float32(i)
	}
	row := a.Row(1, 2)
	if len(row) != 4 {
		t.Fatalf("row length %d, want 4", len(row))
	}
	// offset of [1][2][0] is (1*3+2)*4 = 20
	for i, v := range row {
		if v != float32(20+i) {
			t.Fatalf("row[%d] = %f, want %f", i, v, float32(20+i))
		}
	}
	// rows alias the backing array
	row[0] = -1
	if a.Data[20] != -1 {
		t.Fatal("Row must return a view, not a copy")
	}
}

func TestCloneIsDeep(t *testing.T) {
	a := Zeros(2, 2)
	a.Data[0] = 5
	b := a.Clone()
	b.Data[0] = 9
	b.Shape[0] = 4
	if a.Data[0] != 5 || a.Shape[0] != 2 {
		t.Fatal("Clone must not share data or shape with the original")
	}
}

func TestScale(t *testing.T) {
	a := Zeros(3)
	copy(a.Data, []float32{1, -2, 4})
	a.Scale(0.5)
	want := []float32{0.5, -1, 2}
	for i, v := range want {
		if a.Data[i] != v {
			t.Fatalf("scaled[%d] = %f, want %f", i, a.Data[i], v)
		}
	}
}

func TestCopyRegion(t *testing.T) {
	src := Zeros(3, 3)
	for i := range src.Data {
		src.Data[i] = float32(i + 1)
	}
	dst := Zeros(2, 4)
	if err := CopyRegion(dst, src, []int{2, 2}); err != nil {
		t.Fatalf("CopyRegion failed: %v", err)
	}
	want := []float32{1, 2, 0, 0, 4, 5, 0, 0}
	for i, v := range want {
		if dst.Data[i] != v {
			t.Fatalf("dst[%d] = %f, want %f", i, dst.Data[i], v)
		}
	}
}

func TestCopyRegionErrors(t *testing.T) {
	if err := CopyRegion(Zeros(2, 2), Zeros(2), []int{2, 2}); err == nil {
		t.Error("rank mismatch must be rejected")
	}
	if err := CopyRegion(Zeros(2, 2), Zeros(2, 2), []int{3, 2}); err == nil {
		t.Error("region past either shape must be rejected")
	}
}

func TestNaNToZero(t *testing.T) {
	a := Zeros(4)
	a.Data[0] = 1
	a.Data[1] = float32(math.NaN())
	a.Data[2] = float32(math.Inf(1))
	a.Data[3] = float32(math.Inf(-1))
	a.NaNToZero()
	want := []float32{1, 0, 0, 0}
	for i, v := range want {
		if a.Data[i] != v {
			t.Fatalf("element %d = %f, want %f", i, a.Data[i], v)
		}
	}
}

func TestByteLen(t *testing.T) {
	if got := Zeros(2, 3).ByteLen(); got != 24 {
		t.Fatalf("ByteLen = %d, want 24", got)
	}
}
