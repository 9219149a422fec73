package checkpoint

import (
	"strings"
	"testing"

	"github.com/stemforge/stemforge/internal/tensor"
)

func filled(v float32, shape ...int) *tensor.Tensor {
	t := tensor.Zeros(shape...)
	for i := range t.Data {
		t.Data[i] = v
	}
	return t
}

func counting(shape ...int) *tensor.Tensor {
	t := tensor.Zeros(shape...)
	for i := range t.Data {
		t.Data[i] = float32(i + 1)
	}
	return t
}

func TestReconcileExactShape(t *testing.T) {
	target := State{"w": filled(9, 2, 3)}
	src := map[string]any{"w": counting(2, 3)}

	got := Reconcile(target, src, nil)
	for i, v := range got["w"].Data {
		if v != float32(i+1) {
			t.Fatalf("w[%d] = %f, want %f", i, v, float32(i+1))
		}
	}
	// the returned tensor must be a copy, not the checkpoint's backing array
	got["w"].Data[0] = -1
	if src["w"].(*tensor.Tensor).Data[0] == -1 {
		t.Fatal("reconciled state aliases the checkpoint tensor")
	}
}

func TestReconcileGrowRows(t *testing.T) {
	// (2,3) checkpoint into a (4,3) parameter: rows 0-1 copied, 2-3 zero.
	target := State{"w": filled(9, 4, 3)}
	src := map[string]any{"w": counting(2, 3)}

	got := Reconcile(target, src, nil)
	w := got["w"]
	for i := 0; i < 6; i++ {
		if w.Data[i] != float32(i+1) {
			t.Fatalf("copied row element %d = %f, want %f", i, w.Data[i], float32(i+1))
		}
	}
	for i := 6; i < 12; i++ {
		if w.Data[i] != 0 {
			t.Fatalf("grown row element %d = %f, want 0", i, w.Data[i])
		}
	}
}

func TestReconcileShrinkRows(t *testing.T) {
	// (4,3) checkpoint into a (2,3) parameter: first two rows survive.
	target := State{"w": filled(9, 2, 3)}
	src := map[string]any{"w": counting(4, 3)}

	got := Reconcile(target, src, nil)
	w := got["w"]
	if w.Dim(0) != 2 || w.Dim(1) != 3 {
		t.Fatalf("shape %v, want (2, 3)", w.Shape)
	}
	for i := 0; i < 6; i++ {
		if w.Data[i] != float32(i+1) {
			t.Fatalf("element %d = %f, want %f", i, w.Data[i], float32(i+1))
		}
	}
}

func TestReconcileMixedAxes(t *testing.T) {
	// One axis shrinks while the other grows; each is clipped independently.
	target := State{"w": filled(9, 2, 4)}
	src := map[string]any{"w": counting(3, 2)}

	got := Reconcile(target, src, nil)
	w := got["w"]
	want := []float32{1, 2, 0, 0, 3, 4, 0, 0}
	for i, v := range want {
		if w.Data[i] != v {
			t.Fatalf("element %d = %f, want %f", i, w.Data[i], v)
		}
	}
}

func TestReconcileRankMismatchKeepsInit(t *testing.T) {
	target := State{"w": filled(9, 2, 3)}
	src := map[string]any{"w": counting(6)}

	got := Reconcile(target, src, nil)
	for i, v := range got["w"].Data {
		if v != 9 {
			t.Fatalf("element %d = %f, rank mismatch must keep initialization", i, v)
		}
	}
}

func TestReconcileAbsentKeepsInit(t *testing.T) {
	target := State{"w": filled(9, 2, 3)}
	got := Reconcile(target, map[string]any{}, nil)
	for _, v := range got["w"].Data {
		if v != 9 {
			t.Fatal("absent parameter must keep initialization")
		}
	}
}

func TestReconcileNonTensorSkipped(t *testing.T) {
	target := State{"w": filled(9, 2)}
	src := map[string]any{"w": "not a tensor"}
	got := Reconcile(target, src, nil)
	for _, v := range got["w"].Data {
		if v != 9 {
			t.Fatal("non-tensor entry must be skipped")
		}
	}
}

func TestUnwrap(t *testing.T) {
	inner := map[string]any{"w": counting(2)}

	for _, key := range []string{"state", "state_dict"} {
		got := Unwrap(map[string]any{key: inner})
		if _, ok := got["w"]; !ok {
			t.Errorf("Unwrap did not lift %q container", key)
		}
	}

	// a State value is converted, not dropped
	got := Unwrap(map[string]any{"state": State{"w": counting(2)}})
	if _, ok := got["w"].(*tensor.Tensor); !ok {
		t.Error("Unwrap did not convert a typed State container")
	}

	// no container: passthrough
	flat := map[string]any{"w": counting(2)}
	if got := Unwrap(flat); len(got) != 1 {
		t.Error("Unwrap mangled an already flat state")
	}
}

func TestStrict(t *testing.T) {
	target := State{"w": filled(9, 2, 3)}

	got, err := Strict(target, map[string]any{"w": counting(2, 3)})
	if err != nil {
		t.Fatalf("Strict failed on matching state: %v", err)
	}
	if got["w"].Data[0] != 1 {
		t.Fatal("Strict did not copy the checkpoint values")
	}

	if _, err := Strict(target, map[string]any{}); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("want missing-parameter error, got %v", err)
	}
	if _, err := Strict(target, map[string]any{"w": counting(3, 3)}); err == nil || !strings.Contains(err.Error(), "shape") {
		t.Fatalf("want shape-mismatch error, got %v", err)
	}
	if _, err := Strict(target, map[string]any{"w": 7}); err == nil {
		t.Fatal("want error for non-tensor parameter")
	}
}
