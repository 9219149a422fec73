package tensor

import (
	"fmt"
	"math"
)

// Tensor is a dense, row-major float32 array. It is the common currency
// between the chunk scheduler, the execution backends and the overlap-add
// accumulator, so all of them agree on shape without caring about layout.
type Tensor struct {
	Shape []int
	Data  []float32
}

// Zeros allocates a zero-filled tensor with the given shape.
func Zeros(shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return &Tensor{
		Shape: append([]int(nil), shape...),
		Data:  make([]float32, n),
	}
}

// New wraps an existing slice. The slice length must match the shape.
func New(data []float32, shape ...int) (*Tensor, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("negative dimension %d in shape %v", d, shape)
		}
		n *= d
	}
	if len(data) != n {
		return nil, fmt.Errorf("data length %d does not match shape %v", len(data), shape)
	}
	return &Tensor{Shape: append([]int(nil), shape...), Data: data}, nil
}

// NumElems returns the total element count.
func (t *Tensor) NumElems() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// ByteLen returns the size of the tensor payload in bytes (float32 elements).
// The engine backend sizes device allocations from this.
func (t *Tensor) ByteLen() int {
	return t.NumElems() * 4
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.Shape)
}

// Dim returns the size of axis i.
func (t *Tensor) Dim(i int) int {
	return t.Shape[i]
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	out := &Tensor{
		Shape: append([]int(nil), t.Shape...),
		Data:  make([]float32, len(t.Data)),
	}
	copy(out.Data, t.Data)
	return out
}

// SameShape reports whether the two tensors have identical shapes.
func (t *Tensor) SameShape(o *Tensor) bool {
	if len(t.Shape) != len(o.Shape) {
		return false
	}
	for i := range t.Shape {
		if t.Shape[i] != o.Shape[i] {
			return false
		}
	}
	return true
}

// Row returns the contiguous slice for a fully-indexed prefix of axes.
// For a (channels, samples) tensor, Row(c) is channel c; for a
// (batch, channels, samples) tensor, Row(b, c) is one channel of one chunk.
func (t *Tensor) Row(idx ...int) []float32 {
	if len(idx) != len(t.Shape)-1 {
		panic(fmt.Sprintf("tensor: Row wants %d indices, got %d", len(t.Shape)-1, len(idx)))
	}
	off := 0
	for i, ix := range idx {
		off = off*t.Shape[i] + ix
	}
	n := t.Shape[len(t.Shape)-1]
	off *= n
	return t.Data[off : off+n]
}

// Scale multiplies every element in place.
func (t *Tensor) Scale(f float32) *Tensor {
	for i := range t.Data {
		t.Data[i] *= f
	}
	return t
}

// CopyRegion copies the sub-block [0:region[i]) per axis from src into dst.
// Both tensors must have rank len(region) and each region extent must fit in
// both shapes. Used by the weight reconciliation loader.
func CopyRegion(dst, src *Tensor, region []int) error {
	if dst.Rank() != len(region) || src.Rank() != len(region) {
		return fmt.Errorf("region rank %d does not match tensors (%d, %d)", len(region), dst.Rank(), src.Rank())
	}
	for i, r := range region {
		if r > dst.Shape[i] || r > src.Shape[i] {
			return fmt.Errorf("region %v exceeds shapes %v / %v on axis %d", region, dst.Shape, src.Shape, i)
		}
	}
	var walk func(axis, dstOff, srcOff int)
	walk = func(axis, dstOff, srcOff int) {
		if axis == len(region)-1 {
			copy(dst.Data[dstOff:dstOff+region[axis]], src.Data[srcOff:srcOff+region[axis]])
			return
		}
		dstStride := 1
		for _, d := range dst.Shape[axis+1:] {
			dstStride *= d
		}
		srcStride := 1
		for _, d := range src.Shape[axis+1:] {
			srcStride *= d
		}
		for i := 0; i < region[axis]; i++ {
			walk(axis+1, dstOff+i*dstStride, srcOff+i*srcStride)
		}
	}
	if len(region) == 0 {
		return nil
	}
	walk(0, 0, 0)
	return nil
}

// NaNToZero replaces non-finite values with 0 in place.
func (t *Tensor) NaNToZero() {
	for i, v := range t.Data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			t.Data[i] = 0
		}
	}
}
