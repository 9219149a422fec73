// Package checkpoint reconciles saved parameter states with a live model's
// parameter shapes, so training can resume from architecturally similar but
// not identical checkpoints.
package checkpoint

import (
	"fmt"

	"github.com/stemforge/stemforge/internal/tensor"
)

// State maps parameter names to their tensors.
type State map[string]*tensor.Tensor

// Logger is the logging capability this package consumes; nil disables
// logging.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}

// Unwrap follows the known checkpoint container conventions: a state nested
// one level under "state" (demucs-style checkpoints) or "state_dict"
// (lightning-style checkpoints) is lifted out before matching.
func Unwrap(raw map[string]any) map[string]any {
	for _, key := range []string{"state", "state_dict"} {
		if inner, ok := raw[key]; ok {
			switch m := inner.(type) {
			case map[string]any:
				raw = m
			case State:
				out := make(map[string]any, len(m))
				for k, v := range m {
					out[k] = v
				}
				raw = out
			}
		}
	}
	return raw
}

// Reconcile copies checkpoint parameters into a copy of the target state on
// a best-effort basis:
//
//   - shapes equal: copied verbatim
//   - shapes differ, rank equal: the source is placed in the low-index
//     corner of a zero buffer sized to the per-axis maximum of both shapes,
//     and the target-shaped corner of that buffer is taken — each axis is
//     truncated or zero-extended independently
//   - rank differs, or the name is absent: the target keeps its initialized
//     value
//
// Mismatches are reported through log, never returned as errors: a partial
// load is the point of this function.
func Reconcile(target State, source map[string]any, log Logger) State {
	if log == nil {
		log = nopLogger{}
	}
	src := Unwrap(source)
	out := make(State, len(target))
	for name, dst := range target {
		out[name] = dst
		v, ok := src[name]
		if !ok {
			log.Debugf("checkpoint: no match for %s", name)
			continue
		}
		st, ok := v.(*tensor.Tensor)
		if !ok {
			log.Warnf("checkpoint: %s is not a tensor, skipping", name)
			continue
		}
		if dst.SameShape(st) {
			out[name] = st.Clone()
			continue
		}
		if dst.Rank() != st.Rank() {
			log.Warnf("checkpoint: %s rank mismatch %v vs %v, skipping", name, dst.Shape, st.Shape)
			continue
		}
		log.Debugf("checkpoint: %s shape %v != %v, copying overlap", name, dst.Shape, st.Shape)
		out[name] = overlapCopy(dst, st)
	}
	return out
}

// Strict copies checkpoint parameters into a copy of the target state and
// fails on any missing name or shape mismatch. This is the inference-time
// load path, where a partially matching checkpoint is a configuration error.
func Strict(target State, source map[string]any) (State, error) {
	src := Unwrap(source)
	out := make(State, len(target))
	for name, dst := range target {
		v, ok := src[name]
		if !ok {
			return nil, fmt.Errorf("checkpoint missing parameter %s", name)
		}
		st, ok := v.(*tensor.Tensor)
		if !ok {
			return nil, fmt.Errorf("checkpoint parameter %s is not a tensor", name)
		}
		if !dst.SameShape(st) {
			return nil, fmt.Errorf("checkpoint parameter %s has shape %v, model wants %v", name, st.Shape, dst.Shape)
		}
		out[name] = st.Clone()
	}
	return out, nil
}

// overlapCopy implements the best-effort shape shim: zero-fill a buffer
// sized to the elementwise maximum of both shapes, place the source in its
// low-index corner, slice out the target-shaped corner.
func overlapCopy(dst, src *tensor.Tensor) *tensor.Tensor {
	maxShape := make([]int, dst.Rank())
	for i := range maxShape {
		maxShape[i] = dst.Shape[i]
		if src.Shape[i] > maxShape[i] {
			maxShape[i] = src.Shape[i]
		}
	}
	buf := tensor.Zeros(maxShape...)
	// regions fit by construction, errors are impossible here
	_ = tensor.CopyRegion(buf, src, src.Shape)
	out := tensor.Zeros(dst.Shape...)
	_ = tensor.CopyRegion(out, buf, dst.Shape)
	return out
}
