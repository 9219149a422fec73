package separation

import (
	"fmt"

	"github.com/stemforge/stemforge/internal/tensor"
)

// Mode selects how chunk outputs are merged back into the full-length
// result.
//
// ModeGeneric cross-fades overlapping chunks with the windowing envelope and
// normalizes by the accumulated window weight. ModeSegmented adds raw chunk
// outputs with a uniform weight of 1; it is used when the backend's own
// segment boundaries are already click-free, so the fade would only smear
// them. The two are kept as explicit modes because boundary behavior is a
// property of the backend, not a universal optimization.
type Mode int

const (
	ModeGeneric Mode = iota
	ModeSegmented
)

// accumulator merges per-chunk backend outputs into a pair of buffers: sum
// holds the weighted superposition of every contribution, weight the total
// window weight that touched each sample. Owned by exactly one Demix
// invocation; TTA runs hold independent instances.
type accumulator struct {
	mode      Mode
	sum       *tensor.Tensor // (instruments, channels, paddedLen)
	weight    *tensor.Tensor
	window    []float32
	fade      int
	chunkSize int
	paddedLen int
	border    int
}

func newAccumulator(mode Mode, instruments, channels, paddedLen, chunkSize, border int) (*accumulator, error) {
	a := &accumulator{
		mode:      mode,
		sum:       tensor.Zeros(instruments, channels, paddedLen),
		weight:    tensor.Zeros(instruments, channels, paddedLen),
		chunkSize: chunkSize,
		paddedLen: paddedLen,
		border:    border,
	}
	if mode == ModeGeneric {
		a.fade = chunkSize / 10
		w, err := BuildWindow(chunkSize, a.fade)
		if err != nil {
			return nil, fmt.Errorf("building window: %w", err)
		}
		a.window = w
	}
	return a, nil
}

// chunkWindow returns the envelope for one placement. The first chunk gets
// its leading fade forced to 1 (there is no neighbor before the true start
// of signal to fade against) and the scheduler-marked final chunk its
// trailing fade; interior chunks near the buffer end keep the full envelope
// so their overlaps still cross-fade. The base envelope is cloned so the
// correction never leaks into other chunks.
func (a *accumulator) chunkWindow(p Placement) []float32 {
	w := make([]float32, len(a.window))
	copy(w, a.window)
	if p.Start == 0 {
		for i := 0; i < a.fade; i++ {
			w[i] = 1
		}
	}
	if p.Last {
		for i := len(w) - a.fade; i < len(w); i++ {
			w[i] = 1
		}
	}
	return w
}

// add merges chunk j of a backend output batch (shape batch, instruments,
// channels, chunkSize) at its placement.
func (a *accumulator) add(out *tensor.Tensor, j int, p Placement) {
	instruments, channels := a.sum.Dim(0), a.sum.Dim(1)
	var win []float32
	if a.mode == ModeGeneric {
		win = a.chunkWindow(p)
	}
	for ins := 0; ins < instruments; ins++ {
		for c := 0; c < channels; c++ {
			src := out.Row(j, ins, c)[:p.Valid]
			sum := a.sum.Row(ins, c)[p.Start : p.Start+p.Valid]
			wgt := a.weight.Row(ins, c)[p.Start : p.Start+p.Valid]
			if a.mode == ModeGeneric {
				for k, v := range src {
					sum[k] += v * win[k]
					wgt[k] += win[k]
				}
			} else {
				for k, v := range src {
					sum[k] += v
					wgt[k] += 1
				}
			}
		}
	}
}

// finalize divides sum by weight, replaces non-finite results with 0 (weight
// can be exactly zero only at signal edges before edge-fade correction), and
// strips the whole-buffer border padding.
func (a *accumulator) finalize() *tensor.Tensor {
	instruments, channels := a.sum.Dim(0), a.sum.Dim(1)
	length := a.paddedLen - 2*a.border
	out := tensor.Zeros(instruments, channels, length)
	for ins := 0; ins < instruments; ins++ {
		for c := 0; c < channels; c++ {
			sum := a.sum.Row(ins, c)
			wgt := a.weight.Row(ins, c)
			dst := out.Row(ins, c)
			for k := range dst {
				dst[k] = sum[a.border+k] / wgt[a.border+k]
			}
		}
	}
	out.NaNToZero()
	return out
}
