package separation

import (
	"fmt"

	"github.com/stemforge/stemforge/internal/tensor"
)

// Placement records where a chunk came from in the (padded) mixture and how
// many of its samples are real signal rather than padding. Last marks the
// final placement of a pass; the accumulator relaxes the trailing fade only
// there.
type Placement struct {
	Start int
	Valid int
	Last  bool
}

// scheduler walks a mixture of the given length in steps of chunkSize/overlap
// and yields one Placement per chunk. The final chunk's Valid is clipped to
// the remaining samples; together the valid ranges cover [0, length) exactly.
type scheduler struct {
	length    int
	chunkSize int
	step      int
	pos       int
}

func newScheduler(length, chunkSize, overlap int) (*scheduler, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 1 {
		return nil, fmt.Errorf("overlap factor must be >= 1, got %d", overlap)
	}
	step := chunkSize / overlap
	if step <= 0 {
		return nil, fmt.Errorf("overlap factor %d too large for chunk size %d", overlap, chunkSize)
	}
	return &scheduler{length: length, chunkSize: chunkSize, step: step}, nil
}

// next returns the following placement, or ok=false once the mixture is
// exhausted. Restartable via reset.
func (s *scheduler) next() (Placement, bool) {
	if s.pos >= s.length {
		return Placement{}, false
	}
	valid := s.length - s.pos
	if valid > s.chunkSize {
		valid = s.chunkSize
	}
	p := Placement{Start: s.pos, Valid: valid}
	s.pos += s.step
	p.Last = s.pos >= s.length
	return p, true
}

func (s *scheduler) reset() {
	s.pos = 0
}

// done reports whether the scheduler has consumed the whole mixture. The
// orchestrator uses it to flush a partial batch at the buffer end.
func (s *scheduler) done() bool {
	return s.pos >= s.length
}

// extractChunk copies chunkSize samples per channel starting at p.Start from
// the mixture, padding past-the-end samples up to the chunk size. Reflect
// padding is used when more than half the chunk is real signal; nearly-empty
// chunks are zero padded instead so the mirror does not dominate the content.
func extractChunk(mix *tensor.Tensor, p Placement, chunkSize int, generic bool) *tensor.Tensor {
	channels := mix.Dim(0)
	out := tensor.Zeros(channels, chunkSize)
	reflect := generic && p.Valid > chunkSize/2
	for c := 0; c < channels; c++ {
		src := mix.Row(c)[p.Start : p.Start+p.Valid]
		dst := out.Row(c)
		copy(dst, src)
		if reflect {
			reflectPadTail(dst, p.Valid)
		}
	}
	return out
}

// reflectPadTail fills dst[valid:] by mirroring the signal around the last
// valid sample (the sample itself is not repeated).
func reflectPadTail(dst []float32, valid int) {
	if valid < 2 {
		return
	}
	for i := valid; i < len(dst); i++ {
		k := i - valid
		// walk backwards from the edge: valid-2, valid-3, ...
		src := valid - 2 - k
		if src < 0 {
			src = 0
		}
		dst[i] = dst[src]
	}
}

// padBorderReflect returns the mixture symmetrically reflect-padded by
// border samples at head and tail. The cross-fade windows assume full-width
// neighbor context on both sides; without this the first and last step of
// audio loses energy.
func padBorderReflect(mix *tensor.Tensor, border int) *tensor.Tensor {
	channels, length := mix.Dim(0), mix.Dim(1)
	out := tensor.Zeros(channels, length+2*border)
	for c := 0; c < channels; c++ {
		src := mix.Row(c)
		dst := out.Row(c)
		copy(dst[border:], src)
		// border < length is guaranteed by the caller's L > 2*border check
		for i := 0; i < border; i++ {
			dst[border-1-i] = src[i+1]
			dst[border+length+i] = src[length-2-i]
		}
	}
	return out
}
