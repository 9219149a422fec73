package audio

import (
	"math"

	"github.com/stemforge/stemforge/internal/tensor"
)

// NormStats holds the statistics needed to undo Normalize.
type NormStats struct {
	Mean float32
	Std  float32
}

// Normalize returns a copy of the buffer shifted and scaled to zero mean and
// unit deviation. The statistics are computed on the channel-averaged mono
// signal so both channels are scaled identically.
func Normalize(buf *tensor.Tensor) (*tensor.Tensor, NormStats) {
	channels, frames := buf.Dim(0), buf.Dim(1)
	var mean, m2 float64
	for i := 0; i < frames; i++ {
		var mono float64
		for c := 0; c < channels; c++ {
			mono += float64(buf.Row(c)[i])
		}
		mono /= float64(channels)
		mean += mono
		m2 += mono * mono
	}
	mean /= float64(frames)
	std := math.Sqrt(m2/float64(frames) - mean*mean)
	if std == 0 {
		std = 1
	}

	out := buf.Clone()
	for i := range out.Data {
		out.Data[i] = float32((float64(out.Data[i]) - mean) / std)
	}
	return out, NormStats{Mean: float32(mean), Std: float32(std)}
}

// Denormalize reverses Normalize.
func Denormalize(buf *tensor.Tensor, stats NormStats) *tensor.Tensor {
	out := buf.Clone()
	for i := range out.Data {
		out.Data[i] = out.Data[i]*stats.Std + stats.Mean
	}
	return out
}
