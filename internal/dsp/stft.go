// Package dsp provides the time↔frequency domain codecs used by the
// exported-graph execution paths, whose graphs operate on spectral
// representations rather than raw waveforms.
package dsp

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/stemforge/stemforge/internal/tensor"
)

// STFTCodec converts waveform batches to interleaved complex spectrograms
// and back. Analysis uses a periodic Hann window at half-window hop, which
// sums to exactly one at every sample, so Decode(Encode(x)) reproduces x to
// floating tolerance with no synthesis window needed.
//
// Encoded layout: the last waveform axis (samples) becomes two axes
// (frames, bins*2) with real/imaginary parts interleaved per bin. Leading
// axes pass through untouched, so the same codec handles the (batch,
// channels, n) input and the (batch, instruments, channels, n) model output.
type STFTCodec struct {
	NFFT   int
	Hop    int
	window []float64
}

func NewSTFT(nfft, hop int) (*STFTCodec, error) {
	if nfft <= 0 || nfft%2 != 0 {
		return nil, fmt.Errorf("n_fft must be a positive even number, got %d", nfft)
	}
	if hop != nfft/2 {
		return nil, fmt.Errorf("hop length %d must be n_fft/2 (%d) for exact reconstruction", hop, nfft/2)
	}
	w := make([]float64, nfft)
	for i := range w {
		// periodic Hann
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(nfft)))
	}
	return &STFTCodec{NFFT: nfft, Hop: hop, window: w}, nil
}

// bins returns the number of retained spectrum bins (positive frequencies
// plus DC and Nyquist).
func (s *STFTCodec) bins() int {
	return s.NFFT/2 + 1
}

// Frames returns the frame count produced for a signal of n samples.
func (s *STFTCodec) Frames(n int) int {
	return n/s.Hop + 1
}

// Encode transforms the last axis of batch from samples to (frames,
// bins*2). The sample count must be a multiple of the hop length.
func (s *STFTCodec) Encode(batch *tensor.Tensor) ([]*tensor.Tensor, error) {
	n := batch.Dim(batch.Rank() - 1)
	if n%s.Hop != 0 {
		return nil, fmt.Errorf("signal length %d is not a multiple of hop %d", n, s.Hop)
	}
	frames := s.Frames(n)
	outShape := append(append([]int(nil), batch.Shape[:batch.Rank()-1]...), frames, s.bins()*2)
	out := tensor.Zeros(outShape...)

	rows := batch.NumElems() / n
	outRow := frames * s.bins() * 2
	padded := make([]float64, n+s.NFFT)
	frame := make([]float64, s.NFFT)
	for r := 0; r < rows; r++ {
		src := batch.Data[r*n : (r+1)*n]
		for i := range padded {
			padded[i] = 0
		}
		for i, v := range src {
			padded[s.NFFT/2+i] = float64(v)
		}
		dst := out.Data[r*outRow : (r+1)*outRow]
		for f := 0; f < frames; f++ {
			for i := 0; i < s.NFFT; i++ {
				frame[i] = padded[f*s.Hop+i] * s.window[i]
			}
			spec := fft.FFTReal(frame)
			for b := 0; b < s.bins(); b++ {
				dst[f*s.bins()*2+2*b] = float32(real(spec[b]))
				dst[f*s.bins()*2+2*b+1] = float32(imag(spec[b]))
			}
		}
	}
	return []*tensor.Tensor{out}, nil
}

// Decode inverts Encode on the trailing (frames, bins*2) axes of the single
// expected output tensor.
func (s *STFTCodec) Decode(outputs []*tensor.Tensor) (*tensor.Tensor, error) {
	if len(outputs) != 1 {
		return nil, fmt.Errorf("spectral codec expects 1 output tensor, got %d", len(outputs))
	}
	return s.istft(outputs[0])
}

func (s *STFTCodec) istft(spec *tensor.Tensor) (*tensor.Tensor, error) {
	if spec.Rank() < 2 {
		return nil, fmt.Errorf("spectral tensor must have (frames, bins*2) trailing axes, got %v", spec.Shape)
	}
	frames := spec.Dim(spec.Rank() - 2)
	width := spec.Dim(spec.Rank() - 1)
	if width != s.bins()*2 {
		return nil, fmt.Errorf("spectral width %d does not match n_fft %d", width, s.NFFT)
	}
	n := (frames - 1) * s.Hop
	outShape := append(append([]int(nil), spec.Shape[:spec.Rank()-2]...), n)
	out := tensor.Zeros(outShape...)

	rows := spec.NumElems() / (frames * width)
	full := make([]complex128, s.NFFT)
	acc := make([]float64, n+s.NFFT)
	for r := 0; r < rows; r++ {
		src := spec.Data[r*frames*width : (r+1)*frames*width]
		for i := range acc {
			acc[i] = 0
		}
		for f := 0; f < frames; f++ {
			row := src[f*width : (f+1)*width]
			for b := 0; b < s.bins(); b++ {
				full[b] = complex(float64(row[2*b]), float64(row[2*b+1]))
			}
			// rebuild negative frequencies by conjugate symmetry
			for b := s.bins(); b < s.NFFT; b++ {
				c := full[s.NFFT-b]
				full[b] = complex(real(c), -imag(c))
			}
			recon := fft.IFFT(full)
			for i := 0; i < s.NFFT; i++ {
				acc[f*s.Hop+i] += real(recon[i])
			}
		}
		dst := out.Data[r*n : (r+1)*n]
		for i := range dst {
			dst[i] = float32(acc[s.NFFT/2+i])
		}
	}
	return out, nil
}

// HybridCodec is the paired variant for architectures with a spectral and a
// time-domain branch: Encode yields the spectrogram alongside the raw
// waveform batch, and Decode sums the inverted spectral output with the
// time-branch output.
type HybridCodec struct {
	STFT *STFTCodec
}

func (h *HybridCodec) Encode(batch *tensor.Tensor) ([]*tensor.Tensor, error) {
	spec, err := h.STFT.Encode(batch)
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{spec[0], batch.Clone()}, nil
}

func (h *HybridCodec) Decode(outputs []*tensor.Tensor) (*tensor.Tensor, error) {
	if len(outputs) != 2 {
		return nil, fmt.Errorf("hybrid codec expects 2 output tensors, got %d", len(outputs))
	}
	wave, err := h.STFT.istft(outputs[0])
	if err != nil {
		return nil, err
	}
	if !wave.SameShape(outputs[1]) {
		return nil, fmt.Errorf("spectral branch shape %v does not match time branch %v", wave.Shape, outputs[1].Shape)
	}
	for i, v := range outputs[1].Data {
		wave.Data[i] += v
	}
	return wave, nil
}
