package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
	"github.com/stemforge/stemforge/internal/tensor"
)

// Logger is the logging capability this package consumes.
type Logger interface {
	Warnf(format string, args ...any)
}

// Read decodes a PCM WAV file into a (channels, samples) float32 tensor
// normalized to [-1, 1] and returns it with the sample rate. Mono files
// yield a single-row tensor, never a 1-D array.
func Read(path string) (*tensor.Tensor, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("%s is not a valid WAV file", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("reading samples from %s: %w", path, err)
	}
	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, 0, fmt.Errorf("%s has no channels", path)
	}
	frames := len(buf.Data) / channels
	scale := 1.0 / float64(int(1)<<(uint(decoder.BitDepth)-1))

	out := tensor.Zeros(channels, frames)
	for c := 0; c < channels; c++ {
		row := out.Row(c)
		for i := 0; i < frames; i++ {
			row[i] = float32(float64(buf.Data[i*channels+c]) * scale)
		}
	}
	return out, int(decoder.SampleRate), nil
}

// ReadSkipErr is the skip-errors read mode: a failed read is logged and
// reported as an absent buffer instead of an error. Callers must treat a
// nil buffer as a missing stem, which is distinct from a zero-valued one.
func ReadSkipErr(path, instrument string, log Logger) (*tensor.Tensor, int) {
	buf, sr, err := Read(path)
	if err != nil {
		if log != nil {
			log.Warnf("no stem %s: skip (%v)", instrument, err)
		}
		return nil, 0
	}
	return buf, sr
}
