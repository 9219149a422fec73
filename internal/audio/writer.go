package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stemforge/stemforge/internal/tensor"
)

// Write encodes a (channels, samples) float32 tensor as a 16-bit PCM WAV
// file. Values outside [-1, 1] are clipped.
func Write(path string, buf *tensor.Tensor, sampleRate int) error {
	if buf.Rank() != 2 || buf.Dim(0) < 1 {
		return fmt.Errorf("buffer must have shape (channels, samples), got %v", buf.Shape)
	}
	channels, frames := buf.Dim(0), buf.Dim(1)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	data := make([]int, frames*channels)
	for c := 0; c < channels; c++ {
		row := buf.Row(c)
		for i, v := range row {
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}
			data[i*channels+c] = int(v * 32767)
		}
	}
	ib := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("writing samples to %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing %s: %w", path, err)
	}
	return nil
}
