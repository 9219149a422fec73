package main

import (
	"flag"
	"fmt"
	"image"
	"image/draw"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/eligwz/spectrogram"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Renders a PNG spectrogram for every separated stem in a directory. Handy
// for eyeballing separation quality without loading the stems into a DAW.
func main() {
	inputDir := flag.String("input", "separated", "Directory of stem WAV files")
	outputDir := flag.String("output", "spectrograms", "Directory for PNG output")
	seconds := flag.Float64("seconds", 0, "Render only the first N seconds (0 = whole file)")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatal(err)
	}

	err := filepath.WalkDir(*inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || filepath.Ext(path) != ".wav" {
			return nil
		}

		fmt.Printf("Processing %s...\n", path)

		file, err := os.Open(path)
		if err != nil {
			log.Printf("Error opening %s: %v", path, err)
			return nil
		}
		defer file.Close()

		decoder := wav.NewDecoder(file)
		if !decoder.IsValidFile() {
			log.Printf("Invalid WAV file: %s", path)
			return nil
		}

		duration, err := decoder.Duration()
		if err != nil {
			log.Printf("Error getting duration from %s: %v", path, err)
			return nil
		}

		totalSamples := int(duration.Seconds() * float64(decoder.SampleRate))
		if totalSamples == 0 {
			log.Printf("No samples in %s", path)
			return nil
		}

		buf := &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: int(decoder.NumChans),
				SampleRate:  int(decoder.SampleRate),
			},
			Data:           make([]int, totalSamples*int(decoder.NumChans)),
			SourceBitDepth: int(decoder.BitDepth),
		}

		if _, err = decoder.PCMBuffer(buf); err != nil {
			log.Printf("Error reading samples from %s: %v", path, err)
			return nil
		}

		// Average interleaved channels down to mono and normalize to [-1, 1]
		channels := int(decoder.NumChans)
		frames := len(buf.Data) / channels
		if *seconds > 0 {
			if limit := int(*seconds * float64(decoder.SampleRate)); limit < frames {
				frames = limit
			}
		}
		maxVal := float64(int(1) << (uint(decoder.BitDepth) - 1))
		samples := make([]float64, frames)
		for i := 0; i < frames; i++ {
			var sum float64
			for c := 0; c < channels; c++ {
				sum += float64(buf.Data[i*channels+c])
			}
			samples[i] = sum / float64(channels) / maxVal
		}

		fmt.Printf("Read %d samples at %d Hz\n", len(samples), decoder.SampleRate)

		width := 2048
		height := 512
		img := spectrogram.NewImage128(image.Rect(0, 0, width, height))

		black := spectrogram.ParseColor("000000")
		draw.Draw(img, img.Bounds(), image.NewUniform(black), image.Point{}, draw.Src)

		// RECTANGLE: false = use Hamming window
		// DFT: false = use FFT (faster)
		// MAG: true = magnitude
		// LOG10: false = linear scale
		spectrogram.Drawfft(
			img,
			samples,
			uint32(decoder.SampleRate),
			uint32(height),
			false,
			false,
			true,
			false,
		)

		baseName := filepath.Base(path)
		outputPath := filepath.Join(*outputDir, baseName+".png")

		if err := spectrogram.SavePng(img, outputPath); err != nil {
			log.Printf("Error saving PNG for %s: %v", outputPath, err)
			return nil
		}

		fmt.Printf("Saved spectrogram to %s\n", outputPath)
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Done!")
}
