package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config mirrors the model configuration files shipped with separation
// checkpoints: an audio section (chunking and spectral geometry), a training
// section (instrument list and segment length) and an inference section
// (overlap and batching). Only the keys the engine consumes are declared;
// unknown keys in the file are ignored.
type Config struct {
	Audio     Audio     `yaml:"audio"`
	Training  Training  `yaml:"training"`
	Inference Inference `yaml:"inference"`
}

type Audio struct {
	ChunkSize   int `yaml:"chunk_size"`
	NumChannels int `yaml:"num_channels"`
	SampleRate  int `yaml:"sample_rate"`
	NFFT        int `yaml:"n_fft"`
	HopLength   int `yaml:"hop_length"`
}

type Training struct {
	Instruments      []string `yaml:"instruments"`
	TargetInstrument string   `yaml:"target_instrument"`
	SampleRate       int      `yaml:"samplerate"`
	// Segment is in seconds and may be fractional (demucs configs ship
	// values like 7.8).
	Segment float64 `yaml:"segment"`
	// UseAMP is a pointer so an absent key defaults to true, matching the
	// checkpoints that never set it.
	UseAMP *bool `yaml:"use_amp"`
}

type Inference struct {
	NumOverlap int `yaml:"num_overlap"`
	BatchSize  int `yaml:"batch_size"`
}

// Load reads and parses a YAML model configuration.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Inference.NumOverlap < 1 {
		c.Inference.NumOverlap = 1
	}
	if c.Inference.BatchSize < 1 {
		c.Inference.BatchSize = 1
	}
	if c.Audio.NumChannels == 0 {
		c.Audio.NumChannels = 2
	}
	if c.Audio.NFFT == 0 {
		c.Audio.NFFT = 2048
	}
	if c.Audio.HopLength == 0 {
		c.Audio.HopLength = c.Audio.NFFT / 2
	}
}

// TargetInstruments returns the instrument list the separation output is
// keyed by. When a target instrument override is set, the list collapses to
// exactly that one name regardless of the full instrument list.
func (c *Config) TargetInstruments() []string {
	if c.Training.TargetInstrument != "" {
		return []string{c.Training.TargetInstrument}
	}
	return c.Training.Instruments
}

// UseAMP reports whether mixed-precision inference is requested. Defaults
// to true when the config never mentions it.
func (c *Config) UseAMP() bool {
	if c.Training.UseAMP == nil {
		return true
	}
	return *c.Training.UseAMP
}
