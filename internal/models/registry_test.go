package models

import (
	"strings"
	"testing"

	"github.com/stemforge/stemforge/internal/config"
	"github.com/stemforge/stemforge/internal/separation"
	"github.com/stemforge/stemforge/internal/tensor"
)

func TestPassthroughRegistered(t *testing.T) {
	cfg := &config.Config{Training: config.Training{Instruments: []string{"vocals", "drums"}}}
	model, err := New("passthrough", cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	batch := tensor.Zeros(1, 2, 8)
	for i := range batch.Data {
		batch.Data[i] = float32(i)
	}
	out, err := model.Forward(batch)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	if out.Dim(1) != 2 {
		t.Fatalf("output instrument axis %d, want 2", out.Dim(1))
	}
	for ins := 0; ins < 2; ins++ {
		for c := 0; c < 2; c++ {
			for i := 0; i < 8; i++ {
				if out.Row(0, ins, c)[i] != batch.Row(0, c)[i] {
					t.Fatalf("instrument %d differs from mixture", ins)
				}
			}
		}
	}
}

func TestPassthroughNeedsInstruments(t *testing.T) {
	if _, err := New("passthrough", &config.Config{}); err == nil {
		t.Fatal("empty instrument list must be rejected")
	}
}

func TestNewUnknownType(t *testing.T) {
	_, err := New("no_such_model", &config.Config{})
	if err == nil {
		t.Fatal("unknown model type must error")
	}
	if !strings.Contains(err.Error(), "passthrough") {
		t.Fatalf("error must list known types, got: %v", err)
	}
}

func TestModeFor(t *testing.T) {
	if got := ModeFor("htdemucs", true); got != separation.ModeSegmented {
		t.Errorf("exported htdemucs must run segmented, got %v", got)
	}
	if got := ModeFor("htdemucs", false); got != separation.ModeGeneric {
		t.Errorf("native htdemucs must run generic, got %v", got)
	}
	if got := ModeFor("mel_band_roformer", true); got != separation.ModeGeneric {
		t.Errorf("non-demucs exported graph must run generic, got %v", got)
	}
}
