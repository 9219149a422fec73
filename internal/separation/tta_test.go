package separation

import (
	"context"
	"math"
	"testing"
)

func TestApplyTTAMatchesBase(t *testing.T) {
	// The identity model is linear and symmetric under both channel
	// reversal and polarity inversion, so TTA must reproduce the base
	// result to floating tolerance.
	cfg := genericConfig()
	mix := sineMix(2, 500)
	backend := &Native{Model: &identityModel{instruments: 2}}

	sep, err := Demix(context.Background(), cfg, backend, mix, Options{Mode: ModeGeneric})
	if err != nil {
		t.Fatalf("Demix failed: %v", err)
	}

	base := make(map[string][]float32, len(sep.Stems))
	for name, stem := range sep.Stems {
		base[name] = append([]float32(nil), stem.Data...)
	}

	got, err := ApplyTTA(context.Background(), cfg, backend, mix, sep.Stems, Options{Mode: ModeGeneric})
	if err != nil {
		t.Fatalf("ApplyTTA failed: %v", err)
	}

	for name, stem := range got {
		want := base[name]
		for i := range want {
			diff := math.Abs(float64(stem.Data[i] - want[i]))
			if diff > 1e-4 {
				t.Fatalf("stem %q sample %d off by %g after TTA", name, i, diff)
			}
		}
	}
}

func TestReverseChannels(t *testing.T) {
	mix := sineMix(2, 50)
	rev := reverseChannels(mix)
	for i := 0; i < 50; i++ {
		if rev.Row(0)[i] != mix.Row(1)[i] || rev.Row(1)[i] != mix.Row(0)[i] {
			t.Fatalf("channels not swapped at sample %d", i)
		}
	}
	// involution
	back := reverseChannels(rev)
	for i, v := range mix.Data {
		if back.Data[i] != v {
			t.Fatal("double reversal must restore the original")
		}
	}
}

func TestApplyTTAUnknownStem(t *testing.T) {
	cfg := genericConfig()
	mix := sineMix(2, 500)
	backend := &Native{Model: &identityModel{instruments: 2}}

	// base lacks the stems the augmented runs produce
	_, err := ApplyTTA(context.Background(), cfg, backend, mix, nil, Options{Mode: ModeGeneric})
	if err == nil {
		t.Fatal("expected error for stems missing from base")
	}
}
