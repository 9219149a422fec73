package separation

import (
	"context"
	"fmt"

	"github.com/stemforge/stemforge/internal/config"
	"github.com/stemforge/stemforge/internal/tensor"
)

// ApplyTTA refines base separation results with test-time augmentation: the
// mixture is re-separated with its channels reversed and again with its
// polarity inverted, the augmented outputs are folded back (reversed results
// re-reversed and added, inverted results subtracted so the sign flip
// cancels), and the running sum is averaged over the three passes.
//
// base is updated in place and returned. The augmented runs are independent
// of each other — each Demix invocation owns its accumulators — so they
// could execute concurrently; only the final averaging touches shared data.
func ApplyTTA(ctx context.Context, cfg *config.Config, backend Backend, mix *tensor.Tensor, base map[string]*tensor.Tensor, opts Options) (map[string]*tensor.Tensor, error) {
	augmented := []*tensor.Tensor{
		reverseChannels(mix),
		mix.Clone().Scale(-1),
	}

	for i, aug := range augmented {
		sep, err := Demix(ctx, cfg, backend, aug, opts)
		if err != nil {
			return nil, fmt.Errorf("augmentation %d: %w", i, err)
		}
		if sep.Raw != nil {
			return nil, fmt.Errorf("augmentation %d returned an unlabeled result", i)
		}
		for name, stem := range sep.Stems {
			orig, ok := base[name]
			if !ok {
				return nil, fmt.Errorf("augmentation %d produced unknown stem %q", i, name)
			}
			if i == 0 {
				stem = reverseChannels(stem)
				for k, v := range stem.Data {
					orig.Data[k] += v
				}
			} else {
				for k, v := range stem.Data {
					orig.Data[k] -= v
				}
			}
		}
	}

	inv := 1.0 / float32(len(augmented)+1)
	for _, stem := range base {
		stem.Scale(inv)
	}
	return base, nil
}

// reverseChannels returns a copy of a (channels, samples) tensor with the
// channel order flipped.
func reverseChannels(t *tensor.Tensor) *tensor.Tensor {
	channels := t.Dim(0)
	out := tensor.Zeros(t.Shape...)
	for c := 0; c < channels; c++ {
		copy(out.Row(c), t.Row(channels-1-c))
	}
	return out
}
