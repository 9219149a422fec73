package models

import (
	"fmt"

	"github.com/stemforge/stemforge/internal/config"
	"github.com/stemforge/stemforge/internal/separation"
	"github.com/stemforge/stemforge/internal/tensor"
)

// Passthrough copies the mixture into every configured instrument slot. It
// is the built-in reference model for exercising the chunking and
// reconstruction pipeline end to end without network weights.
type Passthrough struct {
	Instruments int
}

func init() {
	Register("passthrough", func(cfg *config.Config) (separation.Model, error) {
		n := len(cfg.TargetInstruments())
		if n == 0 {
			return nil, fmt.Errorf("passthrough model needs at least one instrument")
		}
		return &Passthrough{Instruments: n}, nil
	})
}

func (p *Passthrough) Forward(batch *tensor.Tensor) (*tensor.Tensor, error) {
	if batch.Rank() != 3 {
		return nil, fmt.Errorf("batch must have shape (batch, channels, chunk), got %v", batch.Shape)
	}
	b, ch, n := batch.Dim(0), batch.Dim(1), batch.Dim(2)
	out := tensor.Zeros(b, p.Instruments, ch, n)
	for j := 0; j < b; j++ {
		for ins := 0; ins < p.Instruments; ins++ {
			for c := 0; c < ch; c++ {
				copy(out.Row(j, ins, c), batch.Row(j, c))
			}
		}
	}
	return out, nil
}
