package separation

import (
	"fmt"

	"github.com/stemforge/stemforge/internal/tensor"
)

// GraphSession is a loaded portable-graph runtime session (an ONNX-style
// inference session). Inputs are fed by name in graph declaration order;
// Run returns the graph outputs in declaration order.
type GraphSession interface {
	InputNames() []string
	Run(feeds map[string]*tensor.Tensor) ([]*tensor.Tensor, error)
}

// Graph executes batches through a portable-graph session. The session
// operates on transformed representations, so every batch is encoded before
// the named-input invocation and decoded after it.
type Graph struct {
	Session GraphSession
	Codec   Codec
}

func (g *Graph) Separate(batch *tensor.Tensor) (*tensor.Tensor, error) {
	encoded, err := g.Codec.Encode(batch)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	names := g.Session.InputNames()
	if len(names) < len(encoded) {
		return nil, fmt.Errorf("graph declares %d inputs, codec produced %d", len(names), len(encoded))
	}
	feeds := make(map[string]*tensor.Tensor, len(encoded))
	for i, t := range encoded {
		feeds[names[i]] = t
	}
	outs, err := g.Session.Run(feeds)
	if err != nil {
		return nil, fmt.Errorf("graph session: %w", err)
	}
	res, err := g.Codec.Decode(outs)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return res, nil
}
