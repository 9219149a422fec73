package separation

import (
	"fmt"

	"github.com/stemforge/stemforge/internal/tensor"
)

// Backend executes one batch of chunks. Input shape is
// (batch, channels, chunkSize); output shape is
// (batch, instruments, channels, chunkSize). All four execution strategies
// satisfy this contract so the accumulator never knows which one ran.
type Backend interface {
	Separate(batch *tensor.Tensor) (*tensor.Tensor, error)
}

// Model is a natively-callable network: it consumes and produces waveform
// batches directly, encapsulating whatever spectral transform it needs.
type Model interface {
	Forward(batch *tensor.Tensor) (*tensor.Tensor, error)
}

// Codec is the domain transform required by the graph, compiled and engine
// paths, whose exported graphs operate on transformed representations.
// Encode may produce one tensor (spectral-only architectures) or two
// (paired spectral + waveform, or core + residual); Decode consumes the
// matching output tensors and returns the time-domain batch.
type Codec interface {
	Encode(batch *tensor.Tensor) ([]*tensor.Tensor, error)
	Decode(outputs []*tensor.Tensor) (*tensor.Tensor, error)
}

// Native invokes the model object directly.
type Native struct {
	Model Model
}

func (n *Native) Separate(batch *tensor.Tensor) (*tensor.Tensor, error) {
	out, err := n.Model.Forward(batch)
	if err != nil {
		return nil, fmt.Errorf("native model: %w", err)
	}
	return out, nil
}

// CompiledFunc is a JIT-compiled callable operating on transformed tensors,
// taking and returning the same 1-or-2 tensor groups a Codec produces.
type CompiledFunc func(inputs []*tensor.Tensor) ([]*tensor.Tensor, error)

// Compiled wraps a compiled callable with its domain transform: encode,
// invoke, decode.
type Compiled struct {
	Fn    CompiledFunc
	Codec Codec
}

func (c *Compiled) Separate(batch *tensor.Tensor) (*tensor.Tensor, error) {
	feeds, err := c.Codec.Encode(batch)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	outs, err := c.Fn(feeds)
	if err != nil {
		return nil, fmt.Errorf("compiled call: %w", err)
	}
	res, err := c.Codec.Decode(outs)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return res, nil
}
