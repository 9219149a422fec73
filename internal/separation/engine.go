package separation

import (
	"fmt"

	"github.com/stemforge/stemforge/internal/tensor"
)

// DeviceBuffer is one accelerator-resident allocation. Buffers live for at
// most one batch: every Alloc is matched by a Free before Separate returns,
// on the error paths too, so a long chunk sequence cannot leak device memory.
type DeviceBuffer interface {
	CopyFromHost(src []float32) error
	CopyToHost(dst []float32) error
	Free() error
}

// Device allocates accelerator memory by byte size.
type Device interface {
	Alloc(bytes int) (DeviceBuffer, error)
}

// Engine is a deserialized low-level inference engine. Bindings are indexed
// tensors: inputs first, then outputs, in serialization order.
// BindingShape resolves the concrete shape of a binding for the batch size
// of the current run, and Execute runs the graph over bound device buffers.
type Engine interface {
	BindingCount() int
	BindingShape(index, batch int) ([]int, error)
	Execute(bindings []DeviceBuffer) error
}

// EngineBackend drives an Engine with manual buffer transfer: allocate
// device buffers sized from host tensor byte lengths, copy host→device,
// bind by index, execute, copy device→host, release. Supports codecs that
// produce one or two input tensors (and the matching output count).
type EngineBackend struct {
	Engine Engine
	Device Device
	Codec  Codec
}

func (e *EngineBackend) Separate(batch *tensor.Tensor) (out *tensor.Tensor, err error) {
	feeds, err := e.Codec.Encode(batch)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	numOutputs := e.Engine.BindingCount() - len(feeds)
	if numOutputs < 1 {
		return nil, fmt.Errorf("engine has %d bindings for %d inputs", e.Engine.BindingCount(), len(feeds))
	}

	bindings := make([]DeviceBuffer, 0, e.Engine.BindingCount())
	defer func() {
		for _, b := range bindings {
			if ferr := b.Free(); ferr != nil && err == nil {
				err = fmt.Errorf("freeing device buffer: %w", ferr)
				out = nil
			}
		}
	}()

	for i, feed := range feeds {
		buf, aerr := e.Device.Alloc(feed.ByteLen())
		if aerr != nil {
			return nil, fmt.Errorf("allocating input %d: %w", i, aerr)
		}
		bindings = append(bindings, buf)
		if cerr := buf.CopyFromHost(feed.Data); cerr != nil {
			return nil, fmt.Errorf("uploading input %d: %w", i, cerr)
		}
	}

	batchSize := batch.Dim(0)
	outTensors := make([]*tensor.Tensor, 0, numOutputs)
	for i := 0; i < numOutputs; i++ {
		shape, serr := e.Engine.BindingShape(len(feeds)+i, batchSize)
		if serr != nil {
			return nil, fmt.Errorf("resolving output %d shape: %w", i, serr)
		}
		t := tensor.Zeros(shape...)
		buf, aerr := e.Device.Alloc(t.ByteLen())
		if aerr != nil {
			return nil, fmt.Errorf("allocating output %d: %w", i, aerr)
		}
		bindings = append(bindings, buf)
		outTensors = append(outTensors, t)
	}

	if xerr := e.Engine.Execute(bindings); xerr != nil {
		return nil, fmt.Errorf("engine execution: %w", xerr)
	}

	for i, t := range outTensors {
		if cerr := bindings[len(feeds)+i].CopyToHost(t.Data); cerr != nil {
			return nil, fmt.Errorf("downloading output %d: %w", i, cerr)
		}
	}

	res, derr := e.Codec.Decode(outTensors)
	if derr != nil {
		return nil, fmt.Errorf("decode: %w", derr)
	}
	return res, nil
}
