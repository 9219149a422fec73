package separation

import (
	"context"
	"fmt"

	"github.com/stemforge/stemforge/internal/config"
	"github.com/stemforge/stemforge/internal/tensor"
)

// Logger is the narrow logging capability the engine consumes. Any leveled
// logger with printf-style methods satisfies it; a nil logger disables
// logging.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
func (nopLogger) Debugf(string, ...any) {}

// Progress observes chunk scheduling. It is a side channel only: dropping
// the callback never changes results.
type Progress func(processedSamples, totalSamples int)

// Options tune one Demix invocation.
type Options struct {
	// Mode selects the accumulation strategy. ModeSegmented is for backends
	// whose own chunk semantics already produce artifact-free joins
	// (demucs-style segment inference); everything else uses ModeGeneric
	// windowed overlap-add.
	Mode     Mode
	Progress Progress
	Log      Logger
}

// Separation is the result of one orchestrator run. Exactly one of Stems or
// Raw is populated: when a single instrument is configured in segmented
// mode, Raw carries the unlabeled (instruments, channels, samples) array
// instead of a name-keyed map, matching the upstream return contract.
// Callers inspect Raw to know which form they received.
type Separation struct {
	Instruments []string
	Stems       map[string]*tensor.Tensor
	Raw         *tensor.Tensor
}

// Demix splits a mixture into per-instrument stems: the mixture is chunked,
// each chunk batch is run through the backend, and chunk outputs are merged
// by windowed overlap-add (or uniform-weight joins in segmented mode) into
// full-length waveforms.
//
// The mixture shape is (channels, samples) and is borrowed read-only; the
// padded working copy is internal. The pipeline is strictly sequential:
// batch N is accumulated before batch N+1 is dispatched. ctx is checked
// once per batch at the batch→infer boundary.
func Demix(ctx context.Context, cfg *config.Config, backend Backend, mix *tensor.Tensor, opts Options) (*Separation, error) {
	log := opts.Log
	if log == nil {
		log = nopLogger{}
	}
	if mix.Rank() != 2 || mix.Dim(0) < 1 {
		return nil, fmt.Errorf("mixture must have shape (channels, samples), got %v", mix.Shape)
	}

	// Plan: chunk geometry and instrument order come from the config and
	// the backend mode.
	var chunkSize int
	var instruments []string
	if opts.Mode == ModeSegmented {
		chunkSize = int(float64(cfg.Training.SampleRate) * cfg.Training.Segment)
		instruments = cfg.Training.Instruments
	} else {
		chunkSize = cfg.Audio.ChunkSize
		instruments = cfg.TargetInstruments()
	}
	if chunkSize <= 0 {
		return nil, fmt.Errorf("invalid chunk size %d", chunkSize)
	}
	if len(instruments) == 0 {
		return nil, fmt.Errorf("no instruments configured")
	}
	overlap := cfg.Inference.NumOverlap
	step := chunkSize / overlap
	if step <= 0 {
		return nil, fmt.Errorf("overlap %d leaves no step for chunk size %d", overlap, chunkSize)
	}

	channels, length := mix.Dim(0), mix.Dim(1)

	// Generic mode reflect-pads the whole mixture so edge chunks see
	// full-width neighbor context; the pad is stripped in finalize.
	border := 0
	padded := mix
	if opts.Mode == ModeGeneric {
		if b := chunkSize - step; b > 0 && length > 2*b {
			border = b
			padded = padBorderReflect(mix, border)
		}
	}
	paddedLen := padded.Dim(1)

	acc, err := newAccumulator(opts.Mode, len(instruments), channels, paddedLen, chunkSize, border)
	if err != nil {
		return nil, err
	}

	sched, err := newScheduler(paddedLen, chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	log.Debugf("demix: %d samples, chunk=%d step=%d border=%d instruments=%v",
		length, chunkSize, step, border, instruments)

	batchSize := cfg.Inference.BatchSize
	chunks := make([]*tensor.Tensor, 0, batchSize)
	placements := make([]Placement, 0, batchSize)
	processed := 0

	flush := func() error {
		if len(chunks) == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("demix canceled: %w", err)
		}
		batch := stackChunks(chunks, channels, chunkSize)
		out, err := backend.Separate(batch)
		if err != nil {
			// Partially accumulated buffers are discarded with the error.
			return fmt.Errorf("backend failed on batch at %d: %w", placements[0].Start, err)
		}
		if err := checkOutputShape(out, len(chunks), len(instruments), channels, chunkSize); err != nil {
			return err
		}
		for j, p := range placements {
			acc.add(out, j, p)
		}
		chunks = chunks[:0]
		placements = placements[:0]
		return nil
	}

	for {
		p, ok := sched.next()
		if !ok {
			break
		}
		chunks = append(chunks, extractChunk(padded, p, chunkSize, opts.Mode == ModeGeneric))
		placements = append(placements, p)
		if len(chunks) >= batchSize || sched.done() {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		processed += step
		if opts.Progress != nil {
			opts.Progress(minInt(processed, paddedLen), paddedLen)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	estimated := acc.finalize()

	sep := &Separation{Instruments: instruments}
	if opts.Mode == ModeSegmented && len(instruments) <= 1 {
		sep.Raw = estimated
		return sep, nil
	}
	sep.Stems = make(map[string]*tensor.Tensor, len(instruments))
	for i, name := range instruments {
		stem := tensor.Zeros(channels, length)
		for c := 0; c < channels; c++ {
			copy(stem.Row(c), estimated.Row(i, c))
		}
		sep.Stems[name] = stem
	}
	return sep, nil
}

// stackChunks packs per-chunk (channels, chunkSize) tensors into one
// (batch, channels, chunkSize) tensor.
func stackChunks(chunks []*tensor.Tensor, channels, chunkSize int) *tensor.Tensor {
	batch := tensor.Zeros(len(chunks), channels, chunkSize)
	for j, ch := range chunks {
		for c := 0; c < channels; c++ {
			copy(batch.Row(j, c), ch.Row(c))
		}
	}
	return batch
}

func checkOutputShape(out *tensor.Tensor, batch, instruments, channels, chunkSize int) error {
	if out.Rank() != 4 || out.Dim(0) != batch || out.Dim(1) != instruments ||
		out.Dim(2) != channels || out.Dim(3) != chunkSize {
		return fmt.Errorf("backend returned shape %v, want (%d, %d, %d, %d)",
			out.Shape, batch, instruments, channels, chunkSize)
	}
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
