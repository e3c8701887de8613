package data

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// Batch is one materialized window of the current pass: Size consecutive
// entries of the provider's permutation, gathered into contiguous buffers.
// Targets is the one-hot expansion (Size x Classes, row-major), produced at
// emission time; the dataset itself stores only integer labels.
type Batch struct {
	Inputs  []float64 // Size * Cols, row-major
	Targets []float64 // Size * Classes, row-major one-hot
	Labels  []int     // raw labels, for loss/accuracy bookkeeping
	Size    int
}

// ProviderOption tweaks provider construction.
type ProviderOption func(*BatchProvider)

// WithoutShuffle keeps the original row order for every pass.
func WithoutShuffle() ProviderOption {
	return func(p *BatchProvider) { p.shuffle = false }
}

// WithSeed fixes the provider's private random source, making the shuffle
// order reproducible across runs and across providers sharing the seed.
func WithSeed(seed int64) ProviderOption {
	return func(p *BatchProvider) {
		p.rng = rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
	}
}

// WithShortFinalBatch switches the remainder policy from drop to emit:
// when the dataset size is not a multiple of the batch size, the last batch
// of each pass carries the leftover rows instead of discarding them.
func WithShortFinalBatch() ProviderOption {
	return func(p *BatchProvider) { p.shortFinal = true }
}

// BatchProvider iterates a Dataset in fixed-size mini-batches, reshuffling
// at the start of each pass. It is restartable: after signalling the end of
// a pass with ErrEndOfPass it resets itself, so the caller can simply keep
// pulling batches for as many epochs as it wants.
//
// The provider is single-threaded by contract. It owns only the permutation,
// the cursor and its random source; the dataset arrays are shared read-only.
type BatchProvider struct {
	ds         *Dataset
	batchSize  int
	shuffle    bool
	shortFinal bool
	rng        *rand.Rand

	order  []int // permutation of 0..Rows-1 for the current pass
	cursor int   // next unconsumed position in order
}

// NewBatchProvider builds a provider over ds. Shuffling defaults to on.
// Fails with ErrBatchSize if batchSize is non-positive or exceeds the
// dataset size; the check happens here, never deferred to iteration.
func NewBatchProvider(ds *Dataset, batchSize int, opts ...ProviderOption) (*BatchProvider, error) {
	if batchSize <= 0 || batchSize > ds.Rows {
		return nil, fmt.Errorf("%w: got %d for %d rows", ErrBatchSize, batchSize, ds.Rows)
	}
	p := &BatchProvider{
		ds:        ds,
		batchSize: batchSize,
		shuffle:   true,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		// Unseeded providers still need a private source so concurrent
		// training setups (one provider per worker) never share state.
		p.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	p.order = make([]int, ds.Rows)
	p.ResetPass()
	return p, nil
}

// NumBatches is the number of batches per pass: floor(N/batchSize) under
// the default drop-remainder policy, ceil with a short final batch.
func (p *BatchProvider) NumBatches() int {
	n := p.ds.Rows / p.batchSize
	if p.shortFinal && p.ds.Rows%p.batchSize != 0 {
		n++
	}
	return n
}

// BatchSize reports the configured batch size (the final batch of a pass
// may be smaller under WithShortFinalBatch).
func (p *BatchProvider) BatchSize() int { return p.batchSize }

// Dataset exposes the shared, read-only table the provider iterates.
func (p *BatchProvider) Dataset() *Dataset { return p.ds }

// ResetPass re-derives the iteration order and rewinds the cursor: a fresh
// uniform permutation when shuffling, identity order otherwise. It is called
// automatically when a pass is exhausted; callers only need it to abandon a
// pass midway.
func (p *BatchProvider) ResetPass() {
	if p.shuffle {
		copy(p.order, p.rng.Perm(p.ds.Rows))
	} else {
		for i := range p.order {
			p.order[i] = i
		}
	}
	p.cursor = 0
}

// NextBatch emits the next (inputs, one-hot targets) block of the current
// pass. At the end of a pass it returns (nil, ErrEndOfPass) exactly once,
// resets, and the following call starts a new pass — so epoch boundaries
// are always observable and the provider never silently wraps.
func (p *BatchProvider) NextBatch() (*Batch, error) {
	size := p.batchSize
	remaining := p.ds.Rows - p.cursor
	if remaining < size {
		if !p.shortFinal || remaining == 0 {
			p.ResetPass()
			return nil, ErrEndOfPass
		}
		size = remaining
	}

	ds := p.ds
	b := &Batch{
		Inputs:  make([]float64, size*ds.Cols),
		Targets: make([]float64, size*ds.NumClasses),
		Labels:  make([]int, size),
		Size:    size,
	}
	for i, idx := range p.order[p.cursor : p.cursor+size] {
		copy(b.Inputs[i*ds.Cols:(i+1)*ds.Cols], ds.Row(idx))
		label := ds.Targets[idx]
		b.Labels[i] = label
		OneHotInto(b.Targets[i*ds.NumClasses:(i+1)*ds.NumClasses], label)
	}
	p.cursor += size
	return b, nil
}

// IsEndOfPass reports whether err is the pass-boundary signal.
func IsEndOfPass(err error) bool { return errors.Is(err, ErrEndOfPass) }
