package paths

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOptions is wrapped by every Options validation failure.
	ErrInvalidOptions = errors.New("invalid load options")
	// ErrMissingColumn is wrapped when the header lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
)

// Options controls which rows LoadSubset keeps and how much it reads at once.
type Options struct {
	// KeepPaths retains paths 0..KeepPaths-1. Zero keeps nothing.
	KeepPaths int
	// StepStride keeps only steps divisible by it when greater than 1.
	StepStride int
	// ChunkSize is the number of records read per batch. It bounds memory
	// and never changes the result.
	ChunkSize int
}

// DefaultOptions mirrors the defaults of the plotting script the CSV layout comes from.
func DefaultOptions() Options {
	return Options{KeepPaths: 200, StepStride: 1, ChunkSize: 200_000}
}

// Validate rejects negative path counts and non-positive stride or chunk sizes.
func (o Options) Validate() error {
	if o.KeepPaths < 0 {
		return fmt.Errorf("%w: keep_paths must be >= 0, got %d", ErrInvalidOptions, o.KeepPaths)
	}
	if o.StepStride < 1 {
		return fmt.Errorf("%w: step_stride must be >= 1, got %d", ErrInvalidOptions, o.StepStride)
	}
	if o.ChunkSize < 1 {
		return fmt.Errorf("%w: chunksize must be >= 1, got %d", ErrInvalidOptions, o.ChunkSize)
	}
	return nil
}

// retainedSet is the fixed set of path ids {0, ..., n-1}.
type retainedSet struct{ n int64 }

func (s retainedSet) contains(path int64) bool { return path >= 0 && path < s.n }

// Keep reports whether r survives both filters.
func (o Options) Keep(r Row) bool {
	if !(retainedSet{n: int64(o.KeepPaths)}).contains(r.Path) {
		return false
	}
	return o.StepStride <= 1 || r.Step%int64(o.StepStride) == 0
}
