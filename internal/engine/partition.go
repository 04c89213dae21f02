package engine

import (
	"fmt"

	"github.com/ivlev/frames2osb/internal/config"
)

// Span is the half-open frame range [Start, End) of one shard.
type Span struct {
	Start, End int
}

func (s Span) Len() int {
	return s.End - s.Start
}

// Partition splits n frames into contiguous shards of n/shards frames; the
// last shard absorbs the remainder. More shards than frames is clamped to one
// frame per shard.
func Partition(n, shards int) ([]Span, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: no frames to process", config.ErrInvalidConfiguration)
	}
	if shards <= 0 {
		return nil, fmt.Errorf("%w: shard count must be >= 1, got %d", config.ErrInvalidConfiguration, shards)
	}
	if shards > n {
		log.Warnf("shard count %d exceeds frame count %d, using %d shards", shards, n, n)
		shards = n
	}

	size := n / shards
	spans := make([]Span, shards)
	for i := range spans {
		spans[i] = Span{Start: i * size, End: (i + 1) * size}
	}
	spans[shards-1].End = n
	return spans, nil
}
