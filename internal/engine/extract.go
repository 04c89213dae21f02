package engine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/frames2osb/internal/chunkstore"
	"github.com/ivlev/frames2osb/internal/decompose"
	"github.com/ivlev/frames2osb/internal/source"
	"github.com/ivlev/frames2osb/internal/system"
)

// ErrExtractionWorker matches every *ShardError.
var ErrExtractionWorker = errors.New("extraction worker failed")

// ShardError identifies the shard and frame an extraction failure happened
// in. Frame is -1 when the shard failed while writing its chunk.
type ShardError struct {
	Shard int
	Frame int
	Path  string
	Err   error
}

func (e *ShardError) Error() string {
	if e.Frame < 0 {
		return fmt.Sprintf("shard %d: %v", e.Shard, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("shard %d, frame %d (%s): %v", e.Shard, e.Frame, e.Path, e.Err)
	}
	return fmt.Sprintf("shard %d, frame %d: %v", e.Shard, e.Frame, e.Err)
}

func (e *ShardError) Unwrap() error {
	return e.Err
}

func (e *ShardError) Is(target error) bool {
	return target == ErrExtractionWorker
}

// Extractor decomposes frames shard by shard into chunk files.
type Extractor struct {
	Source     source.Source
	Decomposer decompose.Decomposer
	Canvas     source.Canvas
	UseRGB     bool
	Dir        string
	Workers    int
}

// Run processes spans with at most Workers shards in flight. progress, when
// non-nil, is called from the calling goroutine once per decomposed frame.
// The first failure cancels the remaining shards.
func (e *Extractor) Run(ctx context.Context, spans []Span, progress func(int)) ([]chunkstore.ShardInfo, error) {
	workers := max(e.Workers, 1)
	shards := make([]chunkstore.ShardInfo, len(spans))
	ticks := make(chan int, len(spans))
	done := make(chan error, 1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	go func() {
		for i, span := range spans {
			i, span := i, span
			g.Go(func() error {
				info, err := e.shard(gctx, i, span, ticks)
				if err != nil {
					return err
				}
				shards[i] = info
				return nil
			})
		}
		done <- g.Wait()
		close(ticks)
	}()

	for n := range ticks {
		if progress != nil {
			progress(n)
		}
	}
	if err := <-done; err != nil {
		return nil, err
	}
	return shards, nil
}

func (e *Extractor) shard(ctx context.Context, index int, span Span, ticks chan<- int) (chunkstore.ShardInfo, error) {
	sw, sh := e.Decomposer.SampleSize(e.Canvas.W, e.Canvas.H)
	frames := make([]decompose.Frame, 0, span.Len())

	for i := span.Start; i < span.End; i++ {
		if err := ctx.Err(); err != nil {
			return chunkstore.ShardInfo{}, err
		}
		root, err := e.frame(i, sw, sh)
		if err != nil {
			return chunkstore.ShardInfo{}, &ShardError{Shard: index, Frame: i, Path: framePath(e.Source, i), Err: err}
		}
		frames = append(frames, decompose.Frame{Offset: i, Root: root})
		ticks <- 1
	}

	path, err := chunkstore.WriteChunk(e.Dir, index, frames)
	if err != nil {
		return chunkstore.ShardInfo{}, &ShardError{Shard: index, Frame: -1, Err: err}
	}
	log.WithField("shard", index).Debugf("frames %d-%d written to %s", span.Start, span.End-1, path)

	return chunkstore.ShardInfo{
		Index: index,
		File:  chunkstore.ChunkName(index),
		First: span.Start,
		Count: span.Len(),
	}, nil
}

func (e *Extractor) frame(index, w, h int) (*decompose.Region, error) {
	img, err := e.Source.RenderFrame(index)
	if err != nil {
		return nil, err
	}
	scaled := source.Resize(img, w, h)
	samples := decompose.FromImage(scaled, e.UseRGB)
	system.PutImage(scaled)

	return e.Decomposer.Decompose(samples)
}

func framePath(src source.Source, index int) string {
	if p, ok := src.(interface{ Path(int) string }); ok {
		return p.Path(index)
	}
	return ""
}
