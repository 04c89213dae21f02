package system

import (
	"image"
	"sync"
	"sync/atomic"
)

// FramePool hands out scratch canvases keyed by their size. Every frame of a
// sequence is scaled onto the same canvas, so one bucket usually serves the
// whole run.
type FramePool struct {
	buckets sync.Map // image.Point -> *sync.Pool

	reused    atomic.Int64
	allocated atomic.Int64
}

// PoolStats counts canvases served from the pool and canvases allocated.
type PoolStats struct {
	Reused    int64
	Allocated int64
}

var frames FramePool

// GetImage returns a canvas anchored at the origin with the size of r.
// Pixel contents are left over from earlier use.
func GetImage(r image.Rectangle) *image.RGBA {
	return frames.Get(r.Size())
}

// PutImage returns a canvas obtained from GetImage.
func PutImage(img *image.RGBA) {
	frames.Put(img)
}

// FrameStats reports the shared pool's counters.
func FrameStats() PoolStats {
	return frames.Stats()
}

func (p *FramePool) bucket(size image.Point) *sync.Pool {
	if b, ok := p.buckets.Load(size); ok {
		return b.(*sync.Pool)
	}
	b, _ := p.buckets.LoadOrStore(size, &sync.Pool{})
	return b.(*sync.Pool)
}

func (p *FramePool) Get(size image.Point) *image.RGBA {
	if img, ok := p.bucket(size).Get().(*image.RGBA); ok {
		p.reused.Add(1)
		return img
	}
	p.allocated.Add(1)
	return image.NewRGBA(image.Rectangle{Max: size})
}

// Put ignores sub-images and canvases not anchored at the origin; their
// backing arrays are shared or sized differently.
func (p *FramePool) Put(img *image.RGBA) {
	if img == nil || img.Rect.Min != (image.Point{}) || img.Stride != 4*img.Rect.Dx() {
		return
	}
	p.bucket(img.Rect.Size()).Put(img)
}

func (p *FramePool) Stats() PoolStats {
	return PoolStats{Reused: p.reused.Load(), Allocated: p.allocated.Load()}
}
