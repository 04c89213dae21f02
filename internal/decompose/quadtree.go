package decompose

import (
	"errors"
	"fmt"
)

// MaxDepth bounds quadtree recursion on noisy input.
const MaxDepth = 8

// ErrInvalidInput is returned for empty sample arrays and out-of-range depths.
var ErrInvalidInput = errors.New("invalid decomposition input")

// Build approximates s with a quadtree of flat-colour regions. A node is
// terminal when it reaches maxDepth or every row of its samples is flat.
func Build(s Samples, maxDepth int) (*Region, error) {
	if maxDepth < 1 || maxDepth > MaxDepth {
		return nil, fmt.Errorf("%w: max depth %d outside [1,%d]", ErrInvalidInput, maxDepth, MaxDepth)
	}
	if err := checkSamples(s); err != nil {
		return nil, err
	}

	return build(view{s: s, w: s.W, h: s.H}, 1, maxDepth), nil
}

func build(v view, depth, maxDepth int) *Region {
	x, y := v.centre()
	r := &Region{
		X:     x,
		Y:     y,
		W:     v.w,
		H:     v.h,
		Depth: depth,
		Mean:  v.mean(),
		Final: depth >= maxDepth || v.uniform(),
	}
	if r.Final {
		return r
	}

	r.Children = make([]*Region, 4)
	for i, q := range v.quadrants() {
		if q.empty() {
			continue
		}
		r.Children[i] = build(q, depth+1, maxDepth)
	}
	return r
}

func checkSamples(s Samples) error {
	if s.W <= 0 || s.H <= 0 {
		return fmt.Errorf("%w: empty sample array %dx%d", ErrInvalidInput, s.W, s.H)
	}
	if s.Channels != 1 && s.Channels != 3 {
		return fmt.Errorf("%w: unsupported channel count %d", ErrInvalidInput, s.Channels)
	}
	if len(s.Pix) != s.W*s.H*s.Channels {
		return fmt.Errorf("%w: %d samples for %dx%dx%d", ErrInvalidInput, len(s.Pix), s.W, s.H, s.Channels)
	}
	return nil
}
