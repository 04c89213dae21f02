package decompose

import "fmt"

// Decomposer turns one sampled frame into a region tree.
type Decomposer interface {
	// SampleSize maps the canvas size to the resolution frames are sampled at.
	SampleSize(canvasW, canvasH int) (w, h int)
	Decompose(s Samples) (*Region, error)
	// Cutoff is the depth at which synthesis treats a node as a leaf; 0 disables it.
	Cutoff() int
}

// QuadTree samples the canvas 1:1 and decomposes it to Quality levels.
type QuadTree struct {
	Quality int
}

func (q QuadTree) SampleSize(canvasW, canvasH int) (int, int) {
	return canvasW, canvasH
}

func (q QuadTree) Decompose(s Samples) (*Region, error) {
	return Build(s, q.Quality)
}

func (q QuadTree) Cutoff() int {
	return q.Quality
}

// Grid samples one value per Size×Size cell.
type Grid struct {
	Size int
}

func (g Grid) SampleSize(canvasW, canvasH int) (int, int) {
	return (canvasW + g.Size - 1) / g.Size, canvasH / g.Size
}

func (g Grid) Decompose(s Samples) (*Region, error) {
	return BuildGrid(s, g.Size)
}

func (g Grid) Cutoff() int {
	return 0
}

// NewDecomposer creates a decomposer for the named method.
func NewDecomposer(method string, param int) (Decomposer, error) {
	switch method {
	case "quadtree", "":
		if param < 1 || param > MaxDepth {
			return nil, fmt.Errorf("%w: quality %d outside [1,%d]", ErrInvalidInput, param, MaxDepth)
		}
		return QuadTree{Quality: param}, nil
	case "pixels":
		if param < 1 {
			return nil, fmt.Errorf("%w: pixel size %d", ErrInvalidInput, param)
		}
		return Grid{Size: param}, nil
	default:
		return nil, fmt.Errorf("unknown decomposition method: %s", method)
	}
}
