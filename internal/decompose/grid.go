package decompose

import "fmt"

// BuildGrid is the flat-grid decomposition: every sample of s becomes its own
// terminal cell of cell×cell canvas pixels under a single interior root.
// Cells are listed column by column. A 1×1 grid is a single terminal root.
func BuildGrid(s Samples, cell int) (*Region, error) {
	if cell < 1 {
		return nil, fmt.Errorf("%w: cell size %d", ErrInvalidInput, cell)
	}
	if err := checkSamples(s); err != nil {
		return nil, err
	}

	whole := view{s: s, w: s.W, h: s.H}
	if s.W == 1 && s.H == 1 {
		// A lone cell shares the root's geometry, so it is the root.
		return &Region{
			X:     float64(cell / 2),
			Y:     float64(cell / 2),
			W:     cell,
			H:     cell,
			Depth: 1,
			Final: true,
			Mean:  whole.mean(),
		}, nil
	}

	root := &Region{
		X:        float64(s.W*cell) / 2,
		Y:        float64(s.H*cell) / 2,
		W:        s.W * cell,
		H:        s.H * cell,
		Depth:    1,
		Mean:     whole.mean(),
		Children: make([]*Region, 0, s.W*s.H),
	}

	half := cell / 2
	for x := 0; x < s.W; x++ {
		for y := 0; y < s.H; y++ {
			px := view{s: s, x0: x, y0: y, w: 1, h: 1}
			root.Children = append(root.Children, &Region{
				X:     float64(half + x*cell),
				Y:     float64(half + y*cell),
				W:     cell,
				H:     cell,
				Depth: 2,
				Final: true,
				Mean:  px.mean(),
			})
		}
	}

	return root, nil
}
