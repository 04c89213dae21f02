package decompose

import (
	"image"
	"image/color"
)

// Samples is a row-major 2-D sample array with one (luma) or three (RGB)
// channels per sample.
type Samples struct {
	W, H     int
	Channels int
	Pix      []uint8
}

// NewSamples allocates a zeroed array.
func NewSamples(w, h, channels int) Samples {
	return Samples{W: w, H: h, Channels: channels, Pix: make([]uint8, w*h*channels)}
}

// At returns the sample at (x, y) for channel c.
func (s Samples) At(x, y, c int) uint8 {
	return s.Pix[(y*s.W+x)*s.Channels+c]
}

func (s Samples) Set(x, y, c int, v uint8) {
	s.Pix[(y*s.W+x)*s.Channels+c] = v
}

// FromImage converts img to luma samples, or RGB samples when useRGB is set.
func FromImage(img image.Image, useRGB bool) Samples {
	bounds := img.Bounds()
	channels := 1
	if useRGB {
		channels = 3
	}
	s := NewSamples(bounds.Dx(), bounds.Dy(), channels)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			sx, sy := x-bounds.Min.X, y-bounds.Min.Y
			if useRGB {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				s.Set(sx, sy, 0, c.R)
				s.Set(sx, sy, 1, c.G)
				s.Set(sx, sy, 2, c.B)
			} else {
				g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
				s.Set(sx, sy, 0, g.Y)
			}
		}
	}

	return s
}

// view is a rectangular window into Samples, so recursion never copies pixels.
type view struct {
	s      Samples
	x0, y0 int
	w, h   int
}

func (v view) empty() bool {
	return v.w <= 0 || v.h <= 0
}

// mean returns the per-channel integer mean, truncated.
func (v view) mean() []int {
	sums := make([]int, v.s.Channels)
	for y := v.y0; y < v.y0+v.h; y++ {
		row := (y*v.s.W + v.x0) * v.s.Channels
		for i := 0; i < v.w*v.s.Channels; i++ {
			sums[i%v.s.Channels] += int(v.s.Pix[row+i])
		}
	}
	n := v.w * v.h
	for c := range sums {
		sums[c] /= n
	}
	return sums
}

// uniform reports whether every row of the window is flat. Rows may differ
// from each other; horizontal bands count as uniform.
func (v view) uniform() bool {
	ch := v.s.Channels
	for y := v.y0; y < v.y0+v.h; y++ {
		row := (y*v.s.W + v.x0) * ch
		for i := ch; i < v.w*ch; i++ {
			if v.s.Pix[row+i] != v.s.Pix[row+i%ch] {
				return false
			}
		}
	}
	return true
}

// quadrants bisects the window; the first half takes the extra row/column.
func (v view) quadrants() [4]view {
	w1, h1 := (v.w+1)/2, (v.h+1)/2
	w2, h2 := v.w-w1, v.h-h1
	return [4]view{
		TopLeft:     {s: v.s, x0: v.x0, y0: v.y0, w: w1, h: h1},
		TopRight:    {s: v.s, x0: v.x0 + w1, y0: v.y0, w: w2, h: h1},
		BottomLeft:  {s: v.s, x0: v.x0, y0: v.y0 + h1, w: w1, h: h2},
		BottomRight: {s: v.s, x0: v.x0 + w1, y0: v.y0 + h1, w: w2, h: h2},
	}
}

// centre of the window in canvas coordinates.
func (v view) centre() (float64, float64) {
	return float64(v.x0) + float64(v.w)/2, float64(v.y0) + float64(v.h)/2
}
