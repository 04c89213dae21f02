package source

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/ivlev/frames2osb/internal/system"
)

// Storyboard playfield size; frames are scaled to its height.
const (
	StoryboardWidth  = 640
	StoryboardHeight = 480
)

// Canvas is the working area frames are sampled on. XShift moves canvas x
// coordinates into storyboard space for frames wider than 4:3.
type Canvas struct {
	W, H   int
	XShift float64
}

// CanvasFor scales a srcW×srcH frame to the storyboard height.
func CanvasFor(srcW, srcH int) Canvas {
	w := (srcW*StoryboardHeight + srcH - 1) / srcH
	return Canvas{
		W:      w,
		H:      StoryboardHeight,
		XShift: math.Floor(float64(w-StoryboardWidth) / 2),
	}
}

// Resize scales img to w×h into a pooled buffer. Release it with
// system.PutImage once the samples are taken.
func Resize(img image.Image, w, h int) *image.RGBA {
	dst := system.GetImage(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
