package source

import "image"

// Source is an ordered sequence of decoded frames.
type Source interface {
	FrameCount() int
	GetFrameDimensions(index int) (width, height int, err error)
	RenderFrame(index int) (image.Image, error)
	Close() error
}
