package progress

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Bar reports progress of a single pipeline phase.
type Bar struct {
	bar *progressbar.ProgressBar
}

// New creates a bar with a known total. A negative max renders a spinner.
func New(max int, desc string) *Bar {
	return &Bar{bar: create(os.Stderr, max, desc)}
}

// Silent creates a bar that renders nothing. Used by tests and quiet runs.
func Silent(max int) *Bar {
	return &Bar{bar: create(io.Discard, max, "")}
}

func (b *Bar) Add(n int) {
	_ = b.bar.Add(n)
}

func (b *Bar) Describe(desc string) {
	b.bar.Describe(desc)
}

func (b *Bar) Finish() {
	_ = b.bar.Finish()
}

func create(w io.Writer, max int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(w, "\n")
		}),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]/[reset]",
			SaucerHead:    "[green]/[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
