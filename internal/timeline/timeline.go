// Package timeline turns a temporally ordered sequence of decomposed frames
// into per-region storyboard commands.
//
// Every region key owns one state record. A key is visible when it has an
// object and a non-zero alpha; at any instant at most one key along a
// root-to-leaf path is visible. Commands are only emitted when a key's
// value changes.
package timeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/ivlev/frames2osb/internal/decompose"
	"github.com/ivlev/frames2osb/internal/storyboard"
)

// ErrInvariantViolation reports a structurally impossible frame sequence.
var ErrInvariantViolation = errors.New("synthesis invariant violation")

const DefaultSprite = "res/dot.png"

type Options struct {
	FPS         float64
	MusicOffset int
	Precision   int // alpha rounding digits, or the RGB threshold divisor
	UseRGB      bool
	Cutoff      int // depth treated as terminal; 0 disables it
	XShift      float64
	Sprite      string
	Layer       storyboard.Layer
}

type state struct {
	object   *storyboard.Object
	alpha    float64
	rgb      int
	rgbSet   bool
	children []decompose.Key
	linked   map[decompose.Key]struct{}
}

func (st *state) visible() bool {
	return st.object != nil && st.alpha != 0
}

func (st *state) link(child decompose.Key) {
	if _, ok := st.linked[child]; ok {
		return
	}
	if st.linked == nil {
		st.linked = make(map[decompose.Key]struct{})
	}
	st.linked[child] = struct{}{}
	st.children = append(st.children, child)
}

type Synthesizer struct {
	opts      Options
	threshold float64
	sb        *storyboard.Storyboard
	states    map[decompose.Key]*state
	seen      map[decompose.Key]struct{}
	frames    int
	last      int
}

func New(opts Options) (*Synthesizer, error) {
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %g", opts.FPS)
	}
	if opts.Precision < 0 {
		return nil, fmt.Errorf("precision must be non-negative, got %d", opts.Precision)
	}
	if opts.Sprite == "" {
		opts.Sprite = DefaultSprite
	}
	if opts.Layer == "" {
		opts.Layer = storyboard.LayerBackground
	}
	if err := opts.Layer.Validate(); err != nil {
		return nil, err
	}

	return &Synthesizer{
		opts:      opts,
		threshold: colourThreshold(opts.Precision),
		sb:        storyboard.New(),
		states:    make(map[decompose.Key]*state),
		seen:      make(map[decompose.Key]struct{}),
	}, nil
}

// colourThreshold is the channel-sum delta an RGB region must exceed before a
// new colour is emitted.
func colourThreshold(precision int) float64 {
	if precision <= 0 {
		return 0
	}
	p := min(max(precision, 1), 10)
	return 10 / float64(p) * 15
}

// Timestamp converts a frame offset into milliseconds on the music timeline.
func (s *Synthesizer) Timestamp(offset int) int {
	return s.opts.MusicOffset + int(math.Round(float64(offset)*1000/s.opts.FPS))
}

// Add walks one frame. Frames must arrive in strictly increasing offset order.
func (s *Synthesizer) Add(f decompose.Frame) error {
	if f.Root == nil {
		return fmt.Errorf("%w: frame %d has no root region", ErrInvariantViolation, f.Offset)
	}
	if s.frames > 0 && f.Offset <= s.last {
		return fmt.Errorf("%w: frame %d after frame %d", ErrInvariantViolation, f.Offset, s.last)
	}

	clear(s.seen)
	if err := s.visit(f.Root, nil, s.Timestamp(f.Offset)); err != nil {
		return fmt.Errorf("frame %d: %w", f.Offset, err)
	}
	s.last = f.Offset
	s.frames++
	return nil
}

func (s *Synthesizer) visit(r *decompose.Region, parent *state, at int) error {
	key := r.Key()
	if _, dup := s.seen[key]; dup {
		return fmt.Errorf("%w: region %s appears twice in one frame", ErrInvariantViolation, key)
	}
	s.seen[key] = struct{}{}

	st, ok := s.states[key]
	if !ok {
		st = &state{}
		s.states[key] = st
	}
	if parent != nil {
		parent.link(key)
	}

	if r.Final || (s.opts.Cutoff > 0 && r.Depth >= s.opts.Cutoff) {
		s.hideDescendants(st, at)
		if st.object == nil {
			s.place(st, r)
		}
		return s.paint(st, r, at)
	}

	// A parent vacates before any of its children can show.
	if st.visible() {
		st.object.Add(storyboard.Fade(at, at, 0, 0))
		st.alpha = 0
	}

	visited := 0
	for _, c := range r.Children {
		if c == nil {
			continue
		}
		if err := s.visit(c, st, at); err != nil {
			return err
		}
		visited++
	}
	if visited == 0 {
		return fmt.Errorf("%w: interior region %s has no children", ErrInvariantViolation, key)
	}
	return nil
}

func (s *Synthesizer) hideDescendants(st *state, at int) {
	for _, k := range st.children {
		child := s.states[k]
		if child.visible() {
			child.object.Add(storyboard.Fade(at, at, 0, 0))
			child.alpha = 0
		}
		s.hideDescendants(child, at)
	}
}

func (s *Synthesizer) place(st *state, r *decompose.Region) {
	obj := s.sb.NewObject(s.opts.Layer, r.Key().String(), storyboard.Sprite{
		Path:   s.opts.Sprite,
		Origin: storyboard.OriginCentre,
		X:      r.X - s.opts.XShift,
		Y:      r.Y,
	})
	w, h := float64(r.W+1), float64(r.H+1)
	obj.AddSetup(storyboard.VecScale(0, 0, w, h, w, h))
	obj.AddSetup(storyboard.Fade(0, 0, 0, 0))
	st.object = obj
	st.alpha = 0
}

func (s *Synthesizer) paint(st *state, r *decompose.Region, at int) error {
	if s.opts.UseRGB {
		if len(r.Mean) != 3 {
			return fmt.Errorf("%w: region %s has %d channels in RGB mode", ErrInvariantViolation, r.Key(), len(r.Mean))
		}
		total := r.Mean[0] + r.Mean[1] + r.Mean[2]
		if !st.rgbSet || math.Abs(float64(total-st.rgb)) > s.threshold {
			rgb := [3]int{r.Mean[0], r.Mean[1], r.Mean[2]}
			st.object.Add(storyboard.Colour(at, at, rgb, rgb))
			st.rgb = total
			st.rgbSet = true
		}
		if st.alpha <= 0 {
			st.object.Add(storyboard.Fade(at, at, 1, 1))
			st.alpha = 1
		}
		return nil
	}

	if len(r.Mean) != 1 {
		return fmt.Errorf("%w: region %s has %d channels in alpha mode", ErrInvariantViolation, r.Key(), len(r.Mean))
	}
	alpha := roundTo(float64(r.Mean[0])/255, s.opts.Precision)
	if st.alpha != alpha {
		st.object.Add(storyboard.Fade(at, at, alpha, alpha))
		st.alpha = alpha
	}
	return nil
}

func roundTo(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}

func (s *Synthesizer) Storyboard() *storyboard.Storyboard {
	return s.sb
}

// Frames returns the number of frames added so far.
func (s *Synthesizer) Frames() int {
	return s.frames
}
