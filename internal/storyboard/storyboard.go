// Package storyboard models osu! storyboard objects and renders them as an
// .osb script.
package storyboard

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sprite describes the image and placement of an object.
type Sprite struct {
	Path   string
	Origin Origin
	X, Y   float64
}

// Object is one storyboard sprite. Setup commands are emitted before Timed ones.
type Object struct {
	Key    string
	Layer  Layer
	Sprite Sprite
	Setup  []Command
	Timed  []Command
}

func (o *Object) AddSetup(c Command) { o.Setup = append(o.Setup, c) }

func (o *Object) Add(c Command) { o.Timed = append(o.Timed, c) }

func (o *Object) Validate() error {
	if err := o.Layer.Validate(); err != nil {
		return fmt.Errorf("object %s: %w", o.Key, err)
	}
	if err := o.Sprite.Origin.Validate(); err != nil {
		return fmt.Errorf("object %s: %w", o.Key, err)
	}
	if o.Sprite.Path == "" {
		return fmt.Errorf("object %s: %w: empty sprite path", o.Key, ErrInvalidField)
	}
	for _, cmds := range [][]Command{o.Setup, o.Timed} {
		for _, c := range cmds {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("object %s: %w", o.Key, err)
			}
		}
	}
	return nil
}

func (o *Object) header() string {
	return fmt.Sprintf("Sprite,%s,%s,\"%s\",%s,%s",
		o.Layer, o.Sprite.Origin, o.Sprite.Path,
		formatNumber(o.Sprite.X), formatNumber(o.Sprite.Y))
}

// Storyboard holds objects grouped by layer in creation order.
type Storyboard struct {
	layers map[Layer][]*Object
}

func New() *Storyboard {
	return &Storyboard{layers: make(map[Layer][]*Object)}
}

func (sb *Storyboard) NewObject(layer Layer, key string, sprite Sprite) *Object {
	o := &Object{Key: key, Layer: layer, Sprite: sprite}
	sb.layers[layer] = append(sb.layers[layer], o)
	return o
}

func (sb *Storyboard) Objects(layer Layer) []*Object {
	return sb.layers[layer]
}

// Len returns the total number of objects.
func (sb *Storyboard) Len() int {
	n := 0
	for _, objs := range sb.layers {
		n += len(objs)
	}
	return n
}

// CommandCount returns the number of command lines the script will contain.
func (sb *Storyboard) CommandCount() int {
	n := 0
	for _, objs := range sb.layers {
		for _, o := range objs {
			n += len(o.Setup) + len(o.Timed)
		}
	}
	return n
}

var layerComments = map[Layer]string{
	LayerBackground: "//Storyboard Layer 0 (Background)",
	LayerFail:       "//Storyboard Layer 1 (Fail)",
	LayerPass:       "//Storyboard Layer 2 (Pass)",
	LayerForeground: "//Storyboard Layer 3 (Foreground)",
}

// Write validates every object and renders the script to w.
func Write(w io.Writer, sb *Storyboard) error {
	for _, layer := range Layers {
		for _, o := range sb.layers[layer] {
			if err := o.Validate(); err != nil {
				return err
			}
		}
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("[Events]\n")
	bw.WriteString("//Background and Video events\n")
	for _, layer := range Layers {
		bw.WriteString(layerComments[layer])
		bw.WriteByte('\n')
		for _, o := range sb.layers[layer] {
			writeObject(bw, o)
		}
	}
	bw.WriteString("//Storyboard Sound Samples\n")
	return bw.Flush()
}

func writeObject(w *bufio.Writer, o *Object) {
	var b strings.Builder
	b.WriteString(o.header())
	b.WriteByte('\n')
	for _, cmds := range [][]Command{o.Setup, o.Timed} {
		for _, c := range cmds {
			b.WriteByte(' ')
			b.WriteString(c.String())
			b.WriteByte('\n')
		}
	}
	w.WriteString(b.String())
}

// WriteFile renders the script to path. A partially written file is removed.
func WriteFile(path string, sb *Storyboard) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create storyboard file: %w", err)
	}
	if err := Write(f, sb); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close storyboard file: %w", err)
	}
	return nil
}
