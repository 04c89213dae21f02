package decompose

import "fmt"

// Quadrant slots of an interior quadtree node, in visiting order.
const (
	TopLeft = iota
	TopRight
	BottomLeft
	BottomRight
)

// Region is one rectangle of the working canvas. X and Y are the canvas-space
// centre, W and H the pixel extent. Interior quadtree nodes have four child
// slots (TL, TR, BL, BR); a slot is nil when bisection left it empty.
type Region struct {
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	W        int       `json:"w"`
	H        int       `json:"h"`
	Depth    int       `json:"depth"`
	Final    bool      `json:"final"`
	Mean     []int     `json:"mean"`
	Children []*Region `json:"children,omitempty"`
}

// Key identifies a spatial slot across frames.
type Key struct {
	X, Y float64
	W, H int
}

func (k Key) String() string {
	return fmt.Sprintf("%g:%g:%d:%d", k.X, k.Y, k.W, k.H)
}

func (r *Region) Key() Key {
	return Key{X: r.X, Y: r.Y, W: r.W, H: r.H}
}

// Area is the number of source samples covered by the region.
func (r *Region) Area() int {
	return r.W * r.H
}

// Walk visits r and its descendants in pre-order, children in slot order.
// Returning false from fn skips the node's subtree.
func (r *Region) Walk(fn func(*Region) bool) {
	if r == nil || !fn(r) {
		return
	}
	for _, c := range r.Children {
		c.Walk(fn)
	}
}

// Leaves returns the terminal regions in visiting order.
func (r *Region) Leaves() []*Region {
	var out []*Region
	r.Walk(func(n *Region) bool {
		if n.Final {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Equal reports whether two trees have identical geometry, flags, means and
// child structure.
func (r *Region) Equal(o *Region) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.Key() != o.Key() || r.Depth != o.Depth || r.Final != o.Final {
		return false
	}
	if len(r.Mean) != len(o.Mean) || len(r.Children) != len(o.Children) {
		return false
	}
	for i := range r.Mean {
		if r.Mean[i] != o.Mean[i] {
			return false
		}
	}
	for i := range r.Children {
		if !r.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

// Frame is a decomposed video frame at a known ordinal position.
type Frame struct {
	Offset int     `json:"offset"`
	Root   *Region `json:"root"`
}
