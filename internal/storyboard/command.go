package storyboard

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Op string

const (
	OpFade      Op = "F"
	OpMove      Op = "M"
	OpScale     Op = "S"
	OpVecScale  Op = "V"
	OpRotate    Op = "R"
	OpColour    Op = "C"
	OpParameter Op = "P"
)

// Command is one timed instruction of an object. Start and End are in
// milliseconds; From and To hold the operand values.
type Command struct {
	Op     Op
	Easing Easing
	Start  int
	End    int
	From   []float64
	To     []float64
	Param  Parameter
}

func Fade(start, end int, from, to float64) Command {
	return Command{Op: OpFade, Start: start, End: end, From: []float64{from}, To: []float64{to}}
}

func Scale(start, end int, from, to float64) Command {
	return Command{Op: OpScale, Start: start, End: end, From: []float64{from}, To: []float64{to}}
}

func VecScale(start, end int, fromX, fromY, toX, toY float64) Command {
	return Command{Op: OpVecScale, Start: start, End: end, From: []float64{fromX, fromY}, To: []float64{toX, toY}}
}

func Colour(start, end int, from, to [3]int) Command {
	return Command{
		Op:    OpColour,
		Start: start,
		End:   end,
		From:  []float64{float64(from[0]), float64(from[1]), float64(from[2])},
		To:    []float64{float64(to[0]), float64(to[1]), float64(to[2])},
	}
}

func SetParameter(start, end int, p Parameter) Command {
	return Command{Op: OpParameter, Start: start, End: end, Param: p}
}

func (c Command) Validate() error {
	if err := c.Easing.Validate(); err != nil {
		return err
	}
	if c.End < c.Start {
		return fmt.Errorf("%w: start time %d is greater than end time %d", ErrInvalidField, c.Start, c.End)
	}
	switch c.Op {
	case OpParameter:
		return c.Param.Validate()
	case OpColour:
		for _, v := range append(append([]float64{}, c.From...), c.To...) {
			if v < 0 || v > 255 || v != math.Trunc(v) {
				return fmt.Errorf("%w: colour %g", ErrInvalidField, v)
			}
		}
	case OpFade, OpMove, OpScale, OpVecScale, OpRotate:
	default:
		return fmt.Errorf("%w: command %q", ErrInvalidField, string(c.Op))
	}
	if c.Op != OpParameter && (len(c.From) == 0 || len(c.From) != len(c.To)) {
		return fmt.Errorf("%w: %s command with %d/%d operands", ErrInvalidField, c.Op, len(c.From), len(c.To))
	}
	return nil
}

// String renders the command without its leading indentation. The end time is
// left empty for instant commands and the end values are dropped when they
// repeat the start values.
func (c Command) String() string {
	var b strings.Builder
	b.WriteString(string(c.Op))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(int(c.Easing)))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(c.Start))
	b.WriteByte(',')
	if c.End != c.Start {
		b.WriteString(strconv.Itoa(c.End))
	}

	if c.Op == OpParameter {
		b.WriteByte(',')
		b.WriteString(string(c.Param))
		return b.String()
	}

	writeValues(&b, c.From)
	if !sameValues(c.From, c.To) {
		writeValues(&b, c.To)
	}
	return b.String()
}

func writeValues(b *strings.Builder, vs []float64) {
	for _, v := range vs {
		b.WriteByte(',')
		b.WriteString(formatNumber(v))
	}
}

func sameValues(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
