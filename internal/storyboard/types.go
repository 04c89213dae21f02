package storyboard

import (
	"errors"
	"fmt"
)

// ErrInvalidField is returned when an enumerated field holds an unknown value.
var ErrInvalidField = errors.New("invalid storyboard field")

type Layer string

const (
	LayerBackground Layer = "Background"
	LayerFail       Layer = "Fail"
	LayerPass       Layer = "Pass"
	LayerForeground Layer = "Foreground"
)

// Layers in output order.
var Layers = []Layer{LayerBackground, LayerFail, LayerPass, LayerForeground}

func (l Layer) Validate() error {
	for _, v := range Layers {
		if l == v {
			return nil
		}
	}
	return fmt.Errorf("%w: layer %q (valid: Background, Fail, Pass, Foreground)", ErrInvalidField, string(l))
}

type Origin string

const (
	OriginTopLeft      Origin = "TopLeft"
	OriginTopCentre    Origin = "TopCentre"
	OriginTopRight     Origin = "TopRight"
	OriginCentreLeft   Origin = "CentreLeft"
	OriginCentre       Origin = "Centre"
	OriginCentreRight  Origin = "CentreRight"
	OriginBottomLeft   Origin = "BottomLeft"
	OriginBottomCentre Origin = "BottomCentre"
	OriginBottomRight  Origin = "BottomRight"
)

func (o Origin) Validate() error {
	switch o {
	case OriginTopLeft, OriginTopCentre, OriginTopRight,
		OriginCentreLeft, OriginCentre, OriginCentreRight,
		OriginBottomLeft, OriginBottomCentre, OriginBottomRight:
		return nil
	}
	return fmt.Errorf("%w: origin %q", ErrInvalidField, string(o))
}

// Easing is the numeric easing code of a command.
type Easing int

const (
	NoEasing  Easing = 0
	maxEasing Easing = 34
)

func (e Easing) Validate() error {
	if e < NoEasing || e > maxEasing {
		return fmt.Errorf("%w: easing %d", ErrInvalidField, int(e))
	}
	return nil
}

type LoopType string

const (
	LoopForever LoopType = "LoopForever"
	LoopOnce    LoopType = "LoopOnce"
)

func (l LoopType) Validate() error {
	if l != LoopForever && l != LoopOnce {
		return fmt.Errorf("%w: loop type %q", ErrInvalidField, string(l))
	}
	return nil
}

// Parameter is the flag of a P command.
type Parameter string

const (
	ParamFlipH    Parameter = "H"
	ParamFlipV    Parameter = "V"
	ParamAdditive Parameter = "A"
)

func (p Parameter) Validate() error {
	if p != ParamFlipH && p != ParamFlipV && p != ParamAdditive {
		return fmt.Errorf("%w: parameter %q", ErrInvalidField, string(p))
	}
	return nil
}
