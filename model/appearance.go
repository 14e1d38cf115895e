package model

import (
	"image/color"

	"github.com/jakecoffman/cp"
)

// Direction is the facing of a model.
type Direction int

const (
	South Direction = iota
	East
	North
	West
)

func (d Direction) String() string {
	switch d {
	case East:
		return "east"
	case North:
		return "north"
	case West:
		return "west"
	default:
		return "south"
	}
}

// DirectionOf returns the cardinal direction of v. The y axis points north.
func DirectionOf(v cp.Vector) Direction {
	if v.X == 0 && v.Y == 0 {
		return South
	}
	if abs(v.X) >= abs(v.Y) {
		if v.X > 0 {
			return East
		}
		return West
	}
	if v.Y > 0 {
		return North
	}
	return South
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// Appearance receives one-way visual updates for a single model. The
// simulation never reads anything back from it.
type Appearance interface {
	SetWorldPosition(p cp.Vector, layer float64)
	SetDirection(d Direction)
	SetScale(s float64)
	SetColor(c color.RGBA)
}

// Renderer hands out appearances for models as they are created.
type Renderer interface {
	Attach(m *Model) Appearance
	Detach(m *Model)
}

type nopAppearance struct{}

func (nopAppearance) SetWorldPosition(cp.Vector, float64) {}
func (nopAppearance) SetDirection(Direction)              {}
func (nopAppearance) SetScale(float64)                    {}
func (nopAppearance) SetColor(color.RGBA)                 {}

// NopRenderer discards every visual update.
type NopRenderer struct{}

func (NopRenderer) Attach(*Model) Appearance { return nopAppearance{} }
func (NopRenderer) Detach(*Model)            {}
