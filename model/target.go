package model

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/herbicide/ecs"
)

// Target is anything a controller may select: a model or a grid tile.
type Target interface {
	TargetType() Type
	WorldPosition() cp.Vector
	Targetable() bool
	// Entity is the zero entity for tiles.
	Entity() ecs.Entity
}

// AsModel returns the model behind t, or nil when t is a tile.
func AsModel(t Target) *Model {
	m, _ := t.(*Model)
	return m
}
