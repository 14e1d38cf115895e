package grid

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/herbicide/ecs"
	"github.com/milk9111/herbicide/model"
)

// Coord is an integer grid cell.
type Coord struct {
	X int
	Y int
}

func (c Coord) Add(o Coord) Coord { return Coord{X: c.X + o.X, Y: c.Y + o.Y} }

// cardinal is the fixed neighbour order: east, west, north, south.
var cardinal = [4]Coord{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// Tile is one grid cell. Its position and neighbours never change after the
// graph is built; only the occupant does.
type Tile struct {
	coord     Coord
	kind      model.Type
	walkable  bool
	center    cp.Vector
	neighbors [4]*Tile
	occupant  *model.Model
	// blocks is whether the occupant counted as blocking when placed.
	blocks    bool
}

func (t *Tile) Coord() Coord           { return t.coord }
func (t *Tile) Kind() model.Type       { return t.kind }
func (t *Tile) Occupant() *model.Model { return t.occupant }

// Walkable reports whether movers may enter the tile right now.
func (t *Tile) Walkable() bool {
	if t == nil || !t.walkable {
		return false
	}
	return t.occupant == nil || !t.occupant.Blocks()
}

// Neighbors returns the existing cardinal neighbours in east, west, north,
// south order.
func (t *Tile) Neighbors() []*Tile {
	out := make([]*Tile, 0, 4)
	for _, n := range t.neighbors {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (t *Tile) TargetType() model.Type   { return t.kind }
func (t *Tile) WorldPosition() cp.Vector { return t.center }
func (t *Tile) Targetable() bool         { return t != nil }
func (t *Tile) Entity() ecs.Entity       { return 0 }
