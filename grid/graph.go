package grid

import (
	"errors"
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/herbicide/model"
)

var (
	ErrNoTile      = errors.New("grid: no tile at coordinate")
	ErrOccupied    = errors.New("grid: tile already occupied")
	ErrNotWalkable = errors.New("grid: tile cannot hold an occupant")
	ErrEmpty       = errors.New("grid: tile has no occupant")
)

// Cell describes one tile of a level layout.
type Cell struct {
	Coord Coord
	Kind  model.Type
}

// Graph is the static tile graph of a level.
type Graph struct {
	tileSize float64
	tiles    map[Coord]*Tile
	order    []*Tile
	blocking int
}

// NewGraph builds the graph once from cells. Later duplicates of a coordinate
// are ignored. Walls are present but never walkable.
func NewGraph(tileSize float64, cells []Cell) *Graph {
	if tileSize <= 0 {
		tileSize = 1
	}
	g := &Graph{
		tileSize: tileSize,
		tiles:    make(map[Coord]*Tile, len(cells)),
		order:    make([]*Tile, 0, len(cells)),
	}
	for _, c := range cells {
		if _, ok := g.tiles[c.Coord]; ok {
			continue
		}
		kind := c.Kind
		if kind == "" {
			kind = model.TypeTile
		}
		t := &Tile{
			coord:    c.Coord,
			kind:     kind,
			walkable: kind != model.TypeWall,
			center:   g.CoordinateToPosition(c.Coord),
		}
		g.tiles[c.Coord] = t
		g.order = append(g.order, t)
	}
	for _, t := range g.order {
		for i, d := range cardinal {
			t.neighbors[i] = g.tiles[t.coord.Add(d)]
		}
	}
	return g
}

func (g *Graph) TileSize() float64 { return g.tileSize }

// CoordinateToPosition returns the world position of the centre of c.
func (g *Graph) CoordinateToPosition(c Coord) cp.Vector {
	half := g.tileSize / 2
	return cp.Vector{X: float64(c.X)*g.tileSize + half, Y: float64(c.Y)*g.tileSize + half}
}

// PositionToCoordinate returns the cell containing p.
func (g *Graph) PositionToCoordinate(p cp.Vector) Coord {
	return Coord{X: int(math.Floor(p.X / g.tileSize)), Y: int(math.Floor(p.Y / g.tileSize))}
}

func (g *Graph) TileAt(c Coord) (*Tile, bool) {
	t, ok := g.tiles[c]
	return t, ok
}

func (g *Graph) TileAtPosition(p cp.Vector) (*Tile, bool) {
	return g.TileAt(g.PositionToCoordinate(p))
}

// Tiles returns every tile in build order. Callers must not modify it.
func (g *Graph) Tiles() []*Tile { return g.order }

// TilesOfKind returns the tiles of kind in build order.
func (g *Graph) TilesOfKind(kind model.Type) []*Tile {
	var out []*Tile
	for _, t := range g.order {
		if t.kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// IsWalkable reports whether c exists and can be entered.
func (g *Graph) IsWalkable(c Coord) bool {
	t, ok := g.tiles[c]
	return ok && t.Walkable()
}

// Neighbors returns the neighbours of c, or nil when c is absent.
func (g *Graph) Neighbors(c Coord) []*Tile {
	t, ok := g.tiles[c]
	if !ok {
		return nil
	}
	return t.Neighbors()
}

// CanPlace reports why an occupant could not be placed on floor tile c, or
// nil when it can.
func (g *Graph) CanPlace(c Coord) error {
	t, ok := g.tiles[c]
	switch {
	case !ok:
		return fmt.Errorf("%w: %v", ErrNoTile, c)
	case t.kind != model.TypeTile || !t.walkable:
		return fmt.Errorf("%w: %v", ErrNotWalkable, c)
	case t.occupant != nil:
		return fmt.Errorf("%w: %v", ErrOccupied, c)
	}
	return nil
}

// PlaceOccupant puts m on tile c and snaps it to the tile centre.
func (g *Graph) PlaceOccupant(c Coord, m *model.Model) error {
	if m == nil {
		panic("grid: nil occupant")
	}
	t, ok := g.tiles[c]
	if !ok {
		return fmt.Errorf("%w: %v", ErrNoTile, c)
	}
	if !t.walkable {
		return fmt.Errorf("%w: %v", ErrNotWalkable, c)
	}
	if t.occupant != nil {
		return fmt.Errorf("%w: %v", ErrOccupied, c)
	}
	t.occupant = m
	t.blocks = m.Blocks()
	if t.blocks {
		g.blocking++
	}
	m.SetPosition(t.center)
	return nil
}

// RemoveOccupant clears tile c and returns what was on it.
func (g *Graph) RemoveOccupant(c Coord) (*model.Model, error) {
	t, ok := g.tiles[c]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNoTile, c)
	}
	if t.occupant == nil {
		return nil, fmt.Errorf("%w: %v", ErrEmpty, c)
	}
	m := t.occupant
	t.occupant = nil
	if t.blocks {
		g.blocking--
	}
	t.blocks = false
	return m, nil
}

// OccupantAt returns the occupant of c, if any.
func (g *Graph) OccupantAt(c Coord) *model.Model {
	if t, ok := g.tiles[c]; ok {
		return t.occupant
	}
	return nil
}

// BlockingOccupants is the number of occupants that block movement. Path
// caches compare it between ticks to decide whether to invalidate.
func (g *Graph) BlockingOccupants() int { return g.blocking }
