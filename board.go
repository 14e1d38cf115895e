package main

import (
	"image/color"
	"math"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"golang.org/x/image/colornames"

	"github.com/milk9111/herbicide/grid"
	"github.com/milk9111/herbicide/model"
)

var tileColors = map[model.Type]color.RGBA{
	model.TypeTile:      {R: 0x3b, G: 0x5e, B: 0x2b, A: 0xff},
	model.TypeWall:      {R: 0x4a, G: 0x3c, B: 0x2a, A: 0xff},
	model.TypeNexusHole: colornames.Steelblue,
	model.TypeSpawnHole: colornames.Darkslategray,
}

// board converts between world positions and screen pixels. World y grows
// northward, screen y grows downward.
type board struct {
	bounds   Rect
	tileSize float64
	scale    float64
	rows     int
}

func newBoard(g *grid.Graph, width, height int, pixelsPerTile float64) board {
	w := float32(float64(width) * pixelsPerTile)
	h := float32(float64(height) * pixelsPerTile)
	return board{
		bounds:   Rect{X: (baseWidth - w) / 2, Y: (baseHeight - h) / 2, Width: w, Height: h},
		tileSize: g.TileSize(),
		scale:    pixelsPerTile / g.TileSize(),
		rows:     height,
	}
}

func (b board) toScreen(p cp.Vector) (float32, float32) {
	x := float64(b.bounds.X) + p.X*b.scale
	y := float64(b.bounds.Y) + (float64(b.rows)*b.tileSize-p.Y)*b.scale
	return float32(x), float32(y)
}

// toCoord maps a screen pixel to the tile coordinate under it.
func (b board) toCoord(x, y float64) (grid.Coord, bool) {
	if !b.bounds.Contains(float32(x), float32(y)) {
		return grid.Coord{}, false
	}
	unit := b.tileSize * b.scale
	px := (x - float64(b.bounds.X)) / unit
	py := (y - float64(b.bounds.Y)) / unit
	return grid.Coord{X: int(math.Floor(px)), Y: b.rows - 1 - int(math.Floor(py))}, true
}

func (b board) drawTiles(screen *ebiten.Image, g *grid.Graph, cursor grid.Coord) {
	size := float32(b.tileSize * b.scale)
	for _, t := range g.Tiles() {
		c := t.Coord()
		x := b.bounds.X + float32(c.X)*size
		y := b.bounds.Y + float32(b.rows-1-c.Y)*size
		col, ok := tileColors[t.Kind()]
		if !ok {
			continue
		}
		vector.FillRect(screen, x, y, size, size, col, false)
		vector.StrokeRect(screen, x, y, size, size, 1, color.RGBA{A: 0x40}, false)
		if c == cursor {
			vector.StrokeRect(screen, x+1, y+1, size-2, size-2, 2, colornames.Gold, false)
		}
	}
}

// sprite is the drawable state the simulation pushes to one model.
type sprite struct {
	category model.Category
	pos      cp.Vector
	layer    float64
	dir      model.Direction
	scale    float64
	color    color.RGBA
}

func (s *sprite) SetWorldPosition(p cp.Vector, layer float64) { s.pos, s.layer = p, layer }
func (s *sprite) SetDirection(d model.Direction)              { s.dir = d }
func (s *sprite) SetScale(v float64)                          { s.scale = v }
func (s *sprite) SetColor(c color.RGBA)                       { s.color = c }

// spriteRenderer keeps one sprite per attached model and draws them as
// shapes, lowest layer first.
type spriteRenderer struct {
	sprites map[*model.Model]*sprite
	order   []*sprite
}

func newSpriteRenderer() *spriteRenderer {
	return &spriteRenderer{sprites: map[*model.Model]*sprite{}}
}

func (r *spriteRenderer) Attach(m *model.Model) model.Appearance {
	s := &sprite{category: m.Category, scale: 1, color: colornames.White}
	r.sprites[m] = s
	return s
}

func (r *spriteRenderer) Detach(m *model.Model) { delete(r.sprites, m) }

func (r *spriteRenderer) Len() int { return len(r.sprites) }

func (r *spriteRenderer) draw(screen *ebiten.Image, b board) {
	r.order = r.order[:0]
	for _, s := range r.sprites {
		r.order = append(r.order, s)
	}
	sort.SliceStable(r.order, func(i, j int) bool { return r.order[i].layer < r.order[j].layer })

	unit := float32(b.tileSize * b.scale)
	for _, s := range r.order {
		x, y := b.toScreen(s.pos)
		size := unit * float32(s.scale)
		switch s.category {
		case model.CategoryProjectile, model.CategoryCollectable:
			vector.FillCircle(screen, x, y, size*0.15, s.color, true)
		case model.CategoryEffect:
			vector.StrokeCircle(screen, x, y, size*0.3, 2, s.color, true)
		case model.CategoryStructure:
			vector.FillRect(screen, x-size*0.35, y-size*0.35, size*0.7, size*0.7, s.color, false)
		default:
			vector.FillCircle(screen, x, y, size*0.35, s.color, true)
			// facing tick
			dx, dy := facing(s.dir)
			vector.StrokeLine(screen, x, y, x+dx*size*0.4, y+dy*size*0.4, 2, colornames.Black, true)
		}
	}
}

func facing(d model.Direction) (float32, float32) {
	switch d {
	case model.North:
		return 0, -1
	case model.South:
		return 0, 1
	case model.East:
		return 1, 0
	case model.West:
		return -1, 0
	}
	return 0, 0
}
