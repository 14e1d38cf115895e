package main

import (
	"strings"
	"testing"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/herbicide/grid"
	"github.com/milk9111/herbicide/levels"
	"github.com/milk9111/herbicide/model"
	"github.com/milk9111/herbicide/sim"
)

func TestBoardMapping(t *testing.T) {
	lvl, err := levels.Load("meadow")
	if err != nil {
		t.Fatalf("load level: %v", err)
	}
	g := lvl.Graph()
	b := newBoard(g, lvl.Width, lvl.Height, 48)

	tests := []struct {
		name string
		at   grid.Coord
	}{
		{"south west", grid.Coord{X: 0, Y: 0}},
		{"nexus hole", grid.Coord{X: 4, Y: 0}},
		{"north east", grid.Coord{X: 8, Y: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := b.toScreen(g.CoordinateToPosition(tt.at))
			got, ok := b.toCoord(float64(x), float64(y))
			if !ok || got != tt.at {
				t.Fatalf("tile center (%v, %v) maps back to %v (%v)", x, y, got, ok)
			}
		})
	}

	if _, ok := b.toCoord(0, 0); ok {
		t.Fatalf("the screen corner is off the board")
	}
	_, top := b.toScreen(cp.Vector{X: 0, Y: float64(lvl.Height) * g.TileSize()})
	if top != b.bounds.Y {
		t.Fatalf("the northern edge should sit at the top of the board, got %v", top)
	}
}

func TestSpriteRendererFollowsModels(t *testing.T) {
	r := newSpriteRenderer()
	pool := model.NewPool(r)
	m := pool.Get(model.TypeSquirrel, model.CategoryDefender, model.Stats{}, cp.Vector{X: 1, Y: 2})
	if r.Len() != 1 {
		t.Fatalf("expected one sprite, got %d", r.Len())
	}
	s := r.sprites[m]
	if s.pos != (cp.Vector{X: 1, Y: 2}) {
		t.Fatalf("expected the attach position, got %v", s.pos)
	}
	m.SetPosition(cp.Vector{X: 3, Y: 4})
	if s.pos != (cp.Vector{X: 3, Y: 4}) {
		t.Fatalf("expected the sprite to follow the model, got %v", s.pos)
	}
	pool.Put(m)
	if r.Len() != 0 {
		t.Fatalf("expected the sprite to be detached")
	}
}

func TestSummary(t *testing.T) {
	cfg, err := sim.LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	s, err := sim.New(cfg, nil)
	if err != nil {
		t.Fatalf("new simulation: %v", err)
	}
	s.Tick()
	out := summary(s.Snapshot())
	for _, want := range []string{"tick 1: ongoing", "lives 3, balance 20", "squirrel#", "nexus#"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary is missing %q:\n%s", want, out)
		}
	}
}
