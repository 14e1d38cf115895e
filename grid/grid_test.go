package grid

import (
	"errors"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/herbicide/model"
)

// build turns rows into a graph with unit tiles. rows[y][x]: '.' floor,
// '#' wall, 'N' nexus hole, 'S' spawn hole, ' ' no tile.
func build(rows ...string) *Graph {
	var cells []Cell
	for y, row := range rows {
		for x, ch := range row {
			kind := model.TypeTile
			switch ch {
			case ' ':
				continue
			case '#':
				kind = model.TypeWall
			case 'N':
				kind = model.TypeNexusHole
			case 'S':
				kind = model.TypeSpawnHole
			}
			cells = append(cells, Cell{Coord: Coord{X: x, Y: y}, Kind: kind})
		}
	}
	return NewGraph(1, cells)
}

func at(g *Graph, x, y int) cp.Vector {
	return g.CoordinateToPosition(Coord{X: x, Y: y})
}

func blocker() *model.Model {
	return model.New(model.TypeBear, model.CategoryDefender, model.Stats{Health: 1, Blocks: true}, cp.Vector{})
}

func TestCoordinateConversions(t *testing.T) {
	g := NewGraph(2, []Cell{{Coord: Coord{X: 1, Y: 3}}})
	p := g.CoordinateToPosition(Coord{X: 1, Y: 3})
	if p != (cp.Vector{X: 3, Y: 7}) {
		t.Fatalf("CoordinateToPosition = %v, want (3,7)", p)
	}
	if c := g.PositionToCoordinate(cp.Vector{X: 3.9, Y: 6.1}); c != (Coord{X: 1, Y: 3}) {
		t.Fatalf("PositionToCoordinate = %v", c)
	}
	if c := g.PositionToCoordinate(cp.Vector{X: -0.1, Y: 0}); c != (Coord{X: -1, Y: 0}) {
		t.Fatalf("negative positions must floor, got %v", c)
	}
}

func TestNeighborsFixedAtBuild(t *testing.T) {
	g := build(
		"...",
		". .",
	)
	got := g.Neighbors(Coord{X: 0, Y: 0})
	if len(got) != 2 || got[0].Coord() != (Coord{X: 1, Y: 0}) || got[1].Coord() != (Coord{X: 0, Y: 1}) {
		t.Fatalf("unexpected neighbours %v", got)
	}
	if n := g.Neighbors(Coord{X: 9, Y: 9}); n != nil {
		t.Fatalf("absent cell must have no neighbours")
	}
}

func TestNextStepToward(t *testing.T) {
	tests := []struct {
		name       string
		rows       []string
		start      Coord
		goal       Coord
		want       Coord
		wantStart  bool
		neverCoord *Coord
	}{
		{
			name:  "straight",
			rows:  []string{"...."},
			start: Coord{0, 0}, goal: Coord{3, 0},
			want: Coord{1, 0},
		},
		{
			name:  "detour",
			rows:  []string{".#..", "...."},
			start: Coord{0, 0}, goal: Coord{3, 0},
			want:       Coord{0, 1},
			neverCoord: &Coord{1, 0},
		},
		{
			name:  "enclosed_goal",
			rows:  []string{"..#..", ".#.#.", "..#.."},
			start: Coord{0, 0}, goal: Coord{2, 1},
			wantStart: true,
		},
		{
			name:  "absent_goal",
			rows:  []string{"...."},
			start: Coord{0, 0}, goal: Coord{7, 7},
			wantStart: true,
		},
		{
			name:  "same_cell",
			rows:  []string{"...."},
			start: Coord{2, 0}, goal: Coord{2, 0},
			wantStart: true,
		},
		{
			name:  "wall_goal_is_expanded",
			rows:  []string{"..#"},
			start: Coord{0, 0}, goal: Coord{2, 0},
			want: Coord{1, 0},
		},
		{
			name:  "tie_prefers_first_inserted",
			rows:  []string{"..", ".."},
			start: Coord{0, 0}, goal: Coord{1, 1},
			want: Coord{1, 0},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := build(tc.rows...)
			start := at(g, tc.start.X, tc.start.Y)
			got := g.NextStepToward(start, at(g, tc.goal.X, tc.goal.Y))
			if tc.wantStart {
				if got != start {
					t.Fatalf("got %v, want start %v", got, start)
				}
				return
			}
			if want := at(g, tc.want.X, tc.want.Y); got != want {
				t.Fatalf("got %v (%v), want %v", got, g.PositionToCoordinate(got), tc.want)
			}
			if tc.neverCoord != nil && g.PositionToCoordinate(got) == *tc.neverCoord {
				t.Fatalf("stepped into blocked cell %v", *tc.neverCoord)
			}
		})
	}
}

func TestNextStepTowardIsDeterministic(t *testing.T) {
	g := build(
		".....",
		".....",
		".....",
	)
	first := g.NextStepToward(at(g, 0, 0), at(g, 4, 2))
	for i := 0; i < 20; i++ {
		if got := g.NextStepToward(at(g, 0, 0), at(g, 4, 2)); got != first {
			t.Fatalf("run %d returned %v, first run returned %v", i, got, first)
		}
	}
}

func TestOccupantsBlockPaths(t *testing.T) {
	g := build("...")
	if err := g.PlaceOccupant(Coord{1, 0}, blocker()); err != nil {
		t.Fatalf("PlaceOccupant: %v", err)
	}
	if g.IsWalkable(Coord{1, 0}) {
		t.Fatalf("occupied tile should not be walkable")
	}
	start := at(g, 0, 0)
	if got := g.NextStepToward(start, at(g, 2, 0)); got != start {
		t.Fatalf("expected no path, got %v", got)
	}
	if got := g.NextStepToward(start, at(g, 1, 0)); got != at(g, 1, 0) {
		t.Fatalf("blocked goal cell must still be reachable as goal, got %v", got)
	}
	if d := g.PathDistance(start, at(g, 2, 0)); d != -1 {
		t.Fatalf("PathDistance = %d, want -1", d)
	}
}

func TestPathDistance(t *testing.T) {
	g := build("....", "....")
	tests := []struct {
		name  string
		start Coord
		goal  Coord
		want  int
	}{
		{"same", Coord{0, 0}, Coord{0, 0}, 0},
		{"straight", Coord{0, 0}, Coord{3, 0}, 3},
		{"diagonal", Coord{0, 0}, Coord{3, 1}, 4},
		{"absent", Coord{0, 0}, Coord{0, 5}, -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := g.PathDistance(at(g, tc.start.X, tc.start.Y), at(g, tc.goal.X, tc.goal.Y)); got != tc.want {
				t.Fatalf("PathDistance = %d, want %d", got, tc.want)
			}
		})
	}
	if !g.CanReach(at(g, 0, 0), at(g, 3, 1)) {
		t.Fatalf("CanReach should be true")
	}
}

func TestPlaceAndRemoveOccupantErrors(t *testing.T) {
	g := build(".#")
	m := blocker()

	if err := g.PlaceOccupant(Coord{1, 0}, m); !errors.Is(err, ErrNotWalkable) {
		t.Fatalf("wall placement err = %v", err)
	}
	if err := g.PlaceOccupant(Coord{5, 0}, m); !errors.Is(err, ErrNoTile) {
		t.Fatalf("absent placement err = %v", err)
	}
	if err := g.PlaceOccupant(Coord{0, 0}, m); err != nil {
		t.Fatalf("PlaceOccupant: %v", err)
	}
	if m.Position() != at(g, 0, 0) {
		t.Fatalf("occupant not snapped to tile centre: %v", m.Position())
	}
	if err := g.PlaceOccupant(Coord{0, 0}, blocker()); !errors.Is(err, ErrOccupied) {
		t.Fatalf("double placement err = %v", err)
	}
	if g.BlockingOccupants() != 1 {
		t.Fatalf("BlockingOccupants = %d, want 1", g.BlockingOccupants())
	}
	got, err := g.RemoveOccupant(Coord{0, 0})
	if err != nil || got != m {
		t.Fatalf("RemoveOccupant = %v, %v", got, err)
	}
	if g.BlockingOccupants() != 0 {
		t.Fatalf("BlockingOccupants after removal = %d", g.BlockingOccupants())
	}
	if _, err := g.RemoveOccupant(Coord{0, 0}); !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty removal err = %v", err)
	}
}

func TestBlockingCountMatchesPlacement(t *testing.T) {
	tests := []struct {
		name   string
		before bool // destroyed before placement
		after  bool // destroyed while placed
		placed int
	}{
		{name: "live", placed: 1},
		{name: "destroyed while placed", after: true, placed: 1},
		{name: "destroyed before placement", before: true, placed: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build("..")
			m := blocker()
			if tt.before {
				m.Destroy()
			}
			if err := g.PlaceOccupant(Coord{0, 0}, m); err != nil {
				t.Fatalf("PlaceOccupant: %v", err)
			}
			if g.BlockingOccupants() != tt.placed {
				t.Fatalf("BlockingOccupants = %d, want %d", g.BlockingOccupants(), tt.placed)
			}
			if tt.after {
				m.Destroy()
			}
			if _, err := g.RemoveOccupant(Coord{0, 0}); err != nil {
				t.Fatalf("RemoveOccupant: %v", err)
			}
			if g.BlockingOccupants() != 0 {
				t.Fatalf("BlockingOccupants after removal = %d, want 0", g.BlockingOccupants())
			}
			if err := g.PlaceOccupant(Coord{0, 0}, blocker()); err != nil || g.BlockingOccupants() != 1 {
				t.Fatalf("replacing the occupant: %v, count %d", err, g.BlockingOccupants())
			}
		})
	}
}

func TestPathCacheInvalidatesOnBlockingChange(t *testing.T) {
	g := build("....", "....")
	c := NewPathCache()
	start, goal := at(g, 0, 0), at(g, 3, 0)

	if c.Sync(g) {
		t.Fatalf("first Sync must not report dropped entries")
	}
	if got := c.NextStep(g, start, goal); got != at(g, 1, 0) {
		t.Fatalf("NextStep = %v", got)
	}
	if c.Len() == 0 {
		t.Fatalf("expected cached entries")
	}

	if err := g.PlaceOccupant(Coord{1, 0}, blocker()); err != nil {
		t.Fatalf("PlaceOccupant: %v", err)
	}
	if got := c.NextStep(g, start, goal); got != at(g, 1, 0) {
		t.Fatalf("stale cache should still answer until Sync, got %v", got)
	}
	if !c.Sync(g) {
		t.Fatalf("Sync should invalidate after blocking count changed")
	}
	if got := c.NextStep(g, start, goal); got != at(g, 0, 1) {
		t.Fatalf("NextStep after invalidation = %v, want detour", got)
	}
	if c.Sync(g) {
		t.Fatalf("Sync without change must keep entries")
	}
	if !c.Reachable(g, start, goal) || c.Distance(g, start, goal) != 5 {
		t.Fatalf("Distance = %d, want 5", c.Distance(g, start, goal))
	}
}

func TestCanPlace(t *testing.T) {
	g := build(".#N")
	if err := g.PlaceOccupant(Coord{0, 0}, blocker()); err != nil {
		t.Fatalf("PlaceOccupant: %v", err)
	}
	g2 := build("..")
	tests := []struct {
		name string
		g    *Graph
		c    Coord
		want error
	}{
		{name: "free floor", g: g2, c: Coord{1, 0}},
		{name: "occupied", g: g, c: Coord{0, 0}, want: ErrOccupied},
		{name: "wall", g: g, c: Coord{1, 0}, want: ErrNotWalkable},
		{name: "hole", g: g, c: Coord{2, 0}, want: ErrNotWalkable},
		{name: "absent", g: g, c: Coord{9, 9}, want: ErrNoTile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.g.CanPlace(tt.c)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("CanPlace = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("CanPlace = %v, want %v", err, tt.want)
			}
		})
	}
}
