package main

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/milk9111/herbicide/grid"
	"github.com/milk9111/herbicide/model"
	"github.com/milk9111/herbicide/sim"
)

func newSimulation(t *testing.T) *sim.Simulation {
	t.Helper()
	cfg, err := sim.LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	s, err := sim.New(cfg, nil)
	if err != nil {
		t.Fatalf("new simulation: %v", err)
	}
	return s
}

func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	ss := tcell.NewSimulationScreen("UTF-8")
	ss.SetSize(80, 24)
	if err := ss.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	t.Cleanup(ss.Fini)
	return ss
}

func TestPadLabel(t *testing.T) {
	tests := []struct {
		in   string
		w    int
		want string
	}{
		{"abc", 5, "abc  "},
		{"abcdef", 4, "abcd"},
		{"🐻x", 4, "🐻x "},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := padLabel(tt.in, tt.w)
			if got != tt.want || runewidth.StringWidth(got) != tt.w {
				t.Fatalf("padLabel(%q, %d) = %q", tt.in, tt.w, got)
			}
		})
	}
}

func TestGlyphs(t *testing.T) {
	for typ, g := range emojiGlyphs {
		if runewidth.StringWidth(g) > cellWidth {
			t.Fatalf("%s glyph %q is wider than a cell", typ, g)
		}
		if _, ok := asciiGlyphs[typ]; !ok {
			t.Fatalf("%s has no ascii glyph", typ)
		}
	}
	if glyphFor("weed", true) != "?" {
		t.Fatalf("unknown types should draw as ?")
	}
}

func TestScreenCell(t *testing.T) {
	x, y := screenCell(grid.Coord{X: 2, Y: 0}, 7)
	if x != 4 || y != hudRows+6 {
		t.Fatalf("expected (4, %d), got (%d, %d)", hudRows+6, x, y)
	}
	_, top := screenCell(grid.Coord{X: 0, Y: 6}, 7)
	if top != hudRows {
		t.Fatalf("the northern row should sit under the hud, got row %d", top)
	}
}

func TestShopItems(t *testing.T) {
	s := newSimulation(t)
	items := shopItems(s.Catalog())
	want := []shopItem{{model.TypeSquirrel, 5}, {model.TypeBear, 8}, {model.TypeRaccoon, 10}}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %+v", len(want), items)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Fatalf("item %d: expected %+v, got %+v", i, want[i], items[i])
		}
	}
}

func TestHandleKey(t *testing.T) {
	s := newSimulation(t)
	tests := []struct {
		name     string
		key      tcell.Key
		r        rune
		from     grid.Coord
		want     action
		cursor   grid.Coord
		selected int
	}{
		{"quit", tcell.KeyRune, 'q', grid.Coord{}, actionQuit, grid.Coord{}, 0},
		{"escape", tcell.KeyEscape, 0, grid.Coord{}, actionQuit, grid.Coord{}, 0},
		{"pause", tcell.KeyRune, ' ', grid.Coord{}, actionPause, grid.Coord{}, 0},
		{"buy", tcell.KeyEnter, 0, grid.Coord{}, actionBuy, grid.Coord{}, 0},
		{"north", tcell.KeyUp, 0, grid.Coord{X: 1, Y: 1}, actionNone, grid.Coord{X: 1, Y: 2}, 0},
		{"off the map", tcell.KeyLeft, 0, grid.Coord{}, actionNone, grid.Coord{}, 0},
		{"select", tcell.KeyRune, '2', grid.Coord{}, actionNone, grid.Coord{}, 1},
		{"select past the shop", tcell.KeyRune, '9', grid.Coord{}, actionNone, grid.Coord{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := ui{cursor: tt.from}
			got := handleKey(tcell.NewEventKey(tt.key, tt.r, tcell.ModNone), &u, s.Graph(), 3)
			if got != tt.want || u.cursor != tt.cursor || u.selected != tt.selected {
				t.Fatalf("got action %d cursor %v selected %d", got, u.cursor, u.selected)
			}
		})
	}
}

func TestDrawMeadow(t *testing.T) {
	s := newSimulation(t)
	s.Tick()
	ss := newSimScreen(t)
	v := &view{screen: ss, graph: s.Graph(), height: s.Level().Height, ascii: true, shop: shopItems(s.Catalog())}
	v.draw(s.Snapshot(), ui{cursor: grid.Coord{X: 1, Y: 1}})

	tests := []struct {
		name string
		at   grid.Coord
		want rune
	}{
		{"wall", grid.Coord{X: 0, Y: 0}, '#'},
		{"nexus hole", grid.Coord{X: 4, Y: 0}, 'O'},
		{"spawn hole", grid.Coord{X: 4, Y: 6}, 'X'},
		{"floor", grid.Coord{X: 1, Y: 1}, '.'},
		{"squirrel", grid.Coord{X: 2, Y: 3}, 's'},
		{"bear", grid.Coord{X: 3, Y: 4}, 'B'},
		{"nexus", grid.Coord{X: 4, Y: 2}, '@'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := screenCell(tt.at, v.height)
			r, _, _, _ := ss.GetContent(x, y)
			if r != tt.want {
				t.Fatalf("expected %q at %v, got %q", tt.want, tt.at, r)
			}
		})
	}

	_, _, st, _ := ss.GetContent(screenCell(grid.Coord{X: 1, Y: 1}, v.height))
	if _, bg, _ := st.Decompose(); bg != styleCursorB {
		t.Fatalf("expected the cursor background on (1, 1)")
	}
	if r, _, _, _ := ss.GetContent(0, 0); r != 't' {
		t.Fatalf("expected the hud to start with the tick, got %q", r)
	}
}
