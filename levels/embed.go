package levels

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/milk9111/herbicide/grid"
	"github.com/milk9111/herbicide/model"
)

//go:embed *.json
var LevelsFS embed.FS

// Tile codes used in Level.Layers[0].
const (
	CodeNone      = 0
	CodeFloor     = 1
	CodeWall      = 2
	CodeNexusHole = 3
	CodeSpawnHole = 4
)

var codeKinds = map[int]model.Type{
	CodeFloor:     model.TypeTile,
	CodeWall:      model.TypeWall,
	CodeNexusHole: model.TypeNexusHole,
	CodeSpawnHole: model.TypeSpawnHole,
}

// Level is a parsed level file. Layers[0] holds one tile code per cell in
// row-major order with y increasing northward.
type Level struct {
	Name     string   `json:"name"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	TileSize float64  `json:"tile_size"`
	Layers   [][]int  `json:"layers"`
	Entities []Entity `json:"entities,omitempty"`
}

// Entity is a model placed by the level. Enemies carry a spawn delay in
// seconds; everything else is placed before the first tick.
type Entity struct {
	Type  string         `json:"type"`
	X     int            `json:"x"`
	Y     int            `json:"y"`
	Props map[string]any `json:"props,omitempty"`
}

func (e Entity) Coord() grid.Coord { return grid.Coord{X: e.X, Y: e.Y} }

// Delay returns the "delay" prop, or 0.
func (e Entity) Delay() float64 {
	if v, ok := e.Props["delay"].(float64); ok && v > 0 {
		return v
	}
	return 0
}

// Tier returns the "tier" prop, or 1.
func (e Entity) Tier() int {
	if v, ok := e.Props["tier"].(float64); ok && v >= 1 {
		return int(v)
	}
	return 1
}

// Load reads a level by name, preferring levels/<name>.json on disk over the
// embedded copy.
func Load(name string) (*Level, error) {
	clean := strings.TrimSuffix(filepath.Base(name), ".json") + ".json"
	data, err := os.ReadFile(filepath.Join("levels", clean))
	if err != nil {
		data, err = fs.ReadFile(LevelsFS, clean)
	}
	if err != nil {
		return nil, fmt.Errorf("levels: read %s: %w", clean, err)
	}
	return Parse(data)
}

// Parse decodes and validates level JSON.
func Parse(data []byte) (*Level, error) {
	var lvl Level
	if err := json.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("levels: unmarshal: %w", err)
	}
	if lvl.Width <= 0 || lvl.Height <= 0 {
		return nil, fmt.Errorf("levels: %q has invalid size %dx%d", lvl.Name, lvl.Width, lvl.Height)
	}
	if len(lvl.Layers) == 0 || len(lvl.Layers[0]) != lvl.Width*lvl.Height {
		return nil, fmt.Errorf("levels: %q tile layer must have %d cells", lvl.Name, lvl.Width*lvl.Height)
	}
	if lvl.TileSize <= 0 {
		lvl.TileSize = 1
	}
	for i, code := range lvl.Layers[0] {
		if _, ok := codeKinds[code]; !ok && code != CodeNone {
			return nil, fmt.Errorf("levels: %q unknown tile code %d at index %d", lvl.Name, code, i)
		}
	}
	return &lvl, nil
}

// Cells converts the tile layer into graph cells.
func (l *Level) Cells() []grid.Cell {
	cells := make([]grid.Cell, 0, len(l.Layers[0]))
	for i, code := range l.Layers[0] {
		kind, ok := codeKinds[code]
		if !ok {
			continue
		}
		cells = append(cells, grid.Cell{
			Coord: grid.Coord{X: i % l.Width, Y: i / l.Width},
			Kind:  kind,
		})
	}
	return cells
}

// Graph builds the tile graph for the level.
func (l *Level) Graph() *grid.Graph {
	return grid.NewGraph(l.TileSize, l.Cells())
}
