package main

import (
	"fmt"
	"sort"

	"github.com/gdamore/tcell/v2"
	"github.com/jakecoffman/cp"
	"github.com/mattn/go-runewidth"

	"github.com/milk9111/herbicide/archetype"
	"github.com/milk9111/herbicide/grid"
	"github.com/milk9111/herbicide/model"
	"github.com/milk9111/herbicide/sim"
)

const (
	cellWidth = 2
	hudRows   = 3
)

var emojiGlyphs = map[model.Type]string{
	model.TypeKudzu:       "🌿",
	model.TypeKnotwood:    "🌳",
	model.TypeSquirrel:    "🐹",
	model.TypeBear:        "🐻",
	model.TypeRaccoon:     "🦝",
	model.TypeNexus:       "🏠",
	model.TypeAcorn:       "🌰",
	model.TypeBlackberry:  "🫐",
	model.TypeRaspberry:   "🍓",
	model.TypeSalmonberry: "🍊",
	model.TypeDew:         "💧",
	model.TypeLevelReward: "💰",
	model.TypeBurst:       "✨",
}

var asciiGlyphs = map[model.Type]string{
	model.TypeKudzu:       "k",
	model.TypeKnotwood:    "K",
	model.TypeSquirrel:    "s",
	model.TypeBear:        "B",
	model.TypeRaccoon:     "r",
	model.TypeNexus:       "@",
	model.TypeAcorn:       "o",
	model.TypeBlackberry:  "*",
	model.TypeRaspberry:   "%",
	model.TypeSalmonberry: "&",
	model.TypeDew:         "~",
	model.TypeLevelReward: "$",
	model.TypeBurst:       "+",
}

var tileGlyphs = map[model.Type]rune{
	model.TypeTile:      '.',
	model.TypeWall:      '#',
	model.TypeNexusHole: 'O',
	model.TypeSpawnHole: 'X',
}

// layer orders models drawn on the same cell; higher layers win.
var layer = map[model.Category]int{
	model.CategoryEffect:      0,
	model.CategoryCollectable: 1,
	model.CategoryStructure:   2,
	model.CategoryDefender:    3,
	model.CategoryEnemy:       4,
	model.CategoryProjectile:  5,
}

var (
	styleHUD     = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleDim     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleWall    = tcell.StyleDefault.Foreground(tcell.ColorOlive)
	styleHole    = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	styleWon     = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleLost    = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleSelect  = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorAqua)
	styleCursorB = tcell.ColorNavy
)

// shopItem is a defender the player can buy.
type shopItem struct {
	Type model.Type
	Cost int
}

func shopItems(cat *archetype.Catalog) []shopItem {
	var out []shopItem
	for _, tbl := range cat.Defenders() {
		out = append(out, shopItem{Type: tbl.Type, Cost: tbl.Stats.Cost})
	}
	return out
}

func glyphFor(t model.Type, ascii bool) string {
	table := emojiGlyphs
	if ascii {
		table = asciiGlyphs
	}
	if g, ok := table[t]; ok {
		return g
	}
	return "?"
}

// padLabel fits s into exactly w display columns.
func padLabel(s string, w int) string {
	return runewidth.FillRight(runewidth.Truncate(s, w, ""), w)
}

// screenCell maps a grid coordinate to the left column and row of its cell.
// Rows grow downward while y grows northward.
func screenCell(c grid.Coord, height int) (int, int) {
	return c.X * cellWidth, hudRows + height - 1 - c.Y
}

type view struct {
	screen tcell.Screen
	graph  *grid.Graph
	height int
	ascii  bool
	shop   []shopItem
}

func (v *view) putText(x, y int, s string, st tcell.Style) {
	sw, _ := v.screen.Size()
	for _, r := range s {
		if x >= sw {
			break
		}
		v.screen.SetContent(x, y, r, nil, st)
		x += max(runewidth.RuneWidth(r), 1)
	}
}

// putGlyph draws glyph into a cell, padding narrow glyphs to the cell width.
func (v *view) putGlyph(x, y int, glyph string, st tcell.Style) {
	runes := []rune(glyph)
	if len(runes) == 0 {
		return
	}
	v.screen.SetContent(x, y, runes[0], runes[1:], st)
	if runewidth.StringWidth(glyph) < cellWidth {
		v.screen.SetContent(x+1, y, ' ', nil, st)
	}
}

type ui struct {
	cursor   grid.Coord
	selected int
	paused   bool
	message  string
}

func (v *view) draw(snap sim.Snapshot, u ui) {
	v.screen.Clear()
	v.drawHUD(snap, u)
	v.drawTiles(u)
	v.drawModels(snap, u)
	v.screen.Show()
}

func (v *view) drawHUD(snap sim.Snapshot, u ui) {
	st := styleHUD
	switch snap.State {
	case "won":
		st = styleWon
	case "lost":
		st = styleLost
	}
	status := snap.State
	if u.paused {
		status += " (paused)"
	}
	v.putText(0, 0, padLabel(fmt.Sprintf("tick %-6d %s", snap.Tick, status), 40), st)
	v.putText(0, 1, fmt.Sprintf("lives %d  balance %d  enemies %d  reserved %d",
		snap.Lives, snap.Balance, snap.Counts.EnemiesRemaining, snap.Reserved), styleHUD)

	x := 0
	for i, item := range v.shop {
		label := fmt.Sprintf("[%d] %s %d", i+1, item.Type, item.Cost)
		style := styleDim
		if i == u.selected {
			style = styleSelect
		}
		v.putText(x, 2, label, style)
		x += runewidth.StringWidth(label) + 2
	}
	if u.message != "" {
		v.putText(x, 2, u.message, styleLost)
	}
}

func (v *view) drawTiles(u ui) {
	for _, t := range v.graph.Tiles() {
		x, y := screenCell(t.Coord(), v.height)
		st := styleDim
		switch t.Kind() {
		case model.TypeWall:
			st = styleWall
		case model.TypeNexusHole, model.TypeSpawnHole:
			st = styleHole
		}
		if t.Coord() == u.cursor {
			st = st.Background(styleCursorB)
		}
		r, ok := tileGlyphs[t.Kind()]
		if !ok {
			r = ' '
		}
		v.screen.SetContent(x, y, r, nil, st)
		v.screen.SetContent(x+1, y, ' ', nil, st)
	}
}

func (v *view) drawModels(snap sim.Snapshot, u ui) {
	models := append([]sim.ModelState(nil), snap.Models...)
	sort.SliceStable(models, func(i, j int) bool { return layer[models[i].Category] < layer[models[j].Category] })
	for _, m := range models {
		if m.Held {
			continue
		}
		c := v.graph.PositionToCoordinate(cp.Vector{X: m.X, Y: m.Y})
		if _, ok := v.graph.TileAt(c); !ok {
			continue
		}
		x, y := screenCell(c, v.height)
		st := styleHUD
		if m.Color[3] > 0 {
			st = tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(m.Color[0]), int32(m.Color[1]), int32(m.Color[2])))
		}
		if c == u.cursor {
			st = st.Background(styleCursorB)
		}
		v.putGlyph(x, y, glyphFor(m.Type, v.ascii), st)
	}
}
