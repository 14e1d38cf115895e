package main

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"go.uber.org/zap"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"

	"github.com/milk9111/herbicide/archetype"
	"github.com/milk9111/herbicide/controller"
	"github.com/milk9111/herbicide/grid"
	"github.com/milk9111/herbicide/sim"
)

const (
	baseWidth  = 1280
	baseHeight = 720
)

var background = color.RGBA{R: 0x1a, G: 0x22, B: 0x16, A: 0xff}

type Game struct {
	frames int

	cfg      sim.Config
	log      *zap.Logger
	sim      *sim.Simulation
	renderer *spriteRenderer
	board    board
	reloader *sim.Reloader

	face      ebtext.Face
	pauseUI   *ebitenui.UI
	clipboard bool

	shop     []*archetype.Table
	selected int
	cursor   grid.Coord
	message  string
	paused   bool
	quit     bool
}

func NewGame(cfg sim.Config, log *zap.Logger, watch bool) (*Game, error) {
	g := &Game{cfg: cfg, log: log, face: ebtext.NewGoXFace(basicfont.Face7x13)}
	if err := g.restart(); err != nil {
		return nil, err
	}
	if watch {
		r, err := sim.NewReloader(g.sim.Catalog(), log)
		if err != nil {
			log.Warn("prefab watcher unavailable", zap.Error(err))
		} else {
			g.reloader = r
		}
	}
	if err := clipboard.Init(); err != nil {
		log.Warn("clipboard unavailable", zap.Error(err))
	} else {
		g.clipboard = true
	}
	g.pauseUI = NewPauseUI(g)
	return g, nil
}

// restart builds a fresh match from the current config.
func (g *Game) restart() error {
	renderer := newSpriteRenderer()
	s, err := sim.New(g.cfg, g.log, sim.WithRenderer(renderer))
	if err != nil {
		return err
	}
	g.sim, g.renderer = s, renderer
	g.board = newBoard(s.Graph(), s.Level().Width, s.Level().Height, g.cfg.PixelsPerTile)
	g.shop = s.Catalog().Defenders()
	g.selected = 0
	g.message = ""
	g.paused = false
	if g.reloader != nil {
		g.reloader.Close()
		r, err := sim.NewReloader(s.Catalog(), g.log)
		if err != nil {
			g.log.Warn("prefab watcher unavailable", zap.Error(err))
		}
		g.reloader = r
	}
	return nil
}

func (g *Game) Close() {
	if g.reloader != nil {
		g.reloader.Close()
	}
}

func (g *Game) Update() error {
	g.frames++
	if g.quit {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.paused = !g.paused
	}
	if g.paused {
		g.pauseUI.Update()
		return nil
	}
	if g.reloader != nil {
		g.reloader.Poll()
	}

	g.handleInput()
	if g.sim.GameState() == controller.Ongoing {
		g.sim.Tick()
	}
	return nil
}

func (g *Game) handleInput() {
	for i := range g.shop {
		if inpututil.IsKeyJustPressed(ebiten.Key1 + ebiten.Key(i)) {
			g.selected = i
		}
	}

	mx, my := ebiten.CursorPosition()
	if c, ok := g.board.toCoord(float64(mx), float64(my)); ok {
		g.cursor = c
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
			g.buy()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		g.buy()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.copySummary()
	}
}

func (g *Game) buy() {
	if len(g.shop) == 0 {
		return
	}
	tbl := g.shop[g.selected]
	if _, err := g.sim.Purchase(tbl.Type, g.cursor); err != nil {
		g.message = err.Error()
		g.log.Info("purchase refused", zap.String("type", string(tbl.Type)), zap.Error(err))
		return
	}
	g.message = ""
}

func (g *Game) copySummary() {
	if !g.clipboard {
		g.message = "clipboard unavailable"
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(summary(g.sim.Snapshot())))
	g.message = "copied match summary"
}

// summary is a plain-text report of a snapshot.
func summary(snap sim.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "tick %d: %s\n", snap.Tick, snap.State)
	fmt.Fprintf(&b, "lives %d, balance %d\n", snap.Lives, snap.Balance)
	c := snap.Counts
	fmt.Fprintf(&b, "enemies %d remaining, %d spawned, %d reserved\n", c.EnemiesRemaining, c.SpawnedEnemies, snap.Reserved)
	fmt.Fprintf(&b, "defenders %d, nexuses %d\n", c.PlacedDefenders, c.Nexuses)
	for _, m := range snap.Models {
		fmt.Fprintf(&b, "  %s#%d tier %d at (%.2f, %.2f) %s\n", m.Type, m.Entity.Index(), m.Tier, m.X, m.Y, m.State)
	}
	return b.String()
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	g.board.drawTiles(screen, g.sim.Graph(), g.cursor)
	g.renderer.draw(screen, g.board)
	g.drawHUD(screen)
	if g.paused {
		g.pauseUI.Draw(screen)
	}
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	e := g.sim.Economy()
	counts := g.sim.Registry().Counts()
	lines := []string{
		fmt.Sprintf("%s  tick %d  FPS %.0f", g.sim.GameState(), g.sim.TickCount(), ebiten.ActualFPS()),
		fmt.Sprintf("lives %d  balance %d  enemies %d  reserved %d", e.Lives(), e.Balance(), counts.EnemiesRemaining, g.sim.Waves().Reserved()),
	}
	var shop []string
	for i, tbl := range g.shop {
		mark := " "
		if i == g.selected {
			mark = ">"
		}
		shop = append(shop, fmt.Sprintf("%s%d %s (%d)", mark, i+1, tbl.Type, tbl.Stats.Cost))
	}
	lines = append(lines, strings.Join(shop, "   "))
	if g.message != "" {
		lines = append(lines, g.message)
	}

	for i, line := range lines {
		op := &ebtext.DrawOptions{}
		op.GeoM.Translate(12, 12+float64(i)*16)
		op.ColorScale.ScaleWithColor(color.White)
		ebtext.Draw(screen, line, g.face, op)
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
