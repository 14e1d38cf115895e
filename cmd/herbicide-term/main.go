// Command herbicide-term plays a match in the terminal, or replays a
// recorded msgpack snapshot stream.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/milk9111/herbicide/controller"
	"github.com/milk9111/herbicide/grid"
	"github.com/milk9111/herbicide/prefabs"
	"github.com/milk9111/herbicide/sim"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	prefabDir := flag.String("prefabs", prefabs.Dir, "directory whose files override the embedded prefabs")
	levelName := flag.String("level", "", "level name (overrides config)")
	replay := flag.String("replay", "", "replay a recorded snapshot stream instead of playing")
	logFile := flag.String("log", "", "write logs to this file; logs are discarded when empty")
	ascii := flag.Bool("ascii", false, "draw letters instead of emoji")
	flag.Parse()

	prefabs.Dir = *prefabDir
	cfg, err := sim.LoadConfig()
	if err != nil {
		return err
	}
	if *levelName != "" {
		cfg.Level = *levelName
	}

	log := zap.NewNop()
	if *logFile != "" {
		cfg.Log.Output = *logFile
		if log, err = sim.NewLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}
	defer log.Sync()

	s, err := sim.New(cfg, log)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal setup: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("screen init: %w", err)
	}
	defer screen.Fini()

	v := &view{
		screen: screen,
		graph:  s.Graph(),
		height: s.Level().Height,
		ascii:  *ascii,
		shop:   shopItems(s.Catalog()),
	}

	if *replay != "" {
		f, err := os.Open(*replay)
		if err != nil {
			return err
		}
		defer f.Close()
		snaps, err := sim.ReadRecording(f)
		if err != nil {
			return err
		}
		v.shop = nil
		return playback(v, snaps, cfg.TickRate)
	}
	return play(v, s, log)
}

// pollEvents forwards screen events until the screen is finalized.
func pollEvents(screen tcell.Screen) <-chan tcell.Event {
	ch := make(chan tcell.Event, 32)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(ch)
				return
			}
			ch <- ev
		}
	}()
	return ch
}

type action int

const (
	actionNone action = iota
	actionQuit
	actionPause
	actionBuy
)

// handleKey applies a key press to the ui and reports what the loop must do.
func handleKey(ev *tcell.EventKey, u *ui, g *grid.Graph, shop int) action {
	move := grid.Coord{}
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return actionQuit
	case tcell.KeyUp:
		move.Y = 1
	case tcell.KeyDown:
		move.Y = -1
	case tcell.KeyLeft:
		move.X = -1
	case tcell.KeyRight:
		move.X = 1
	case tcell.KeyEnter:
		return actionBuy
	case tcell.KeyRune:
		switch r := ev.Rune(); {
		case r == 'q' || r == 'Q':
			return actionQuit
		case r == ' ':
			return actionPause
		case r == 'b':
			return actionBuy
		case r >= '1' && r <= '9':
			if i := int(r - '1'); i < shop {
				u.selected = i
			}
		}
	}
	if move != (grid.Coord{}) {
		if _, ok := g.TileAt(u.cursor.Add(move)); ok {
			u.cursor = u.cursor.Add(move)
		}
	}
	return actionNone
}

func play(v *view, s *sim.Simulation, log *zap.Logger) error {
	events := pollEvents(v.screen)
	ticker := time.NewTicker(time.Second / time.Duration(s.Config().TickRate))
	defer ticker.Stop()

	var u ui
	v.draw(s.Snapshot(), u)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				v.screen.Sync()
			case *tcell.EventKey:
				switch handleKey(ev, &u, v.graph, len(v.shop)) {
				case actionQuit:
					return nil
				case actionPause:
					u.paused = !u.paused
				case actionBuy:
					u.message = ""
					if len(v.shop) == 0 {
						break
					}
					item := v.shop[u.selected]
					if _, err := s.Purchase(item.Type, u.cursor); err != nil {
						u.message = padLabel(err.Error(), 40)
						log.Info("purchase refused", zap.String("type", string(item.Type)), zap.Error(err))
					}
				}
			}
			v.draw(s.Snapshot(), u)
		case <-ticker.C:
			if u.paused || s.GameState() != controller.Ongoing {
				continue
			}
			s.Tick()
			v.draw(s.Snapshot(), u)
		}
	}
}

func playback(v *view, snaps []sim.Snapshot, tickRate int) error {
	if len(snaps) == 0 {
		return errors.New("recording is empty")
	}
	events := pollEvents(v.screen)
	step := time.Second / time.Duration(tickRate)
	if len(snaps) > 1 && snaps[1].Tick > snaps[0].Tick {
		step *= time.Duration(snaps[1].Tick - snaps[0].Tick)
	}
	ticker := time.NewTicker(step)
	defer ticker.Stop()

	var u ui
	u.cursor = grid.Coord{X: -1, Y: -1}
	i := 0
	v.draw(snaps[i], u)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				v.screen.Sync()
			case *tcell.EventKey:
				switch handleKey(ev, &u, v.graph, 0) {
				case actionQuit:
					return nil
				case actionPause:
					u.paused = !u.paused
				}
			}
			v.draw(snaps[i], u)
		case <-ticker.C:
			if u.paused || i == len(snaps)-1 {
				continue
			}
			i++
			v.draw(snaps[i], u)
		}
	}
}
