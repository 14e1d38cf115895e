// Command herbicide-sim runs a match headless. It can record msgpack
// snapshots to a file and stream them to websocket spectators, who may send
// purchase commands back.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/milk9111/herbicide/controller"
	"github.com/milk9111/herbicide/grid"
	"github.com/milk9111/herbicide/model"
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
	serve := flag.Bool("serve", false, "stream snapshots to websocket spectators; implies -realtime")
	listen := flag.String("listen", "", "websocket listen address (overrides config)")
	record := flag.String("record", "", "write msgpack snapshots to this file (overrides config)")
	maxTicks := flag.Int("ticks", 0, "stop after this many ticks; 0 runs until the match is over")
	realtime := flag.Bool("realtime", false, "pace ticks at the configured tick rate")
	watch := flag.Bool("watch", false, "reload archetype tables when prefab files change")
	every := flag.Int("every", 2, "broadcast and record every n ticks")
	flag.Parse()

	prefabs.Dir = *prefabDir
	cfg, err := sim.LoadConfig()
	if err != nil {
		return err
	}
	if *levelName != "" {
		cfg.Level = *levelName
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *record != "" {
		cfg.Record = *record
	}
	if *serve {
		*realtime = true
	}

	log, err := sim.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	s, err := sim.New(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var rec *sim.Recorder
	if cfg.Record != "" {
		f, err := os.Create(cfg.Record)
		if err != nil {
			return fmt.Errorf("record: %w", err)
		}
		defer f.Close()
		rec = sim.NewRecorder(f, *every)
	}

	var hub *Hub
	if *serve && cfg.Listen != "" {
		hub = NewHub(log)
		srv := &http.Server{Addr: cfg.Listen, Handler: hub}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("websocket server stopped", zap.Error(err))
			}
		}()
		defer func() {
			hub.Close()
			shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdown)
		}()
		log.Info("spectator feed listening", zap.String("addr", cfg.Listen))
	}

	var reloader *sim.Reloader
	if *watch {
		reloader, err = sim.NewReloader(s.Catalog(), log)
		if err != nil {
			log.Warn("prefab watcher unavailable", zap.Error(err))
		} else {
			defer reloader.Close()
		}
	}

	var pace <-chan time.Time
	if *realtime {
		ticker := time.NewTicker(time.Second / time.Duration(cfg.TickRate))
		defer ticker.Stop()
		pace = ticker.C
	}

	// Keep ticking briefly after the outcome so closing animations reach the feed.
	linger := cfg.TickRate
	for n := 0; *maxTicks == 0 || n < *maxTicks; n++ {
		if pace != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-pace:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		if hub != nil {
			applyCommands(s, hub, log)
		}
		if reloader != nil {
			reloader.Poll()
		}
		s.Tick()

		if rec != nil || (hub != nil && hub.Len() > 0) {
			snap := s.Snapshot()
			if rec != nil {
				if err := rec.Record(snap); err != nil {
					return err
				}
			}
			if hub != nil && snap.Tick%uint64(max(*every, 1)) == 0 {
				data, err := snap.Encode()
				if err != nil {
					return err
				}
				hub.Broadcast(data)
			}
		}

		if s.GameState() != controller.Ongoing {
			if linger == 0 {
				break
			}
			linger--
		}
	}

	counts := s.Registry().Counts()
	log.Info("run finished",
		zap.Stringer("outcome", s.GameState()),
		zap.Uint64("ticks", s.TickCount()),
		zap.Int("lives", s.Economy().Lives()),
		zap.Int("balance", s.Economy().Balance()),
		zap.Int("spawned", counts.SpawnedEnemies),
		zap.Int("remaining", counts.EnemiesRemaining))
	if rec != nil {
		log.Info("recording written", zap.String("file", cfg.Record), zap.Int("snapshots", rec.Written()))
	}
	return nil
}

func applyCommands(s *sim.Simulation, hub *Hub, log *zap.Logger) {
	for {
		select {
		case cmd := <-hub.Commands:
			if cmd.Type != "buy" {
				log.Debug("unknown command", zap.String("type", cmd.Type))
				continue
			}
			at := grid.Coord{X: cmd.X, Y: cmd.Y}
			if _, err := s.Purchase(model.Type(cmd.Buy), at); err != nil {
				log.Info("purchase refused", zap.String("type", cmd.Buy), zap.Int("x", cmd.X), zap.Int("y", cmd.Y), zap.Error(err))
			}
		default:
			return
		}
	}
}
