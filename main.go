package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/milk9111/herbicide/prefabs"
	"github.com/milk9111/herbicide/sim"
)

func main() {
	prefabDir := flag.String("prefabs", prefabs.Dir, "directory whose files override the embedded prefabs")
	levelName := flag.String("level", "", "level name in levels/ (overrides config)")
	watch := flag.Bool("watch", false, "reload archetype tables when prefab files change")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	flag.Parse()

	prefabs.Dir = *prefabDir
	cfg, err := sim.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if *levelName != "" {
		cfg.Level = *levelName
	}
	logger, err := sim.NewLogger(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("herbicide")
	// One simulation tick per update.
	ebiten.SetTPS(cfg.TickRate)

	game, err := NewGame(cfg, logger, *watch)
	if err != nil {
		logger.Fatal("start game", zap.Error(err))
	}
	defer game.Close()

	if err := ebiten.RunGame(game); err != nil {
		logger.Error("game stopped", zap.Error(err))
	}
}
