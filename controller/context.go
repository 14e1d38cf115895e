package controller

import (
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/milk9111/herbicide/ecs"
	"github.com/milk9111/herbicide/grid"
	"github.com/milk9111/herbicide/model"
)

// GameState is the match outcome snapshot handed to controllers each tick.
type GameState int

const (
	Ongoing GameState = iota
	Won
	Lost
)

func (s GameState) String() string {
	switch s {
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return "ongoing"
	}
}

// Options are the construction parameters accepted by Spawner.Create.
type Options struct {
	Position    cp.Vector
	HasPosition bool
	Tier        int
}

type Option func(*Options)

func WithPosition(p cp.Vector) Option {
	return func(o *Options) {
		o.Position = p
		o.HasPosition = true
	}
}

func WithTier(tier int) Option {
	return func(o *Options) { o.Tier = tier }
}

// ApplyOptions folds opts over the defaults.
func ApplyOptions(opts ...Option) Options {
	o := Options{Tier: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.Tier < 1 {
		o.Tier = 1
	}
	return o
}

// Spawner is the only write path into the controller collections.
// Controllers created during a tick become live on the next one.
type Spawner interface {
	Create(t model.Type, opts ...Option) (Controller, error)
	AddPrebuilt(c Controller)
}

// Effects spawns purely visual feedback.
type Effects interface {
	SpawnVisualBurst(kind string, pos cp.Vector, rotation float64)
}

type nopEffects struct{}

func (nopEffects) SpawnVisualBurst(string, cp.Vector, float64) {}

// Context is everything a controller may consult during one tick. Models is a
// read-only snapshot of the live models taken before controllers ran. The
// simulation reuses one Context across ticks.
type Context struct {
	DT        float64
	Tick      uint64
	GameState GameState
	Models    []*model.Model
	Grid      *grid.Graph
	World     *ecs.World
	Spawner   Spawner
	Effects   Effects
	Log       *zap.Logger
	// EnemiesLeft counts enemies still alive plus those not yet released.
	EnemiesLeft int

	index         map[ecs.Entity]*model.Model
	rewardClaimed bool
}

// Reset prepares a reused context for the next tick.
func (c *Context) Reset(dt float64, tick uint64, models []*model.Model) {
	c.DT = dt
	c.Tick = tick
	c.Models = models
	c.index = nil
}

// SetModels installs the tick's model snapshot.
func (c *Context) SetModels(models []*model.Model) {
	c.Models = models
	c.index = nil
}

// ClaimLevelReward reports true exactly once per context.
func (c *Context) ClaimLevelReward() bool {
	if c == nil || c.rewardClaimed {
		return false
	}
	c.rewardClaimed = true
	return true
}

// Logger never returns nil.
func (c *Context) Logger() *zap.Logger {
	if c == nil || c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

// Bursts never returns nil.
func (c *Context) Bursts() Effects {
	if c == nil || c.Effects == nil {
		return nopEffects{}
	}
	return c.Effects
}

// Find returns the live model with handle e, or nil.
func (c *Context) Find(e ecs.Entity) *model.Model {
	if c == nil || !e.Valid() {
		return nil
	}
	if c.index == nil {
		c.index = make(map[ecs.Entity]*model.Model, len(c.Models))
		for _, m := range c.Models {
			c.index[m.ID] = m
		}
	}
	return c.index[e]
}

// Alive reports whether m is still the model its handle names.
func (c *Context) Alive(m *model.Model) bool {
	if m == nil || m.Destroyed() {
		return false
	}
	if c == nil || c.World == nil {
		return true
	}
	return c.World.IsAlive(m.ID)
}

// Emit queues an event when a world is attached.
func (c *Context) Emit(evt ecs.Event) {
	if c == nil || c.World == nil {
		return
	}
	c.World.Emit(evt)
}

// TileSize is the graph's tile size, or 1 without a graph.
func (c *Context) TileSize() float64 {
	if c == nil || c.Grid == nil {
		return 1
	}
	return c.Grid.TileSize()
}
