// Package sim wires the archetype catalog, registry, tile graph and economy
// into a fixed-step simulation.
package sim

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/milk9111/herbicide/archetype"
	"github.com/milk9111/herbicide/controller"
	"github.com/milk9111/herbicide/ecs"
	"github.com/milk9111/herbicide/grid"
	"github.com/milk9111/herbicide/levels"
	"github.com/milk9111/herbicide/model"
	"github.com/milk9111/herbicide/registry"
)

type Option func(*Simulation)

// WithRenderer attaches r to every model the simulation builds.
func WithRenderer(r model.Renderer) Option {
	return func(s *Simulation) { s.renderer = r }
}

// WithLevel uses lvl instead of loading cfg.Level.
func WithLevel(lvl *levels.Level) Option {
	return func(s *Simulation) { s.level = lvl }
}

type Simulation struct {
	cfg      Config
	log      *zap.Logger
	renderer model.Renderer

	level   *levels.Level
	world   *ecs.World
	graph   *grid.Graph
	catalog *archetype.Catalog
	reg     *registry.Registry
	economy *Economy
	waves   *Waves
	ctx     *controller.Context
	systems *ecs.Scheduler[*Simulation]

	state  controller.GameState
	events []ecs.Event
	carry  []ecs.Event
}

// New loads the level and archetype tables and places the level's entities.
// Enemies are scheduled; everything else is staged for the first tick.
func New(cfg Config, log *zap.Logger, opts ...Option) (*Simulation, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Simulation{cfg: cfg, log: log, world: ecs.NewWorld()}
	for _, opt := range opts {
		opt(s)
	}
	if s.level == nil {
		lvl, err := levels.Load(cfg.Level)
		if err != nil {
			return nil, err
		}
		s.level = lvl
	}
	s.graph = s.level.Graph()

	policy, err := controller.ParseTargetPolicy(cfg.TargetingPolicy)
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	s.catalog = archetype.NewCatalog(model.NewPool(s.renderer), log)
	s.catalog.SetDefaultPolicy(policy)
	if err := s.catalog.Reload(); err != nil {
		return nil, err
	}

	s.economy = NewEconomy(cfg.Lives, cfg.Balance, cfg.UnlockedTypes(), log)
	s.reg = registry.New(s.catalog, s.world, s.graph, s.economy, log)
	s.ctx = &controller.Context{
		Grid:    s.graph,
		World:   s.world,
		Spawner: s.reg,
		Effects: &bursts{reg: s.reg, log: log},
		Log:     log,
	}

	releases, err := s.populate()
	if err != nil {
		return nil, err
	}
	s.waves = NewWaves(releases)
	s.systems = ecs.NewScheduler[*Simulation](
		ecs.SystemFunc[*Simulation](releaseSystem),
		ecs.SystemFunc[*Simulation](controllerSystem),
		ecs.SystemFunc[*Simulation](economySystem),
		ecs.SystemFunc[*Simulation](outcomeSystem),
	)
	log.Info("simulation ready",
		zap.String("level", s.level.Name), zap.Int("enemies", len(releases)), zap.Int("tick_rate", cfg.TickRate))
	return s, nil
}

func (s *Simulation) populate() ([]Release, error) {
	var releases []Release
	for _, e := range s.level.Entities {
		t := model.Type(e.Type)
		tbl, ok := s.catalog.Table(t)
		if !ok {
			return nil, fmt.Errorf("sim: level %s entity %s: %w", s.level.Name, e.Type, archetype.ErrUnknownArchetype)
		}
		pos := s.graph.CoordinateToPosition(e.Coord())
		switch tbl.Category {
		case model.CategoryEnemy:
			releases = append(releases, releaseFrom(e))
		case model.CategoryDefender:
			if _, err := s.reg.Place(t, e.Coord(), controller.WithTier(e.Tier())); err != nil {
				return nil, fmt.Errorf("sim: level %s: %w", s.level.Name, err)
			}
		case model.CategoryCollectable:
			c, err := s.catalog.NewCollectable(t, pos, controller.WithTier(e.Tier()))
			if err != nil {
				return nil, err
			}
			s.reg.AddPrebuilt(c)
		case model.CategoryProjectile:
			return nil, fmt.Errorf("sim: level %s places projectile %s", s.level.Name, t)
		default:
			if _, err := s.reg.Create(t, controller.WithPosition(pos), controller.WithTier(e.Tier())); err != nil {
				return nil, err
			}
		}
	}
	return releases, nil
}

// Tick advances the simulation by one fixed step.
func (s *Simulation) Tick() {
	tick := s.world.Advance()
	s.ctx.Reset(s.cfg.DT(), tick, nil)
	s.ctx.GameState = s.state
	s.systems.Update(s)
}

func releaseSystem(s *Simulation) {
	for _, r := range s.waves.Step(s.ctx.DT) {
		pos := s.graph.CoordinateToPosition(r.At)
		if _, err := s.reg.Create(r.Type, controller.WithPosition(pos), controller.WithTier(r.Tier)); err != nil {
			s.log.Error("enemy not released", zap.String("type", string(r.Type)), zap.Error(err))
		}
	}
}

func controllerSystem(s *Simulation) {
	s.reg.Update(s.ctx, s.waves.Reserved())
}

func economySystem(s *Simulation) {
	drained := s.world.Events().Drain()
	s.economy.Apply(drained)
	s.events = append(s.carry, drained...)
	s.carry = nil
}

func outcomeSystem(s *Simulation) {
	if s.state != controller.Ongoing {
		return
	}
	counts := s.reg.Counts()
	switch {
	case s.economy.Lives() <= 0:
		s.state = controller.Lost
	case s.waves.Reserved() == 0 && counts.SpawnedEnemies > 0 && counts.EnemiesRemaining == 0:
		s.state = controller.Won
	default:
		return
	}
	s.log.Info("match over",
		zap.Stringer("outcome", s.state), zap.Uint64("tick", s.ctx.Tick), zap.Int("lives", s.economy.Lives()), zap.Int("balance", s.economy.Balance()))
}

// Purchase buys a defender between ticks. Its events are applied to the
// economy at once and reported with the next tick's events.
func (s *Simulation) Purchase(t model.Type, at grid.Coord) (controller.Controller, error) {
	if s.state != controller.Ongoing {
		return nil, fmt.Errorf("sim: match is %s", s.state)
	}
	c, err := s.reg.Purchase(t, at)
	if err != nil {
		return nil, err
	}
	drained := s.world.Events().Drain()
	s.economy.Apply(drained)
	s.carry = append(s.carry, drained...)
	return c, nil
}

func (s *Simulation) Config() Config                  { return s.cfg }
func (s *Simulation) Level() *levels.Level            { return s.level }
func (s *Simulation) Graph() *grid.Graph              { return s.graph }
func (s *Simulation) Catalog() *archetype.Catalog     { return s.catalog }
func (s *Simulation) Registry() *registry.Registry    { return s.reg }
func (s *Simulation) Economy() *Economy               { return s.economy }
func (s *Simulation) Waves() *Waves                   { return s.waves }
func (s *Simulation) GameState() controller.GameState { return s.state }
func (s *Simulation) TickCount() uint64               { return s.world.Tick() }

// Events are the events drained during the last tick.
func (s *Simulation) Events() []ecs.Event { return s.events }
