// Package registry owns every live controller. It is the only write path
// into the controller collections.
package registry

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/milk9111/herbicide/archetype"
	"github.com/milk9111/herbicide/controller"
	"github.com/milk9111/herbicide/ecs"
	"github.com/milk9111/herbicide/grid"
	"github.com/milk9111/herbicide/model"
)

var (
	ErrLocked            = errors.New("registry: archetype is locked")
	ErrInsufficientFunds = errors.New("registry: insufficient funds")
	ErrNotPlaceable      = errors.New("registry: archetype cannot be placed")
)

// Gate decides whether a purchase may go ahead.
type Gate interface {
	IsUnlocked(t model.Type) bool
	Balance() int
}

// Counts are recomputed from the collections once per tick.
type Counts struct {
	EnemiesRemaining int `msgpack:"enemies_remaining"`
	ActiveEnemies    int `msgpack:"active_enemies"`
	SpawnedEnemies   int `msgpack:"spawned_enemies"`
	PlacedDefenders  int `msgpack:"placed_defenders"`
	Nexuses          int `msgpack:"nexuses"`
	Projectiles      int `msgpack:"projectiles"`
	Collectables     int `msgpack:"collectables"`
	Effects          int `msgpack:"effects"`
}

type Registry struct {
	catalog *archetype.Catalog
	world   *ecs.World
	graph   *grid.Graph
	gate    Gate
	log     *zap.Logger

	collections map[model.Type][]controller.Controller
	order       []model.Type
	pending     []controller.Controller
	handles     ecs.SparseSet[controller.Controller]
	snapshot    []*model.Model

	counts   Counts
	spawned  int
	combiner *Combiner
}

// New builds an empty registry. graph and gate may be nil; without a graph
// nothing can be placed and without a gate every purchase is allowed.
func New(catalog *archetype.Catalog, world *ecs.World, graph *grid.Graph, gate Gate, log *zap.Logger) *Registry {
	if catalog == nil || world == nil {
		panic("registry: catalog and world are required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{
		catalog:     catalog,
		world:       world,
		graph:       graph,
		gate:        gate,
		log:         log,
		collections: map[model.Type][]controller.Controller{},
	}
	r.combiner = newCombiner(r)
	return r
}

func (r *Registry) Catalog() *archetype.Catalog { return r.catalog }
func (r *Registry) Graph() *grid.Graph          { return r.graph }
func (r *Registry) Combiner() *Combiner         { return r.combiner }

// SetGate swaps the purchase gate.
func (r *Registry) SetGate(g Gate) { r.gate = g }

// Create builds a controller for t and stages it for the next tick.
// Projectiles and collectables need construction parameters and must go
// through AddPrebuilt instead.
func (r *Registry) Create(t model.Type, opts ...controller.Option) (controller.Controller, error) {
	tbl, ok := r.catalog.Table(t)
	if !ok {
		return nil, fmt.Errorf("registry: create %s: %w", t, archetype.ErrUnknownArchetype)
	}
	if tbl.Category.Prebuilt() {
		panic(fmt.Sprintf("registry: %s controllers must be added with AddPrebuilt", tbl.Category))
	}
	c, err := r.catalog.New(t, opts...)
	if err != nil {
		return nil, err
	}
	r.enqueue(c)
	return c, nil
}

// AddPrebuilt stages a controller the caller already constructed.
func (r *Registry) AddPrebuilt(c controller.Controller) {
	if c == nil || c.Model() == nil {
		panic("registry: AddPrebuilt with nil controller")
	}
	m := c.Model()
	if !m.Category.Prebuilt() {
		panic(fmt.Sprintf("registry: %s controllers must be built with Create", m.Category))
	}
	if r.handles.Has(m.ID) {
		panic(fmt.Sprintf("registry: controller %s added twice", m.ID))
	}
	r.enqueue(c)
}

func (r *Registry) enqueue(c controller.Controller) {
	m := c.Model()
	m.ID = r.world.CreateEntity()
	r.handles.Set(m.ID, c)
	r.pending = append(r.pending, c)
	if m.Category == model.CategoryEnemy {
		r.spawned++
	}
	r.world.Emit(ecs.Event{Kind: ecs.EventCreated, Entity: m.ID, Type: string(m.Type), Value: m.Tier})
	r.log.Debug("controller created",
		zap.String("type", string(m.Type)), zap.Stringer("entity", m.ID), zap.Int("tier", m.Tier))
}

// Flush moves staged controllers into the live collections.
func (r *Registry) Flush() int {
	n := len(r.pending)
	for _, c := range r.pending {
		t := c.Model().Type
		if _, ok := r.collections[t]; !ok {
			r.addType(t)
		}
		r.collections[t] = append(r.collections[t], c)
	}
	clear(r.pending)
	r.pending = r.pending[:0]
	return n
}

// addType keeps order sorted by category update order, then by type name.
func (r *Registry) addType(t model.Type) {
	r.collections[t] = nil
	r.order = append(r.order, t)
	rank := func(t model.Type) int {
		tbl, ok := r.catalog.Table(t)
		if !ok {
			return len(model.Categories)
		}
		if i := slices.Index(model.Categories, tbl.Category); i >= 0 {
			return i
		}
		return len(model.Categories)
	}
	slices.SortStableFunc(r.order, func(a, b model.Type) int {
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra - rb
		}
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})
}

// RemoveDefunct partitions every collection, runs OnRemove on the defunct
// controllers and drops them in one batch. Controllers created by OnRemove
// are staged and become live on the next Flush.
func (r *Registry) RemoveDefunct(ctx *controller.Context) int {
	removed := 0
	var defunct []controller.Controller
	for _, t := range r.order {
		list := r.collections[t]
		kept := list[:0]
		defunct = defunct[:0]
		for _, c := range list {
			if c.ShouldBeRemoved() {
				defunct = append(defunct, c)
				continue
			}
			kept = append(kept, c)
		}
		if len(defunct) == 0 {
			continue
		}
		clear(list[len(kept):])
		r.collections[t] = kept
		for _, c := range defunct {
			id := c.Model().ID
			c.OnRemove(ctx)
			r.handles.Remove(id)
			r.world.DestroyEntity(id)
			removed++
		}
	}
	return removed
}

// Live returns the live controllers in update order.
func (r *Registry) Live() []controller.Controller {
	var out []controller.Controller
	for _, t := range r.order {
		out = append(out, r.collections[t]...)
	}
	return out
}

// Controllers returns a copy of the live collection for t.
func (r *Registry) Controllers(t model.Type) []controller.Controller {
	return slices.Clone(r.collections[t])
}

// Pending is the number of controllers staged for the next tick.
func (r *Registry) Pending() int { return len(r.pending) }

// Models rebuilds the model snapshot. The slice is reused between calls.
func (r *Registry) Models() []*model.Model {
	r.snapshot = r.snapshot[:0]
	for _, t := range r.order {
		for _, c := range r.collections[t] {
			r.snapshot = append(r.snapshot, c.Model())
		}
	}
	return r.snapshot
}

// Lookup finds a live or staged controller by handle.
func (r *Registry) Lookup(e ecs.Entity) (controller.Controller, bool) {
	if !r.world.IsAlive(e) {
		return nil, false
	}
	return r.handles.Get(e)
}

func (r *Registry) Counts() Counts { return r.counts }

func (r *Registry) recount() {
	c := Counts{SpawnedEnemies: r.spawned}
	tally := func(m *model.Model) {
		switch m.Category {
		case model.CategoryEnemy:
			if m.Dead() || m.Escaped() {
				return
			}
			c.EnemiesRemaining++
			if m.Spawned() {
				c.ActiveEnemies++
			}
		case model.CategoryDefender:
			if !m.Destroyed() {
				c.PlacedDefenders++
			}
		case model.CategoryStructure:
			if m.Type == model.TypeNexus && !m.CashedIn() {
				c.Nexuses++
			}
		case model.CategoryProjectile:
			c.Projectiles++
		case model.CategoryCollectable:
			c.Collectables++
		case model.CategoryEffect:
			c.Effects++
		}
	}
	for _, t := range r.order {
		for _, ctrl := range r.collections[t] {
			tally(ctrl.Model())
		}
	}
	for _, ctrl := range r.pending {
		tally(ctrl.Model())
	}
	r.counts = c
}

// Update runs one registry tick: flush staged creations, sweep defunct
// controllers, snapshot the models, then update every live controller and
// the combine pipeline. reserved is the number of enemies not yet released.
func (r *Registry) Update(ctx *controller.Context, reserved int) {
	r.Flush()
	r.recount()
	ctx.EnemiesLeft = r.counts.EnemiesRemaining + reserved
	r.RemoveDefunct(ctx)
	r.recount()
	ctx.SetModels(r.Models())
	for _, t := range r.order {
		for _, c := range r.collections[t] {
			c.Update(ctx)
		}
	}
	r.combiner.Update(ctx)
}

// Place creates a defender on a free floor tile and marks it occupied.
func (r *Registry) Place(t model.Type, at grid.Coord, opts ...controller.Option) (controller.Controller, error) {
	tbl, ok := r.catalog.Table(t)
	if !ok {
		return nil, fmt.Errorf("registry: place %s: %w", t, archetype.ErrUnknownArchetype)
	}
	if tbl.Category != model.CategoryDefender || r.graph == nil {
		return nil, fmt.Errorf("registry: place %s: %w", t, ErrNotPlaceable)
	}
	if err := r.graph.CanPlace(at); err != nil {
		return nil, fmt.Errorf("registry: place %s at %v: %w", t, at, err)
	}
	opts = append(opts, controller.WithPosition(r.graph.CoordinateToPosition(at)))
	c, err := r.Create(t, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.graph.PlaceOccupant(at, c.Model()); err != nil {
		panic(fmt.Sprintf("registry: tile %v rejected a checked placement: %v", at, err))
	}
	return c, nil
}

// Purchase places a defender bought through the gate, reports the cost as a
// purchase event and starts a combination when one becomes possible.
func (r *Registry) Purchase(t model.Type, at grid.Coord) (controller.Controller, error) {
	tbl, ok := r.catalog.Table(t)
	if !ok {
		return nil, fmt.Errorf("registry: purchase %s: %w", t, archetype.ErrUnknownArchetype)
	}
	if r.gate != nil {
		if !r.gate.IsUnlocked(t) {
			return nil, fmt.Errorf("registry: purchase %s: %w", t, ErrLocked)
		}
		if tbl.Stats.Cost > r.gate.Balance() {
			return nil, fmt.Errorf("registry: purchase %s for %d: %w", t, tbl.Stats.Cost, ErrInsufficientFunds)
		}
	}
	c, err := r.Place(t, at)
	if err != nil {
		return nil, err
	}
	m := c.Model()
	r.world.Emit(ecs.Event{Kind: ecs.EventPurchase, Entity: m.ID, Type: string(t), Value: tbl.Stats.Cost})
	r.log.Info("defender purchased", zap.String("type", string(t)), zap.Int("x", at.X), zap.Int("y", at.Y), zap.Int("cost", tbl.Stats.Cost))
	r.combiner.Check(m)
	return c, nil
}

// WillTriggerCombination reports whether placing one more t of tier would
// start a combination.
func (r *Registry) WillTriggerCombination(t model.Type, tier int) bool {
	tbl, ok := r.catalog.Table(t)
	if !ok || tbl.Category != model.CategoryDefender {
		return false
	}
	if tbl.Stats.MaxTier > 0 && tier >= tbl.Stats.MaxTier {
		return false
	}
	return len(r.combinable(t, tier, nil)) >= CombineCount-1
}

// combinable lists placed defenders of t and tier that are free to combine,
// newest last. skip is excluded.
func (r *Registry) combinable(t model.Type, tier int, skip *model.Model) []controller.Controller {
	var out []controller.Controller
	match := func(c controller.Controller) {
		m := c.Model()
		if m == skip || m.Type != t || m.Tier != tier || m.Combining() || m.Destroyed() || c.Removed() {
			return
		}
		out = append(out, c)
	}
	for _, c := range r.collections[t] {
		match(c)
	}
	for _, c := range r.pending {
		match(c)
	}
	return out
}
