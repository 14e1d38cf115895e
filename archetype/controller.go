package archetype

import (
	"fmt"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/milk9111/herbicide/controller"
	"github.com/milk9111/herbicide/ecs"
	"github.com/milk9111/herbicide/model"
)

// Controller is a Mob driven by a compiled table, optionally extended by a
// tengo script.
type Controller struct {
	*Mob
	table  *Table
	script *scriptRuntime
}

func (c *Controller) Table() *Table { return c.table }

// Busy reports whether a multi-step action is still running.
func (c *Controller) Busy() bool { return c.Emission.Active() }

// Update runs the table-driven tick, then the script's update.
func (c *Controller) Update(ctx *controller.Context) {
	c.Mob.Update(ctx)
	if c.script == nil || !c.Valid() {
		return
	}
	if err := c.script.update(c, ctx); err != nil {
		ctx.Logger().Warn("archetype script failed, disabling it",
			zap.String("archetype", c.table.Name), zap.Stringer("entity", c.Model().ID), zap.Error(err))
		c.script = nil
	}
}

// New builds a controller for t. It does not register it anywhere.
func (c *Catalog) New(t model.Type, opts ...controller.Option) (*Controller, error) {
	tbl, ok := c.tables[t]
	if !ok {
		return nil, fmt.Errorf("archetype: %s: %w", t, ErrUnknownArchetype)
	}
	return tbl.instantiate(controller.ApplyOptions(opts...))
}

// NewProjectile builds a projectile at from aimed at to.
func (c *Catalog) NewProjectile(t model.Type, from, to cp.Vector, opts ...controller.Option) (*Controller, error) {
	tbl, ok := c.tables[t]
	if !ok {
		return nil, fmt.Errorf("archetype: projectile %s: %w", t, ErrUnknownArchetype)
	}
	if tbl.Category != model.CategoryProjectile {
		return nil, fmt.Errorf("archetype: %s is a %s, not a projectile", t, tbl.Category)
	}
	o := controller.ApplyOptions(opts...)
	o.Position, o.HasPosition = from, true
	ctrl, err := tbl.instantiate(o)
	if err != nil {
		return nil, err
	}
	ctrl.Model().FaceToward(to)
	ctrl.SetNextMovePos(to)
	return ctrl, nil
}

// NewCollectable builds a collectable at pos.
func (c *Catalog) NewCollectable(t model.Type, pos cp.Vector, opts ...controller.Option) (*Controller, error) {
	tbl, ok := c.tables[t]
	if !ok {
		return nil, fmt.Errorf("archetype: collectable %s: %w", t, ErrUnknownArchetype)
	}
	if tbl.Category != model.CategoryCollectable {
		return nil, fmt.Errorf("archetype: %s is a %s, not a collectable", t, tbl.Category)
	}
	o := controller.ApplyOptions(opts...)
	o.Position, o.HasPosition = pos, true
	return tbl.instantiate(o)
}

func (t *Table) instantiate(o controller.Options) (*Controller, error) {
	pool := t.catalog.pool
	m := pool.Get(t.Type, t.Category, t.Stats, o.Position)
	m.Tint = t.Tint
	m.SetColor(t.Tint)
	m.Tier = o.Tier
	if t.Stats.MaxTier > 0 && m.Tier > t.Stats.MaxTier {
		m.Tier = t.Stats.MaxTier
	}
	ctrl := &Controller{Mob: controller.NewMob(m, pool, t.caps), table: t}
	if t.script != nil {
		rt, err := t.script.instance()
		if err != nil {
			pool.Put(m)
			return nil, fmt.Errorf("archetype: %s: %w", t.Name, err)
		}
		ctrl.script = rt
	}
	return ctrl, nil
}

// valid is the per-category liveness rule.
func (t *Table) valid(m *Mob) bool {
	md := m.Model()
	switch t.Category {
	case model.CategoryEnemy:
		if md.Escaped() || m.State() == t.Invalid {
			return false
		}
		if !md.Spawned() || t.Immune[m.State()] {
			return true
		}
		return !md.Dead()
	case model.CategoryStructure:
		return !md.CashedIn()
	case model.CategoryCollectable:
		return !md.Collected()
	case model.CategoryProjectile, model.CategoryEffect:
		return !t.Terminal[m.State()]
	default:
		return !md.Dead()
	}
}

// destroyed runs once when the registry removes an instance.
func (t *Table) destroyed(m *Mob, ctx *controller.Context) {
	md := m.Model()
	if ctx.Grid != nil {
		c := ctx.Grid.PositionToCoordinate(md.Position())
		if ctx.Grid.OccupantAt(c) == md {
			_, _ = ctx.Grid.RemoveOccupant(c)
		}
	}
	if t.Category != model.CategoryEnemy {
		return
	}
	switch {
	case md.Escaped():
		ctx.Emit(ecs.Event{Kind: ecs.EventLifeLost, Entity: md.ID, Type: string(md.Type), Value: md.Stats.LivesOnExit})
	case md.Dead():
		ctx.Emit(ecs.Event{Kind: ecs.EventCashIn, Entity: md.ID, Type: string(md.Type), Value: md.Stats.Value})
		if md.Stats.Drop != "" {
			t.drop(ctx, md.Stats.Drop, md.Position())
		}
		if ctx.EnemiesLeft <= 0 && ctx.ClaimLevelReward() {
			t.drop(ctx, model.TypeLevelReward, md.Position())
		}
	}
}

func (t *Table) drop(ctx *controller.Context, typ model.Type, pos cp.Vector) {
	if ctx.Spawner == nil {
		return
	}
	c, err := t.catalog.NewCollectable(typ, pos)
	if err != nil {
		ctx.Logger().Warn("drop not built", zap.String("archetype", t.Name), zap.Error(err))
		return
	}
	ctx.Spawner.AddPrebuilt(c)
}
