package archetype

import (
	"fmt"
	"strings"

	"github.com/milk9111/herbicide/controller"
	"github.com/milk9111/herbicide/model"
)

// Condition is one transition guard.
type Condition func(m *Mob, ctx *controller.Context) bool

var conditionRegistry = map[string]func(t *Table) Condition{
	"always": func(*Table) Condition {
		return func(*Mob, *controller.Context) bool { return true }
	},
	"spawned": func(*Table) Condition {
		return func(m *Mob, _ *controller.Context) bool { return m.Model().Spawned() }
	},
	"spawn_done": func(*Table) Condition {
		return func(m *Mob, _ *controller.Context) bool {
			return m.StateTime() >= m.Model().Stats.SpawnTime
		}
	},
	"has_target": func(*Table) Condition {
		return func(m *Mob, _ *controller.Context) bool { return hasTarget(m) }
	},
	"target_in_attack_range": func(*Table) Condition {
		return func(m *Mob, ctx *controller.Context) bool {
			return hasTarget(m) && m.DistanceToTarget(ctx) <= m.Model().Stats.AttackRange
		}
	},
	"target_in_chase_range": func(*Table) Condition {
		return func(m *Mob, ctx *controller.Context) bool {
			return hasTarget(m) && m.DistanceToTarget(ctx) <= m.Model().Stats.ChaseRange
		}
	},
	"cooldown_ready": func(*Table) Condition {
		return func(m *Mob, _ *controller.Context) bool { return m.Model().Cooldown() <= 0 }
	},
	"hop_ready": func(*Table) Condition {
		return func(m *Mob, _ *controller.Context) bool { return m.HopReady() }
	},
	"holding": func(*Table) Condition {
		return func(m *Mob, _ *controller.Context) bool { return m.Holding() }
	},
	"can_hold": func(*Table) Condition {
		return func(m *Mob, _ *controller.Context) bool { return m.CanHold(m.Target()) }
	},
	"movement_done": func(*Table) Condition {
		return func(m *Mob, _ *controller.Context) bool { return m.ReachedMovementTarget() }
	},
	"on_nexus_hole": func(*Table) Condition {
		return func(m *Mob, ctx *controller.Context) bool {
			return m.ReachedMovementTarget() && onTileKind(m, ctx, model.TypeNexusHole)
		}
	},
	"picked_up": func(*Table) Condition {
		return func(m *Mob, _ *controller.Context) bool { return m.Model().PickedUp() }
	},
	"cashed_in": func(*Table) Condition {
		return func(m *Mob, _ *controller.Context) bool { return m.Model().CashedIn() }
	},
	"dead": func(*Table) Condition {
		return func(m *Mob, _ *controller.Context) bool { return m.Model().Dead() }
	},
	"expired": func(*Table) Condition {
		return func(m *Mob, _ *controller.Context) bool {
			l := m.Model().Stats.Lifespan
			return l > 0 && m.StateTime() >= l
		}
	},
	"emitting": func(*Table) Condition {
		return func(m *Mob, _ *controller.Context) bool { return m.Emission.Active() }
	},
	"game_over": func(*Table) Condition {
		return func(_ *Mob, ctx *controller.Context) bool { return ctx.GameState != controller.Ongoing }
	},
	"carrier_nearby": func(t *Table) Condition {
		return func(m *Mob, ctx *controller.Context) bool {
			return t.catalog.NearestCarrier(m, ctx) != nil
		}
	},
}

func hasTarget(m *Mob) bool {
	t := m.Target()
	return t != nil && t.Targetable()
}

func onTileKind(m *Mob, ctx *controller.Context, kind model.Type) bool {
	if ctx.Grid == nil {
		return false
	}
	tile, ok := ctx.Grid.TileAtPosition(m.Model().Position())
	return ok && tile.Kind() == kind
}

// compileConditions resolves condition names. A leading "!" negates.
func compileConditions(t *Table, names []string) ([]Condition, error) {
	out := make([]Condition, 0, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		negate := strings.HasPrefix(name, "!")
		name = strings.TrimSpace(strings.TrimPrefix(name, "!"))
		maker, ok := conditionRegistry[name]
		if !ok {
			return nil, fmt.Errorf("unknown condition %q", name)
		}
		cond := maker(t)
		if negate {
			inner := cond
			cond = func(m *Mob, ctx *controller.Context) bool { return !inner(m, ctx) }
		}
		out = append(out, cond)
	}
	return out, nil
}

// NearestCarrier is the closest live carrier other than m that is neither
// escaping nor exiting, or nil.
func (c *Catalog) NearestCarrier(m *Mob, ctx *controller.Context) *model.Model {
	self := m.Model()
	var best *model.Model
	bestDist := 0.0
	for _, other := range ctx.Models {
		if other == self || !other.Targetable() || other.Escaped() || other.Exiting() {
			continue
		}
		if other.Category != model.CategoryEnemy || !c.IsCarrier(other.Type) {
			continue
		}
		d := m.DistanceTo(ctx, other)
		if best == nil || d < bestDist {
			best, bestDist = other, d
		}
	}
	return best
}
