package archetype

import (
	"fmt"
	"math"

	"github.com/milk9111/herbicide/controller"
	"github.com/milk9111/herbicide/grid"
	"github.com/milk9111/herbicide/model"
)

type Predicate = func(m *Mob, ctx *controller.Context, t model.Target) bool

// matchers decide whether a candidate is of interest at all. The compiled
// predicate then keeps only the closest match.
var predicateRegistry = map[string]func(t *Table) func(m *Mob, ctx *controller.Context, cand model.Target) bool{
	"free_nexus": func(*Table) func(*Mob, *controller.Context, model.Target) bool {
		return func(m *Mob, _ *controller.Context, cand model.Target) bool {
			tm := model.AsModel(cand)
			if tm == nil || tm.Type != model.TypeNexus {
				return false
			}
			return !tm.PickedUp() || tm.Holder() == m.Model().ID
		}
	},
	"enemy": func(*Table) func(*Mob, *controller.Context, model.Target) bool {
		return func(_ *Mob, _ *controller.Context, cand model.Target) bool {
			tm := model.AsModel(cand)
			return tm != nil && tm.Category == model.CategoryEnemy && !tm.Exited()
		}
	},
	"nexus_hole": func(*Table) func(*Mob, *controller.Context, model.Target) bool {
		return func(m *Mob, ctx *controller.Context, cand model.Target) bool {
			tile, ok := cand.(*grid.Tile)
			if !ok || tile.Kind() != model.TypeNexusHole {
				return false
			}
			return ctx.Grid == nil || m.PathCache().Reachable(ctx.Grid, m.Model().Position(), tile.WorldPosition())
		}
	},
}

// compilePredicate builds a closest-match predicate. Ties go to the candidate
// met first in scan order, so the result is stable across ticks.
func compilePredicate(t *Table, name string) (Predicate, error) {
	if name == "" || name == "none" {
		return func(*Mob, *controller.Context, model.Target) bool { return false }, nil
	}
	maker, ok := predicateRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown target predicate %q", name)
	}
	match := maker(t)
	return func(m *Mob, ctx *controller.Context, cand model.Target) bool {
		if !cand.Targetable() || !match(m, ctx, cand) {
			return false
		}
		d := m.DistanceTo(ctx, cand)
		if math.IsInf(d, 1) {
			return false
		}
		before := true
		better := func(other model.Target) bool {
			if other == cand {
				before = false
				return false
			}
			if other.Entity() == m.Model().ID || !other.Targetable() || !match(m, ctx, other) {
				return false
			}
			od := m.DistanceTo(ctx, other)
			return od < d || (before && od == d)
		}
		for _, other := range ctx.Models {
			if better(other) {
				return false
			}
		}
		if ctx.Grid != nil {
			for _, tile := range ctx.Grid.Tiles() {
				if better(tile) {
					return false
				}
			}
		}
		return true
	}, nil
}
