package archetype

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/milk9111/herbicide/common"
	"github.com/milk9111/herbicide/controller"
	"github.com/milk9111/herbicide/ecs"
	"github.com/milk9111/herbicide/grid"
	"github.com/milk9111/herbicide/model"
	"github.com/milk9111/herbicide/prefabs"
)

type Action = controller.Action[State]

// defaultFallAccel applies when a table sets no fall_accel.
const defaultFallAccel = 3.0

// minGrowScale keeps a spawning model visible.
const minGrowScale = 0.05

var actionRegistry = map[string]func(t *Table, arg any) (Action, error){
	"log": func(t *Table, arg any) (Action, error) {
		msg := fmt.Sprint(arg)
		return func(m *Mob, ctx *controller.Context) {
			ctx.Logger().Debug("archetype: "+msg, zap.String("archetype", t.Name), zap.Stringer("entity", m.Model().ID))
		}, nil
	},
	"set_spawned": func(*Table, any) (Action, error) {
		return func(m *Mob, _ *controller.Context) { m.Model().SetSpawned() }, nil
	},
	"grow": func(*Table, any) (Action, error) {
		return func(m *Mob, _ *controller.Context) {
			d := m.Model().Stats.SpawnTime
			if d <= 0 {
				m.Model().SetScale(1)
				return
			}
			m.Model().SetScale(common.Clamp(m.StateTime()/d, minGrowScale, 1))
		}, nil
	},
	"fade": func(*Table, any) (Action, error) {
		return func(m *Mob, _ *controller.Context) {
			l := m.Model().Stats.Lifespan
			if l <= 0 {
				return
			}
			m.Model().SetScale(common.Clamp(1-m.StateTime()/l, 0, 1))
		}, nil
	},
	"bob": func(*Table, any) (Action, error) {
		return func(m *Mob, _ *controller.Context) {
			m.Model().SetScale(1 + 0.05*math.Sin(2*math.Pi*m.AnimationTime()))
		}, nil
	},
	"halt": func(*Table, any) (Action, error) {
		return func(m *Mob, _ *controller.Context) { m.SetNextMovePos(m.Model().Position()) }, nil
	},
	"face_target": func(*Table, any) (Action, error) {
		return func(m *Mob, _ *controller.Context) {
			if t := m.Target(); t != nil {
				m.Model().FaceToward(t.WorldPosition())
			}
		}, nil
	},
	"burst": func(t *Table, arg any) (Action, error) {
		kind := t.Name
		if arg != nil {
			kind = fmt.Sprint(arg)
		}
		return func(m *Mob, ctx *controller.Context) {
			ctx.Bursts().SpawnVisualBurst(kind, m.Model().Position(), 0)
		}, nil
	},
	// step_out aims at the first walkable neighbour of the current tile.
	"step_out": func(*Table, any) (Action, error) {
		return func(m *Mob, ctx *controller.Context) {
			if ctx.Grid == nil {
				return
			}
			c := ctx.Grid.PositionToCoordinate(m.Model().Position())
			for _, n := range ctx.Grid.Neighbors(c) {
				if n.Walkable() {
					m.SetNextMovePos(n.WorldPosition())
					return
				}
			}
		}, nil
	},
	"pop_out": func(*Table, any) (Action, error) {
		return func(m *Mob, ctx *controller.Context) {
			md := m.Model()
			speed := md.Stats.EnteringSpeed
			if speed <= 0 {
				speed = md.Speed()
			}
			m.PopOut(ctx, speed)
			if m.ReachedMovementTarget() {
				md.SetScale(1)
				md.SetSpawned()
			}
		}, nil
	},
	"chase": func(t *Table, arg any) (Action, error) {
		move, err := moveStyle(arg)
		if err != nil {
			return nil, err
		}
		return func(m *Mob, ctx *controller.Context) {
			if tgt := m.Target(); tgt != nil && m.HopReady() && m.StepToward(ctx, tgt.WorldPosition()) {
				m.RestartHop()
			}
			move(m, ctx)
		}, nil
	},
	"escape": func(t *Table, arg any) (Action, error) {
		move, err := moveStyle(arg)
		if err != nil {
			return nil, err
		}
		return func(m *Mob, ctx *controller.Context) {
			hole := nearestTile(m, ctx, model.TypeNexusHole)
			if hole != nil && m.HopReady() && m.StepToward(ctx, hole.WorldPosition()) {
				m.RestartHop()
			}
			move(m, ctx)
		}, nil
	},
	// protect hops toward the nearest carrier ally.
	"protect": func(t *Table, arg any) (Action, error) {
		move, err := moveStyle(arg)
		if err != nil {
			return nil, err
		}
		return func(m *Mob, ctx *controller.Context) {
			if c := t.catalog.NearestCarrier(m, ctx); c != nil && m.HopReady() && m.StepToward(ctx, c.Position()) {
				m.RestartHop()
			}
			move(m, ctx)
		}, nil
	},
	// aim_tile_center sets the centre of the current tile as the waypoint.
	"aim_tile_center": func(*Table, any) (Action, error) {
		return func(m *Mob, ctx *controller.Context) {
			if ctx.Grid == nil {
				m.SetNextMovePos(m.Model().Position())
				return
			}
			c := ctx.Grid.PositionToCoordinate(m.Model().Position())
			m.SetNextMovePos(ctx.Grid.CoordinateToPosition(c))
		}, nil
	},
	"fall_in": func(t *Table, arg any) (Action, error) {
		mode := "exit"
		if arg != nil {
			mode = fmt.Sprint(arg)
		}
		if mode != "exit" && mode != "cash_in" {
			return nil, fmt.Errorf("fall_in: unknown mode %q", mode)
		}
		return func(m *Mob, ctx *controller.Context) {
			md := m.Model()
			accel := md.Stats.FallAccel
			if accel <= 0 {
				accel = defaultFallAccel
			}
			m.FallInto(ctx, accel)
			if !m.ReachedMovementTarget() {
				return
			}
			md.SetScale(0)
			switch mode {
			case "exit":
				if !md.Exited() {
					n := m.CashInHeld()
					md.SetExited()
					ctx.Logger().Debug("enemy escaped", zap.Stringer("entity", md.ID), zap.Int("stolen", n))
				}
			case "cash_in":
				md.CashIn()
			}
		}, nil
	},
	"set_exiting": func(*Table, any) (Action, error) {
		return func(m *Mob, _ *controller.Context) { m.Model().SetExiting() }, nil
	},
	"grab": func(t *Table, arg any) (Action, error) {
		return func(m *Mob, ctx *controller.Context) {
			if tgt := m.Target(); m.CanHold(tgt) {
				m.Hold(tgt)
				ctx.Bursts().SpawnVisualBurst("grab", m.Model().Position(), 0)
			}
		}, nil
	},
	"bonk": func(t *Table, arg any) (Action, error) {
		fire, err := fireState(t, arg)
		if err != nil {
			return nil, err
		}
		return func(m *Mob, ctx *controller.Context) {
			if !m.CanAct(fire) {
				return
			}
			md := m.Model()
			tgt := model.AsModel(m.Target())
			if tgt == nil {
				return
			}
			md.FaceToward(tgt.Position())
			tgt.AdjustHealth(-md.Stats.Damage * float64(md.Tier))
			if md.Stats.Effect != nil {
				tgt.AddEffect(*md.Stats.Effect)
			}
			md.RestartCooldown()
			ctx.Bursts().SpawnVisualBurst("bonk", tgt.Position(), 0)
		}, nil
	},
	"shoot": func(t *Table, arg any) (Action, error) {
		fire, err := fireState(t, arg)
		if err != nil {
			return nil, err
		}
		return func(m *Mob, ctx *controller.Context) {
			if !m.CanAct(fire) {
				return
			}
			md := m.Model()
			tgt := m.Target()
			handle := tgt.Entity()
			spawner := ctx.Spawner
			log := ctx.Logger()
			valid := func() bool {
				return !md.Destroyed() && tgt.Targetable() && tgt.Entity() == handle
			}
			emit := func(shot int) {
				p, err := t.catalog.NewProjectile(md.Stats.ProjectileFor(md.Tier, shot), md.Position(), tgt.WorldPosition(), controller.WithTier(md.Tier))
				if err != nil {
					log.Warn("projectile not built", zap.String("archetype", t.Name), zap.Error(err))
					return
				}
				if spawner != nil {
					spawner.AddPrebuilt(p)
				}
			}
			md.FaceToward(tgt.WorldPosition())
			m.Emission.Start(md.Stats.EmissionsForTier(md.Tier), md.Stats.EmissionDelay, valid, emit)
			md.RestartCooldown()
		}, nil
	},
	"fly": func(t *Table, arg any) (Action, error) {
		return moveStyle(arg)
	},
	"impact": func(t *Table, arg any) (Action, error) {
		return func(m *Mob, ctx *controller.Context) {
			md := m.Model()
			radius := md.Stats.SplashRadius
			if radius <= 0 {
				radius = 0.5
			}
			hit := 0
			for _, other := range ctx.Models {
				if other.Category != model.CategoryEnemy || !other.Targetable() {
					continue
				}
				if other.Position().Distance(md.Position())/ctx.TileSize() > radius {
					continue
				}
				other.AdjustHealth(-md.Stats.Damage * float64(md.Tier))
				if md.Stats.Effect != nil {
					other.AddEffect(*md.Stats.Effect)
				}
				hit++
				if md.Stats.SplashRadius <= 0 {
					break
				}
			}
			ctx.Bursts().SpawnVisualBurst(t.Name, md.Position(), 0)
			ctx.Logger().Debug("projectile impact", zap.String("archetype", t.Name), zap.Int("hit", hit))
		}, nil
	},
	"collect": func(t *Table, arg any) (Action, error) {
		return func(m *Mob, ctx *controller.Context) {
			md := m.Model()
			if md.Collected() {
				return
			}
			md.Collect()
			ctx.Emit(ecs.Event{Kind: ecs.EventCollected, Entity: md.ID, Type: string(md.Type), Value: md.Stats.Value * md.Tier})
		}, nil
	},
}

type fireArgs struct {
	State string `yaml:"state"`
}

// fireState reads the state an attack action may fire in: a bare state name
// or {state: ...}.
func fireState(t *Table, arg any) (State, error) {
	var name string
	switch v := arg.(type) {
	case nil:
	case string:
		name = v
	default:
		a, err := prefabs.DecodeArg[fireArgs](arg)
		if err != nil {
			return "", err
		}
		name = a.State
	}
	if name == "" {
		return "", fmt.Errorf("attack action needs the state it fires in")
	}
	if !t.hasState(State(name)) {
		return "", fmt.Errorf("fires in unknown state %q", name)
	}
	return State(name), nil
}

type moveArgs struct {
	Style string `yaml:"style"`
}

// moveStyle accepts "linear", "parabolic" or {style: ...}.
func moveStyle(arg any) (Action, error) {
	style := "linear"
	switch v := arg.(type) {
	case nil:
	case string:
		style = v
	default:
		a, err := prefabs.DecodeArg[moveArgs](arg)
		if err != nil {
			return nil, err
		}
		if a.Style != "" {
			style = a.Style
		}
	}
	switch style {
	case "linear":
		return func(m *Mob, ctx *controller.Context) { m.MoveLinear(ctx) }, nil
	case "parabolic":
		return func(m *Mob, ctx *controller.Context) { m.MoveParabolic(ctx) }, nil
	}
	return nil, fmt.Errorf("unknown movement style %q", style)
}

// nearestTile is the reachable tile of kind with the fewest path steps. Ties
// go to the first tile in graph order.
func nearestTile(m *Mob, ctx *controller.Context, kind model.Type) *grid.Tile {
	if ctx.Grid == nil {
		return nil
	}
	pos := m.Model().Position()
	var best *grid.Tile
	bestDist := 0
	for _, tile := range ctx.Grid.TilesOfKind(kind) {
		d := m.PathCache().Distance(ctx.Grid, pos, tile.WorldPosition())
		if d < 0 {
			continue
		}
		if best == nil || d < bestDist {
			best, bestDist = tile, d
		}
	}
	return best
}

// compileActions resolves a state's action list. Entries are a bare name or
// a one-key map of name to argument.
func compileActions(t *Table, raw []any) ([]Action, error) {
	out := make([]Action, 0, len(raw))
	for _, entry := range raw {
		switch v := entry.(type) {
		case string:
			a, err := buildAction(t, v, nil)
			if err != nil {
				return nil, err
			}
			out = append(out, a)
		case map[string]any:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				a, err := buildAction(t, k, v[k])
				if err != nil {
					return nil, err
				}
				out = append(out, a)
			}
		default:
			return nil, fmt.Errorf("invalid action entry %v", entry)
		}
	}
	return out, nil
}

func buildAction(t *Table, name string, arg any) (Action, error) {
	maker, ok := actionRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown action %q", name)
	}
	a, err := maker(t, arg)
	if err != nil {
		return nil, fmt.Errorf("action %s: %w", name, err)
	}
	return a, nil
}
