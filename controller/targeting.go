package controller

import (
	"fmt"
	"math"

	"github.com/milk9111/herbicide/model"
)

// TargetPolicy orders the two candidate pools during target refresh.
type TargetPolicy int

const (
	NonTilesFirst TargetPolicy = iota
	TilesFirst
	NonTilesOnly
	TilesOnly
)

// ParseTargetPolicy accepts the archetype table spelling of a policy. The
// empty string is NonTilesFirst.
func ParseTargetPolicy(s string) (TargetPolicy, error) {
	switch s {
	case "", "non_tiles_first":
		return NonTilesFirst, nil
	case "tiles_first":
		return TilesFirst, nil
	case "non_tiles_only":
		return NonTilesOnly, nil
	case "tiles_only":
		return TilesOnly, nil
	}
	return NonTilesFirst, fmt.Errorf("controller: unknown target policy %q", s)
}

// DistanceMetric selects how DistanceToTarget measures.
type DistanceMetric int

const (
	Euclidean DistanceMetric = iota
	PathSteps
)

func ParseDistanceMetric(s string) (DistanceMetric, error) {
	switch s {
	case "", "euclidean":
		return Euclidean, nil
	case "path":
		return PathSteps, nil
	}
	return Euclidean, fmt.Errorf("controller: unknown distance metric %q", s)
}

// RefreshTargets rebuilds the target list from the tick's model snapshot and
// the graph's tiles.
func (m *Mob[S]) RefreshTargets(ctx *Context) {
	clear(m.targets)
	m.targets = m.targets[:0]
	if !m.caps.FindsTargets || m.caps.MaxTargets <= 0 {
		return
	}
	switch m.caps.Policy {
	case TilesFirst:
		m.scanTiles(ctx)
		m.scanModels(ctx)
	case NonTilesOnly:
		m.scanModels(ctx)
	case TilesOnly:
		m.scanTiles(ctx)
	default:
		m.scanModels(ctx)
		m.scanTiles(ctx)
	}
}

func (m *Mob[S]) full() bool { return len(m.targets) >= m.caps.MaxTargets }

func (m *Mob[S]) scanModels(ctx *Context) {
	self := m.Model()
	for _, other := range ctx.Models {
		if m.full() {
			return
		}
		if other == self || !other.Targetable() {
			continue
		}
		if m.caps.CanTarget == nil || m.caps.CanTarget(m, ctx, other) {
			m.targets = append(m.targets, other)
		}
	}
}

func (m *Mob[S]) scanTiles(ctx *Context) {
	if ctx.Grid == nil {
		return
	}
	for _, t := range ctx.Grid.Tiles() {
		if m.full() {
			return
		}
		if m.caps.CanTarget != nil && m.caps.CanTarget(m, ctx, t) {
			m.targets = append(m.targets, t)
		}
	}
}

// AddTarget appends t. Adding to a full list or adding a target that fails
// the predicate panics.
func (m *Mob[S]) AddTarget(ctx *Context, t model.Target) {
	if m.full() {
		panic(fmt.Sprintf("controller: %s target list full (%d)", m.caps.Name, m.caps.MaxTargets))
	}
	if t == nil || !t.Targetable() || (m.caps.CanTarget != nil && !m.caps.CanTarget(m, ctx, t)) {
		panic(fmt.Sprintf("controller: %s cannot target %v", m.caps.Name, t))
	}
	m.targets = append(m.targets, t)
}

func (m *Mob[S]) Targets() []model.Target { return m.targets }

// Target is the first target, or nil.
func (m *Mob[S]) Target() model.Target {
	if len(m.targets) == 0 {
		return nil
	}
	return m.targets[0]
}

// IsTarget reports whether t is in the current target list.
func (m *Mob[S]) IsTarget(t model.Target) bool {
	for _, cur := range m.targets {
		if cur == t {
			return true
		}
	}
	return false
}

// DistanceToTarget measures to the first target in tiles. It returns +Inf
// without a target and for unreachable targets under PathSteps.
func (m *Mob[S]) DistanceToTarget(ctx *Context) float64 {
	t := m.Target()
	if t == nil {
		return math.Inf(1)
	}
	return m.DistanceTo(ctx, t)
}

func (m *Mob[S]) DistanceTo(ctx *Context, t model.Target) float64 {
	pos := m.Model().Position()
	if m.caps.Distance == PathSteps && ctx != nil && ctx.Grid != nil {
		d := m.cache.Distance(ctx.Grid, pos, t.WorldPosition())
		if d < 0 {
			return math.Inf(1)
		}
		return float64(d)
	}
	return pos.Distance(t.WorldPosition()) / ctx.TileSize()
}
