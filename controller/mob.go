package controller

import (
	"fmt"

	"github.com/milk9111/herbicide/grid"
	"github.com/milk9111/herbicide/model"
)

// Action is one per-state behaviour. Actions registered through Capabilities
// are wrapped so they only run while their state is current.
type Action[S comparable] func(m *Mob[S], ctx *Context)

// Capabilities is the per-archetype table a Mob is driven by.
type Capabilities[S comparable] struct {
	Name    string
	Initial S
	// Invalid is the state forced while the mob is not valid.
	Invalid    S
	HasInvalid bool

	FindsTargets bool
	MaxTargets   int
	HoldingLimit int
	Policy       TargetPolicy
	Distance     DistanceMetric

	CanTarget  func(m *Mob[S], ctx *Context, t model.Target) bool
	Transition func(m *Mob[S], ctx *Context) S
	// States fixes the order actions are offered in.
	States    []S
	Actions   map[S][]Action[S]
	Valid     func(m *Mob[S]) bool
	OnDestroy func(m *Mob[S], ctx *Context)
	OnEnter   func(m *Mob[S], ctx *Context, from, to S)
}

// Mob is the generic finite-state controller shared by every active
// archetype.
type Mob[S comparable] struct {
	Base

	caps      *Capabilities[S]
	state     S
	animState S
	stateTime float64
	animTime  float64

	targets []model.Target
	held    []*model.Model
	cache   *grid.PathCache
	move    movement
	hop     float64

	Emission Sequence
}

// NewMob wraps m in a controller driven by caps.
func NewMob[S comparable](m *model.Model, pool *model.Pool, caps *Capabilities[S]) *Mob[S] {
	if caps == nil {
		panic("controller: nil capabilities")
	}
	if caps.Transition == nil {
		panic(fmt.Sprintf("controller: %s has no transition function", caps.Name))
	}
	mob := &Mob[S]{
		Base:      NewBase(m, pool),
		caps:      caps,
		state:     caps.Initial,
		animState: caps.Initial,
		cache:     grid.NewPathCache(),
	}
	mob.SetValidity(func() bool {
		return caps.Valid == nil || caps.Valid(mob)
	})
	mob.SetOnDestroy(func(ctx *Context) {
		mob.Emission.Cancel()
		mob.ReleaseHeld()
		if caps.OnDestroy != nil {
			caps.OnDestroy(mob, ctx)
		}
	})
	return mob
}

func (m *Mob[S]) Capabilities() *Capabilities[S] { return m.caps }
func (m *Mob[S]) State() S                       { return m.state }
func (m *Mob[S]) StateTime() float64             { return m.stateTime }
func (m *Mob[S]) AnimationState() S              { return m.animState }
func (m *Mob[S]) AnimationTime() float64         { return m.animTime }
func (m *Mob[S]) PathCache() *grid.PathCache     { return m.cache }

// SetState switches state and restarts the state timer when s differs from
// the current state.
func (m *Mob[S]) SetState(ctx *Context, s S) {
	if s == m.state {
		return
	}
	from := m.state
	m.state = s
	m.stateTime = 0
	if m.caps.OnEnter != nil {
		m.caps.OnEnter(m, ctx, from, s)
	}
}

// HopReady reports whether the hop cooldown has run out.
func (m *Mob[S]) HopReady() bool { return m.hop <= 0 }

func (m *Mob[S]) RestartHop() { m.hop = m.Model().Stats.HopCooldown }

// Update runs one tick: effects, flash, targets, transition, pending
// emissions, actions and timers, in that order.
func (m *Mob[S]) Update(ctx *Context) {
	if !m.Valid() {
		if m.caps.HasInvalid {
			m.SetState(ctx, m.caps.Invalid)
		}
		return
	}
	m.Base.Update(ctx)
	m.updateFlash(ctx.DT)
	m.RefreshTargets(ctx)
	if ctx.Grid != nil {
		m.cache.Sync(ctx.Grid)
	}

	m.SetState(ctx, m.caps.Transition(m, ctx))
	m.Emission.Step(ctx.DT)
	m.act(ctx)
	m.syncHeld(ctx)

	m.Model().StepCooldown(ctx.DT)
	if m.hop > 0 {
		m.hop -= ctx.DT
	}
	m.stateTime += ctx.DT
	m.syncAnimation(ctx.DT)
}

func (m *Mob[S]) act(ctx *Context) {
	for _, s := range m.caps.States {
		for _, a := range m.caps.Actions[s] {
			if m.state != s {
				break
			}
			a(m, ctx)
		}
	}
}

// syncAnimation restarts the animation clock when the visual track changes.
func (m *Mob[S]) syncAnimation(dt float64) {
	if m.animState != m.state {
		m.animState = m.state
		m.animTime = 0
		return
	}
	m.animTime += dt
}

// CanAct reports whether the mob may start an attack in fireState. A model
// waiting to be combined never acts.
func (m *Mob[S]) CanAct(fireState S) bool {
	if m.Model().Cooldown() > 0 || m.state != fireState || m.Model().Combining() {
		return false
	}
	t := m.Target()
	return t != nil && t.Targetable()
}
