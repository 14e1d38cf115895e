package model

import (
	"image/color"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/herbicide/common"
	"github.com/milk9111/herbicide/ecs"
)

// FlashDuration is how long the damage flash lasts, in seconds.
const FlashDuration = 0.4

// HoldOffset is where a held model sits relative to its holder.
var HoldOffset = cp.Vector{X: 0, Y: 0.5}

// Model is the passive state of one simulated entity. Only the owning
// controller mutates it.
type Model struct {
	ID       ecs.Entity
	Type     Type
	Category Category
	Tier     int
	Stats    Stats
	Tint     color.RGBA

	position      cp.Vector
	layer         float64
	spawnPosition cp.Vector
	direction     Direction
	scale         float64
	color         color.RGBA

	health   float64
	cooldown float64
	flash    float64
	effects  []Effect

	spawned   bool
	escaped   bool
	exiting   bool
	exited    bool
	pickedUp  bool
	holder    ecs.Entity
	cashedIn  bool
	collected bool
	combining bool
	destroyed bool

	appearance Appearance
}

// New builds a model of type t at pos.
func New(t Type, category Category, stats Stats, pos cp.Vector) *Model {
	m := &Model{}
	m.reset(t, category, stats, pos)
	return m
}

func (m *Model) reset(t Type, category Category, stats Stats, pos cp.Vector) {
	*m = Model{
		Type:          t,
		Category:      category,
		Tier:          1,
		Stats:         stats,
		Tint:          common.White,
		position:      pos,
		spawnPosition: pos,
		scale:         1,
		color:         common.White,
		health:        stats.Health,
		appearance:    nopAppearance{},
	}
}

// Attach connects the model to a renderer collaborator.
func (m *Model) Attach(r Renderer) {
	if m == nil || r == nil {
		return
	}
	if a := r.Attach(m); a != nil {
		m.appearance = a
	}
	m.appearance.SetWorldPosition(m.position, m.layer)
	m.appearance.SetScale(m.scale)
	m.appearance.SetColor(m.color)
}

func (m *Model) Position() cp.Vector      { return m.position }
func (m *Model) SpawnPosition() cp.Vector { return m.spawnPosition }
func (m *Model) Layer() float64           { return m.layer }
func (m *Model) Direction() Direction     { return m.direction }
func (m *Model) Scale() float64           { return m.scale }
func (m *Model) Color() color.RGBA        { return m.color }

func (m *Model) SetPosition(p cp.Vector) {
	m.position = p
	m.appearance.SetWorldPosition(p, m.layer)
}

func (m *Model) SetLayer(layer float64) {
	m.layer = layer
	m.appearance.SetWorldPosition(m.position, layer)
}

func (m *Model) SetSpawnPosition(p cp.Vector) { m.spawnPosition = p }

func (m *Model) Face(d Direction) {
	if m.direction == d {
		return
	}
	m.direction = d
	m.appearance.SetDirection(d)
}

// FaceToward turns the model toward p. Facing is unchanged when p is the
// current position.
func (m *Model) FaceToward(p cp.Vector) {
	delta := p.Sub(m.position)
	if delta.X == 0 && delta.Y == 0 {
		return
	}
	m.Face(DirectionOf(delta))
}

func (m *Model) SetScale(s float64) {
	m.scale = s
	m.appearance.SetScale(s)
}

func (m *Model) SetColor(c color.RGBA) {
	m.color = c
	m.appearance.SetColor(c)
}

func (m *Model) Health() float64    { return m.health }
func (m *Model) MaxHealth() float64 { return m.Stats.Health }
func (m *Model) Dead() bool         { return m.Stats.Health > 0 && m.health <= 0 }

// AdjustHealth adds delta to health, clamped to [0, max]. Damage restarts the
// flash timer.
func (m *Model) AdjustHealth(delta float64) {
	if m == nil || delta == 0 {
		return
	}
	m.health = common.Clamp(m.health+delta, 0, m.Stats.Health)
	if delta < 0 {
		m.flash = FlashDuration
	}
}

// Speed is the movement speed after status effects.
func (m *Model) Speed() float64 { return m.Stats.Speed * m.speedFactor() }

// Cooldown is the remaining time before the main action is ready.
func (m *Model) Cooldown() float64 { return m.cooldown }

func (m *Model) SetCooldown(c float64) { m.cooldown = c }

// RestartCooldown puts the main action back on its full cooldown.
func (m *Model) RestartCooldown() { m.cooldown = m.Stats.Cooldown }

// StepCooldown ages the cooldown counter by dt.
func (m *Model) StepCooldown(dt float64) {
	if m.cooldown > 0 {
		m.cooldown -= dt
		if m.cooldown < 0 {
			m.cooldown = 0
		}
	}
}

func (m *Model) FlashRemaining() float64     { return m.flash }
func (m *Model) SetFlashRemaining(v float64) { m.flash = v }

func (m *Model) Spawned() bool { return m.spawned }
func (m *Model) SetSpawned()   { m.spawned = true }

func (m *Model) Escaped() bool { return m.escaped }
func (m *Model) Exiting() bool { return m.exiting }
func (m *Model) Exited() bool  { return m.exited }
func (m *Model) SetExiting()   { m.exiting = true }

// SetExited marks the model as having left the board.
func (m *Model) SetExited() {
	m.exited = true
	m.escaped = true
}

func (m *Model) Holdable() bool { return m.Stats.Holdable }
func (m *Model) PickedUp() bool { return m.pickedUp }

// Holder returns the entity carrying the model, or the zero entity.
func (m *Model) Holder() ecs.Entity { return m.holder }

// PickUp attaches the model to holder.
func (m *Model) PickUp(holder ecs.Entity) {
	m.pickedUp = true
	m.holder = holder
}

// Drop detaches the model from its holder.
func (m *Model) Drop() {
	m.pickedUp = false
	m.holder = 0
}

func (m *Model) CashedIn() bool { return m.cashedIn }
func (m *Model) CashIn()        { m.cashedIn = true }

func (m *Model) Collected() bool { return m.collected }
func (m *Model) Collect()        { m.collected = true }

// Combining is set while the model is part of an in-progress combination.
func (m *Model) Combining() bool     { return m.combining }
func (m *Model) SetCombining(v bool) { m.combining = v }

func (m *Model) Destroyed() bool { return m.destroyed }

// Destroy flags the model as no longer owned. It reports whether this call
// changed the flag.
func (m *Model) Destroy() bool {
	if m.destroyed {
		return false
	}
	m.destroyed = true
	return true
}

// Blocks reports whether the model blocks movement through its tile.
func (m *Model) Blocks() bool { return m.Stats.Blocks && !m.destroyed }

// TargetType implements Target.
func (m *Model) TargetType() Type { return m.Type }

// WorldPosition implements Target.
func (m *Model) WorldPosition() cp.Vector { return m.position }

// Targetable reports whether other controllers may interact with the model.
func (m *Model) Targetable() bool {
	if m == nil || m.destroyed || m.exited || m.cashedIn || m.collected {
		return false
	}
	if m.Category == CategoryEnemy && !m.spawned {
		return false
	}
	return !m.Dead()
}

// Entity implements Target.
func (m *Model) Entity() ecs.Entity { return m.ID }
