package controller

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/herbicide/common"
)

// arrivalEpsilon is the distance under which a mob counts as arrived.
const arrivalEpsilon = 0.01

// minPopScale keeps a popping-out mob visible on its first frame.
const minPopScale = 0.05

type movement struct {
	next    cp.Vector
	hasNext bool

	from     cp.Vector
	total    float64
	progress float64
	arcScale float64
	fall     float64
}

// SetNextMovePos sets the next waypoint and restarts every movement style's
// progress from the current position.
func (m *Mob[S]) SetNextMovePos(p cp.Vector) {
	pos := m.Model().Position()
	d := pos.Distance(p)
	m.move = movement{next: p, hasNext: true, from: pos, total: d}
	if d > 0 {
		m.move.arcScale = m.Model().Speed() / d
	}
}

// NextMovePos is the pending waypoint.
func (m *Mob[S]) NextMovePos() (cp.Vector, bool) { return m.move.next, m.move.hasNext }

// ReachedMovementTarget is true with no waypoint or when within
// arrivalEpsilon of it.
func (m *Mob[S]) ReachedMovementTarget() bool {
	if !m.move.hasNext {
		return true
	}
	return m.Model().Position().Distance(m.move.next) < arrivalEpsilon
}

// MoveLinear steps toward the waypoint at the model's speed.
func (m *Mob[S]) MoveLinear(ctx *Context) {
	m.moveToward(m.Model().Speed() * ctx.DT)
}

func (m *Mob[S]) moveToward(step float64) float64 {
	if !m.move.hasNext {
		return 0
	}
	model := m.Model()
	pos := model.Position()
	delta := m.move.next.Sub(pos)
	d := delta.Length()
	if d <= step || d < arrivalEpsilon {
		model.SetPosition(m.move.next)
		return 0
	}
	model.FaceToward(m.move.next)
	model.SetPosition(pos.Add(delta.Mult(step / d)))
	return d - step
}

// MoveParabolic follows an arc from the position at SetNextMovePos time to
// the waypoint. The arc peaks at Stats.ArcHeight.
func (m *Mob[S]) MoveParabolic(ctx *Context) {
	if !m.move.hasNext {
		return
	}
	model := m.Model()
	if m.move.arcScale <= 0 {
		model.SetPosition(m.move.next)
		return
	}
	m.move.progress = math.Min(1, m.move.progress+ctx.DT*m.move.arcScale)
	if m.move.progress >= 1 {
		model.SetPosition(m.move.next)
		return
	}
	base := m.move.from.Lerp(m.move.next, m.move.progress)
	lift := math.Sin(math.Pi*m.move.progress) * model.Stats.ArcHeight
	model.FaceToward(m.move.next)
	model.SetPosition(base.Add(cp.Vector{Y: lift}))
}

// FallInto accelerates toward the waypoint while shrinking to nothing.
func (m *Mob[S]) FallInto(ctx *Context, accel float64) {
	m.move.fall += accel * ctx.DT
	left := m.moveToward((m.Model().Speed() + m.move.fall) * ctx.DT)
	if m.move.total <= 0 {
		m.Model().SetScale(0)
		return
	}
	m.Model().SetScale(common.Clamp(left/m.move.total, 0, 1))
}

// PopOut moves toward the waypoint at speed while growing to full size.
func (m *Mob[S]) PopOut(ctx *Context, speed float64) {
	left := m.moveToward(speed * ctx.DT)
	if m.move.total <= 0 {
		m.Model().SetScale(1)
		return
	}
	m.Model().SetScale(common.Clamp(1-left/m.move.total, minPopScale, 1))
}

// StepToward plans the next tile step toward goal once the current waypoint
// is reached. It reports whether a new waypoint was set.
func (m *Mob[S]) StepToward(ctx *Context, goal cp.Vector) bool {
	if !m.ReachedMovementTarget() || ctx.Grid == nil {
		return false
	}
	next := m.cache.NextStep(ctx.Grid, m.Model().Position(), goal)
	if next.Distance(m.Model().Position()) < arrivalEpsilon {
		return false
	}
	m.SetNextMovePos(next)
	return true
}
