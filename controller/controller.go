package controller

import (
	"go.uber.org/zap"

	"github.com/milk9111/herbicide/ecs"
	"github.com/milk9111/herbicide/model"
)

// Controller owns exactly one model and advances it once per tick.
type Controller interface {
	Model() *model.Model
	Valid() bool
	Update(ctx *Context)
	ShouldBeRemoved() bool
	OnRemove(ctx *Context)
	Removed() bool
}

// Base implements the lifecycle half of Controller. Concrete controllers
// embed it and supply liveness and on-destroy behaviour as closures.
type Base struct {
	model     *model.Model
	pool      *model.Pool
	removed   bool
	validFn   func() bool
	onDestroy func(ctx *Context)
}

// NewBase takes ownership of m. m is returned to pool on removal when pool is
// not nil.
func NewBase(m *model.Model, pool *model.Pool) Base {
	if m == nil {
		panic("controller: nil model")
	}
	return Base{model: m, pool: pool}
}

func (b *Base) Model() *model.Model { return b.model }
func (b *Base) Removed() bool       { return b.removed }

// SetValidity installs the archetype liveness check.
func (b *Base) SetValidity(fn func() bool) { b.validFn = fn }

// SetOnDestroy installs the one-time on-destroy hook.
func (b *Base) SetOnDestroy(fn func(ctx *Context)) { b.onDestroy = fn }

func (b *Base) Valid() bool {
	if b.removed || b.model.Destroyed() {
		return false
	}
	if b.validFn != nil {
		return b.validFn()
	}
	return true
}

func (b *Base) ShouldBeRemoved() bool { return !b.Valid() }

// Update advances status effects. It does nothing for invalid controllers.
func (b *Base) Update(ctx *Context) {
	if !b.Valid() {
		return
	}
	b.model.UpdateEffects(ctx.DT)
}

// OnRemove runs the on-destroy hook, flags the model destroyed and returns it
// to its pool. Calls after the first are no-ops.
func (b *Base) OnRemove(ctx *Context) {
	if b.removed {
		return
	}
	b.removed = true
	if b.onDestroy != nil {
		b.onDestroy(ctx)
	}
	m := b.model
	m.Destroy()
	ctx.Emit(ecs.Event{Kind: ecs.EventRemoved, Entity: m.ID, Type: string(m.Type)})
	ctx.Logger().Debug("controller removed", zap.Stringer("entity", m.ID), zap.String("type", string(m.Type)))
	if b.pool != nil {
		b.pool.Put(m)
	}
}
