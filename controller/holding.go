package controller

import (
	"fmt"

	"github.com/milk9111/herbicide/model"
)

// CanHold reports whether t can be picked up right now: it must be a current
// target, holdable, not already held, and the holding limit must allow it.
func (m *Mob[S]) CanHold(t model.Target) bool {
	tm := model.AsModel(t)
	if tm == nil || !tm.Holdable() || tm.PickedUp() || !tm.Targetable() {
		return false
	}
	if len(m.held) >= m.caps.HoldingLimit {
		return false
	}
	return m.IsTarget(t)
}

// Hold picks t up. Holding something CanHold rejects panics.
func (m *Mob[S]) Hold(t model.Target) {
	if !m.CanHold(t) {
		panic(fmt.Sprintf("controller: %s cannot hold %v", m.caps.Name, t))
	}
	tm := model.AsModel(t)
	tm.PickUp(m.Model().ID)
	tm.SetPosition(m.Model().Position().Add(model.HoldOffset))
	m.held = append(m.held, tm)
}

func (m *Mob[S]) Held() []*model.Model { return m.held }
func (m *Mob[S]) Holding() bool        { return len(m.held) > 0 }

// ReleaseHeld drops everything the mob carries where it currently stands.
func (m *Mob[S]) ReleaseHeld() {
	for i, h := range m.held {
		if h.Holder() == m.Model().ID && !h.Destroyed() {
			h.SetPosition(m.Model().Position())
			h.Drop()
		}
		m.held[i] = nil
	}
	m.held = m.held[:0]
}

// CashInHeld consumes every held model and reports how many were cashed in.
func (m *Mob[S]) CashInHeld() int {
	n := 0
	for i, h := range m.held {
		if !h.Destroyed() && !h.CashedIn() {
			h.CashIn()
			n++
		}
		m.held[i] = nil
	}
	m.held = m.held[:0]
	return n
}

// syncHeld drops stale handles and keeps the rest riding on the holder.
func (m *Mob[S]) syncHeld(ctx *Context) {
	pos := m.Model().Position().Add(model.HoldOffset)
	kept := m.held[:0]
	for _, h := range m.held {
		if !ctx.Alive(h) || h.CashedIn() || h.Holder() != m.Model().ID {
			continue
		}
		h.SetPosition(pos)
		kept = append(kept, h)
	}
	clear(m.held[len(kept):])
	m.held = kept
}
