package model

import "github.com/jakecoffman/cp"

// Pool recycles models per type. A model must be returned at most once per
// acquisition.
type Pool struct {
	free     map[Type][]*Model
	renderer Renderer
}

func NewPool(r Renderer) *Pool {
	if r == nil {
		r = NopRenderer{}
	}
	return &Pool{free: map[Type][]*Model{}, renderer: r}
}

// Get returns a fresh model of type t, reusing a released one when possible.
func (p *Pool) Get(t Type, category Category, stats Stats, pos cp.Vector) *Model {
	var m *Model
	if list := p.free[t]; len(list) > 0 {
		m = list[len(list)-1]
		p.free[t] = list[:len(list)-1]
		m.reset(t, category, stats, pos)
	} else {
		m = New(t, category, stats, pos)
	}
	m.Attach(p.renderer)
	return m
}

// Put releases m back to the pool. Releasing a model that is already pooled
// panics.
func (p *Pool) Put(m *Model) {
	if m == nil {
		return
	}
	for _, f := range p.free[m.Type] {
		if f == m {
			panic("model: model " + m.ID.String() + " returned to pool twice")
		}
	}
	p.renderer.Detach(m)
	p.free[m.Type] = append(p.free[m.Type], m)
}

// Free returns how many released models of type t are waiting for reuse.
func (p *Pool) Free(t Type) int { return len(p.free[t]) }
