package ecs

// World owns entity handles, the event queue and the tick counter.
type World struct {
	entities entityStore
	events   EventQueue
	tick     uint64
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{}
}

// CreateEntity allocates a new entity.
func (w *World) CreateEntity() Entity {
	return w.entities.create()
}

// DestroyEntity releases e. It returns false for stale or unknown handles.
func (w *World) DestroyEntity(e Entity) bool {
	if w == nil {
		return false
	}
	return w.entities.destroy(e)
}

// IsAlive reports whether an entity handle is valid.
func (w *World) IsAlive(e Entity) bool {
	if w == nil {
		return false
	}
	return w.entities.isAlive(e)
}

// Alive returns the number of live entities.
func (w *World) Alive() int {
	if w == nil {
		return 0
	}
	return w.entities.live
}

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	if w == nil {
		return nil
	}
	return &w.events
}

// Emit stamps evt with the current tick and queues it.
func (w *World) Emit(evt Event) {
	if w == nil {
		return
	}
	evt.Tick = w.tick
	w.events.Push(evt)
}

func (w *World) Tick() uint64 {
	if w == nil {
		return 0
	}
	return w.tick
}

// Advance moves the tick counter forward and returns the new value.
func (w *World) Advance() uint64 {
	if w == nil {
		return 0
	}
	w.tick++
	return w.tick
}
