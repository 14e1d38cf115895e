package ecs

// EventKind identifies simulation events handed to collaborators.
type EventKind string

const (
	EventCreated   EventKind = "created"
	EventRemoved   EventKind = "removed"
	EventCashIn    EventKind = "cash_in"
	EventLifeLost  EventKind = "life_lost"
	EventPurchase  EventKind = "purchase"
	EventCombined  EventKind = "combined"
	EventCollected EventKind = "collected"
)

// Event is a fire-and-forget notification. Value carries the economy payload
// for cash-in, purchase and collection events.
type Event struct {
	Kind   EventKind `msgpack:"kind"`
	Entity Entity    `msgpack:"entity"`
	Type   string    `msgpack:"type"`
	Value  int       `msgpack:"value,omitempty"`
	Tick   uint64    `msgpack:"tick"`
}

// EventQueue is a simple FIFO queue.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}
