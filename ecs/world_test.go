package ecs

import "testing"

func TestWorldEntityLifecycle(t *testing.T) {
	cases := []struct {
		name         string
		create       int
		destroyIndex int // -1 = none
	}{
		{"single", 1, 0},
		{"three_create_destroy_middle", 3, 1},
		{"none_destroy", 2, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld()
			ents := make([]Entity, 0, c.create)
			for i := 0; i < c.create; i++ {
				ents = append(ents, w.CreateEntity())
			}
			if w.Alive() != c.create {
				t.Fatalf("expected %d entities, got %d", c.create, w.Alive())
			}
			if c.destroyIndex >= 0 {
				if !w.DestroyEntity(ents[c.destroyIndex]) {
					t.Fatalf("DestroyEntity should return true for alive entity")
				}
				if w.IsAlive(ents[c.destroyIndex]) {
					t.Fatalf("entity should not be alive after destruction")
				}
				if w.DestroyEntity(ents[c.destroyIndex]) {
					t.Fatalf("second DestroyEntity should return false")
				}
			}
		})
	}
}

func TestWorldRecyclesSlotsWithNewGeneration(t *testing.T) {
	w := NewWorld()
	a := w.CreateEntity()
	w.DestroyEntity(a)
	b := w.CreateEntity()

	if a.Index() != b.Index() {
		t.Fatalf("expected slot reuse, got %d and %d", a.Index(), b.Index())
	}
	if a == b {
		t.Fatalf("recycled handle must differ from stale handle")
	}
	if w.IsAlive(a) {
		t.Fatalf("stale handle reported alive")
	}
	if !w.IsAlive(b) {
		t.Fatalf("new handle reported dead")
	}
}

func TestSparseSet(t *testing.T) {
	w := NewWorld()
	e1 := w.CreateEntity()
	e2 := w.CreateEntity()
	e3 := w.CreateEntity()

	var s SparseSet[string]
	s.Set(e1, "a")
	s.Set(e2, "b")
	s.Set(e3, "c")

	tests := []struct {
		name string
		run  func(t *testing.T)
	}{
		{"get", func(t *testing.T) {
			if v, ok := s.Get(e2); !ok || v != "b" {
				t.Fatalf("Get(e2) = %q, %v", v, ok)
			}
		}},
		{"remove_swaps_last", func(t *testing.T) {
			if !s.Remove(e1) {
				t.Fatalf("Remove(e1) returned false")
			}
			if s.Has(e1) {
				t.Fatalf("e1 still present")
			}
			if v, ok := s.Get(e3); !ok || v != "c" {
				t.Fatalf("Get(e3) after swap = %q, %v", v, ok)
			}
			if s.Len() != 2 {
				t.Fatalf("Len = %d, want 2", s.Len())
			}
		}},
		{"stale_generation", func(t *testing.T) {
			w.DestroyEntity(e2)
			fresh := w.CreateEntity()
			if s.Has(fresh) {
				t.Fatalf("fresh handle must not see stale value")
			}
			s.Set(fresh, "d")
			if s.Has(e2) {
				t.Fatalf("stale handle still present after slot reuse")
			}
			if v, _ := s.Get(fresh); v != "d" {
				t.Fatalf("Get(fresh) = %q", v)
			}
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, tc.run)
	}
}

func TestEventQueueDrain(t *testing.T) {
	w := NewWorld()
	w.Advance()
	w.Emit(Event{Kind: EventCreated, Type: "kudzu"})
	w.Emit(Event{Kind: EventRemoved, Type: "kudzu"})

	got := w.Events().Drain()
	if len(got) != 2 {
		t.Fatalf("Drain returned %d events, want 2", len(got))
	}
	if got[0].Tick != 1 || got[0].Kind != EventCreated {
		t.Fatalf("unexpected first event %+v", got[0])
	}
	if w.Events().Len() != 0 {
		t.Fatalf("queue not empty after drain")
	}
}

func TestSchedulerOrder(t *testing.T) {
	var order []int
	s := NewScheduler[*[]int](
		SystemFunc[*[]int](func(o *[]int) { *o = append(*o, 1) }),
		SystemFunc[*[]int](func(o *[]int) { *o = append(*o, 2) }),
	)
	s.Add(nil)
	s.Add(SystemFunc[*[]int](func(o *[]int) { *o = append(*o, 3) }))
	s.Update(&order)

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("unexpected order %v", order)
	}
}
