package registry

import (
	"errors"
	"testing"

	"github.com/milk9111/herbicide/archetype"
	"github.com/milk9111/herbicide/controller"
	"github.com/milk9111/herbicide/ecs"
	"github.com/milk9111/herbicide/grid"
	"github.com/milk9111/herbicide/model"
)

type fakeGate struct {
	unlocked map[model.Type]bool
	balance  int
}

func (g *fakeGate) IsUnlocked(t model.Type) bool { return g.unlocked[t] }
func (g *fakeGate) Balance() int                 { return g.balance }

// row builds a one-row graph; '.' floor, '#' wall.
func row(cells string) *grid.Graph {
	var out []grid.Cell
	for x, ch := range cells {
		kind := model.TypeTile
		if ch == '#' {
			kind = model.TypeWall
		}
		out = append(out, grid.Cell{Coord: grid.Coord{X: x}, Kind: kind})
	}
	return grid.NewGraph(1, out)
}

func newRegistry(t *testing.T, g *grid.Graph, gate Gate) (*Registry, *controller.Context) {
	t.Helper()
	cat, err := archetype.LoadTables(model.NewPool(nil), nil)
	if err != nil {
		t.Fatalf("load tables: %v", err)
	}
	w := ecs.NewWorld()
	r := New(cat, w, g, gate, nil)
	ctx := &controller.Context{DT: 0.1, World: w, Grid: g, Spawner: r}
	return r, ctx
}

func expectPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s: expected panic", name)
		}
	}()
	fn()
}

func TestCreateDispatch(t *testing.T) {
	r, _ := newRegistry(t, nil, nil)

	c, err := r.Create(model.TypeKudzu)
	if err != nil {
		t.Fatalf("create kudzu: %v", err)
	}
	if !c.Model().ID.Valid() {
		t.Fatalf("expected a world handle")
	}
	if len(r.Live()) != 0 || r.Pending() != 1 {
		t.Fatalf("expected the controller staged, live=%d pending=%d", len(r.Live()), r.Pending())
	}
	if got, ok := r.Lookup(c.Model().ID); !ok || got != c {
		t.Fatalf("expected lookup of a staged controller to succeed")
	}
	if n := r.Flush(); n != 1 || len(r.Live()) != 1 {
		t.Fatalf("expected one live controller after flush, got %d", len(r.Live()))
	}
	if _, err := r.Create("oak"); !errors.Is(err, archetype.ErrUnknownArchetype) {
		t.Fatalf("expected ErrUnknownArchetype, got %v", err)
	}

	expectPanic(t, "create projectile", func() { _, _ = r.Create(model.TypeAcorn) })
	sq, err := r.Catalog().New(model.TypeSquirrel)
	if err != nil {
		t.Fatalf("new squirrel: %v", err)
	}
	expectPanic(t, "prebuilt defender", func() { r.AddPrebuilt(sq) })
	expectPanic(t, "nil prebuilt", func() { r.AddPrebuilt(nil) })
}

func TestRemovalBatching(t *testing.T) {
	r, ctx := newRegistry(t, nil, nil)
	c, err := r.Create(model.TypeKudzu)
	if err != nil {
		t.Fatalf("create kudzu: %v", err)
	}
	r.Flush()
	kz := c.(*archetype.Controller)
	kz.Model().SetSpawned()
	kz.SetState(ctx, "idle")
	kz.Model().AdjustHealth(-100)
	id := kz.Model().ID

	ctx.EnemiesLeft = 3
	if n := r.RemoveDefunct(ctx); n != 1 {
		t.Fatalf("expected one removal, got %d", n)
	}
	if len(r.Live()) != 0 {
		t.Fatalf("expected the dew drop to wait for the next tick, live=%d", len(r.Live()))
	}
	if r.Pending() != 1 {
		t.Fatalf("expected one staged drop, got %d", r.Pending())
	}
	if r.world.IsAlive(id) {
		t.Fatalf("expected the kudzu handle to be released")
	}
	if _, ok := r.Lookup(id); ok {
		t.Fatalf("expected lookup of a removed controller to fail")
	}
	r.Flush()
	live := r.Live()
	if len(live) != 1 || live[0].Model().Type != model.TypeDew {
		t.Fatalf("expected the dew to be live, got %d controllers", len(live))
	}
	if n := r.RemoveDefunct(ctx); n != 0 {
		t.Fatalf("expected nothing else to remove, got %d", n)
	}
}

func TestCounts(t *testing.T) {
	r, ctx := newRegistry(t, row("..."), nil)
	for i := 0; i < 2; i++ {
		if _, err := r.Create(model.TypeKudzu); err != nil {
			t.Fatalf("create kudzu: %v", err)
		}
	}
	if _, err := r.Place(model.TypeBear, grid.Coord{X: 1}); err != nil {
		t.Fatalf("place bear: %v", err)
	}
	if _, err := r.Create(model.TypeNexus); err != nil {
		t.Fatalf("create nexus: %v", err)
	}
	r.Flush()
	kz := r.Controllers(model.TypeKudzu)[0].(*archetype.Controller)
	kz.Model().SetSpawned()
	kz.SetState(ctx, "idle")
	r.recount()

	want := Counts{EnemiesRemaining: 2, ActiveEnemies: 1, SpawnedEnemies: 2, PlacedDefenders: 1, Nexuses: 1}
	if got := r.Counts(); got != want {
		t.Fatalf("counts = %+v, want %+v", got, want)
	}

	kz.Model().AdjustHealth(-100)
	r.recount()
	if got := r.Counts(); got.EnemiesRemaining != 1 || got.SpawnedEnemies != 2 {
		t.Fatalf("expected one enemy left of two spawned, got %+v", got)
	}
}

func TestUpdateOrderAndSnapshot(t *testing.T) {
	r, ctx := newRegistry(t, row("..."), nil)
	if _, err := r.Place(model.TypeSquirrel, grid.Coord{X: 0}); err != nil {
		t.Fatalf("place squirrel: %v", err)
	}
	if _, err := r.Create(model.TypeKudzu); err != nil {
		t.Fatalf("create kudzu: %v", err)
	}
	r.Update(ctx, 4)
	if ctx.EnemiesLeft != 5 {
		t.Fatalf("expected 1 enemy plus 4 reserved, got %d", ctx.EnemiesLeft)
	}
	if len(ctx.Models) != 2 {
		t.Fatalf("expected both models in the snapshot, got %d", len(ctx.Models))
	}
	if ctx.Models[0].Category != model.CategoryEnemy || ctx.Models[1].Category != model.CategoryDefender {
		t.Fatalf("expected enemies before defenders, got %s, %s", ctx.Models[0].Category, ctx.Models[1].Category)
	}
}

func TestPurchase(t *testing.T) {
	tests := []struct {
		name string
		gate *fakeGate
		at   grid.Coord
		want error
	}{
		{
			name: "locked",
			gate: &fakeGate{unlocked: map[model.Type]bool{}, balance: 100},
			want: ErrLocked,
		},
		{
			name: "too expensive",
			gate: &fakeGate{unlocked: map[model.Type]bool{model.TypeSquirrel: true}, balance: 2},
			want: ErrInsufficientFunds,
		},
		{
			name: "wall",
			gate: &fakeGate{unlocked: map[model.Type]bool{model.TypeSquirrel: true}, balance: 100},
			at:   grid.Coord{X: 1},
			want: grid.ErrNotWalkable,
		},
		{
			name: "floor",
			gate: &fakeGate{unlocked: map[model.Type]bool{model.TypeSquirrel: true}, balance: 100},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newRegistry(t, row(".#"), tt.gate)
			c, err := r.Purchase(model.TypeSquirrel, tt.at)
			if tt.want != nil {
				if !errors.Is(err, tt.want) {
					t.Fatalf("expected %v, got %v", tt.want, err)
				}
				if r.Pending() != 0 {
					t.Fatalf("expected nothing created on a failed purchase")
				}
				return
			}
			if err != nil {
				t.Fatalf("purchase: %v", err)
			}
			if r.graph.OccupantAt(tt.at) != c.Model() {
				t.Fatalf("expected the squirrel to occupy %v", tt.at)
			}
			var purchase *ecs.Event
			for _, evt := range r.world.Events().Drain() {
				if evt.Kind == ecs.EventPurchase {
					purchase = &evt
				}
			}
			if purchase == nil || purchase.Value != 5 || purchase.Entity != c.Model().ID {
				t.Fatalf("expected a purchase event worth 5, got %+v", purchase)
			}
			if _, err := r.Purchase(model.TypeSquirrel, tt.at); !errors.Is(err, grid.ErrOccupied) {
				t.Fatalf("expected ErrOccupied on a second purchase, got %v", err)
			}
		})
	}
}

func TestCombineThreeSquirrels(t *testing.T) {
	r, ctx := newRegistry(t, row("...."), nil)
	for x := 0; x < 3; x++ {
		if x == 2 && !r.WillTriggerCombination(model.TypeSquirrel, 1) {
			t.Fatalf("expected the third squirrel to trigger a combination")
		}
		if x < 2 && r.WillTriggerCombination(model.TypeSquirrel, 1) {
			t.Fatalf("expected no combination with %d squirrels", x)
		}
		if _, err := r.Purchase(model.TypeSquirrel, grid.Coord{X: x}); err != nil {
			t.Fatalf("purchase %d: %v", x, err)
		}
	}
	if r.Combiner().Active() != 1 {
		t.Fatalf("expected one combination in flight, got %d", r.Combiner().Active())
	}
	if r.WillTriggerCombination(model.TypeSquirrel, 1) {
		t.Fatalf("combining squirrels must not count toward another combination")
	}

	combined := false
	for i := 0; i < 20 && !combined; i++ {
		r.Update(ctx, 0)
		for _, evt := range r.world.Events().Drain() {
			if evt.Kind == ecs.EventCombined && evt.Value == 2 {
				combined = true
			}
		}
	}
	if !combined {
		t.Fatalf("expected a combined event")
	}
	r.Update(ctx, 0)

	live := r.Controllers(model.TypeSquirrel)
	if len(live) != 1 || live[0].Model().Tier != 2 {
		t.Fatalf("expected a single tier 2 squirrel, got %d controllers", len(live))
	}
	if r.graph.OccupantAt(grid.Coord{X: 2}) != live[0].Model() {
		t.Fatalf("expected the combined squirrel on the anchor tile")
	}
	for _, c := range []grid.Coord{{X: 0}, {X: 1}} {
		if err := r.graph.CanPlace(c); err != nil {
			t.Fatalf("expected %v to be free after combining: %v", c, err)
		}
	}
	if r.Combiner().Active() != 0 {
		t.Fatalf("expected the combination to finish")
	}
}

func TestCombineAbortsWhenMemberLost(t *testing.T) {
	r, ctx := newRegistry(t, row("..."), nil)
	var placed []controller.Controller
	for x := 0; x < 3; x++ {
		c, err := r.Purchase(model.TypeBear, grid.Coord{X: x})
		if err != nil {
			t.Fatalf("purchase %d: %v", x, err)
		}
		placed = append(placed, c)
	}
	placed[0].Model().Destroy()
	r.Update(ctx, 0)
	if r.Combiner().Active() != 0 {
		t.Fatalf("expected the combination to abort")
	}
	for _, c := range placed[1:] {
		if c.Model().Combining() {
			t.Fatalf("expected surviving members released")
		}
	}
}

func TestCombineChainsIntoNextTier(t *testing.T) {
	r, ctx := newRegistry(t, row("....."), nil)
	for x := 0; x < 2; x++ {
		if _, err := r.Place(model.TypeSquirrel, grid.Coord{X: x}, controller.WithTier(2)); err != nil {
			t.Fatalf("place tier 2 squirrel %d: %v", x, err)
		}
	}
	r.Flush()
	for x := 2; x < 5; x++ {
		if _, err := r.Purchase(model.TypeSquirrel, grid.Coord{X: x}); err != nil {
			t.Fatalf("purchase %d: %v", x, err)
		}
	}

	var tiers []int
	for i := 0; i < 40 && len(tiers) < 2; i++ {
		r.Update(ctx, 0)
		for _, evt := range r.world.Events().Drain() {
			if evt.Kind == ecs.EventCombined {
				tiers = append(tiers, evt.Value)
			}
		}
	}
	if len(tiers) != 2 || tiers[0] != 2 || tiers[1] != 3 {
		t.Fatalf("expected combined tiers [2 3], got %v", tiers)
	}
	r.Update(ctx, 0)

	live := r.Controllers(model.TypeSquirrel)
	if len(live) != 1 || live[0].Model().Tier != 3 {
		t.Fatalf("expected a single tier 3 squirrel, got %d controllers", len(live))
	}
	occupied := 0
	for x := 0; x < 5; x++ {
		if m := r.graph.OccupantAt(grid.Coord{X: x}); m != nil {
			occupied++
			if m != live[0].Model() {
				t.Fatalf("tile %d holds a stale occupant", x)
			}
		}
	}
	if occupied != 1 {
		t.Fatalf("expected one occupied tile, got %d", occupied)
	}
	if r.graph.BlockingOccupants() != 1 {
		t.Fatalf("BlockingOccupants = %d, want 1", r.graph.BlockingOccupants())
	}
	if r.Combiner().Active() != 0 {
		t.Fatalf("expected both combinations to finish")
	}
}
