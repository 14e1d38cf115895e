package archetype

import (
	"errors"
	"fmt"
	"image/color"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/milk9111/herbicide/common"
	"github.com/milk9111/herbicide/controller"
	"github.com/milk9111/herbicide/model"
	"github.com/milk9111/herbicide/prefabs"
)

// ErrUnknownArchetype is returned when no table exists for a type.
var ErrUnknownArchetype = errors.New("archetype: unknown archetype")

// State names an archetype FSM state as written in its table.
type State string

type Mob = controller.Mob[State]

// Table is one compiled archetype.
type Table struct {
	Name     string
	Type     model.Type
	Category model.Category
	Tint     color.RGBA
	Stats    model.Stats
	Initial  State
	Invalid  State
	States   []State
	Terminal map[State]bool
	Immune   map[State]bool

	caps        *controller.Capabilities[State]
	transitions map[State][]transition
	onEnter     map[State][]controller.Action[State]
	script      *scriptProgram
	catalog     *Catalog
}

type transition struct {
	to    State
	conds []Condition
}

func (tr transition) holds(m *Mob, ctx *controller.Context) bool {
	for _, c := range tr.conds {
		if !c(m, ctx) {
			return false
		}
	}
	return true
}

func (t *Table) Capabilities() *controller.Capabilities[State] { return t.caps }

// Carrier reports whether instances can hold targets.
func (t *Table) Carrier() bool { return t.caps.HoldingLimit > 0 }

func (t *Table) hasState(s State) bool {
	for _, st := range t.States {
		if st == s {
			return true
		}
	}
	return false
}

// Catalog holds the compiled tables and builds controllers from them.
type Catalog struct {
	tables map[model.Type]*Table
	pool   *model.Pool
	log    *zap.Logger
	// policy applies to tables that do not name a targeting policy.
	policy controller.TargetPolicy
}

func NewCatalog(pool *model.Pool, log *zap.Logger) *Catalog {
	if pool == nil {
		pool = model.NewPool(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{tables: map[model.Type]*Table{}, pool: pool, log: log}
}

// LoadTables compiles every archetype file the prefabs package can see.
func LoadTables(pool *model.Pool, log *zap.Logger) (*Catalog, error) {
	c := NewCatalog(pool, log)
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload recompiles every archetype file. On error the current tables are
// kept. Live controllers keep the table they were built from.
func (c *Catalog) Reload() error {
	specs, err := prefabs.LoadArchetypeSpecs()
	if err != nil {
		return err
	}
	tables := make(map[model.Type]*Table, len(specs))
	for _, spec := range specs {
		t, err := c.Compile(spec)
		if err != nil {
			return err
		}
		if _, dup := tables[t.Type]; dup {
			return fmt.Errorf("archetype: duplicate table for %s", t.Type)
		}
		tables[t.Type] = t
	}
	c.tables = tables
	return nil
}

// Add registers t, replacing any table of the same type.
func (c *Catalog) Add(t *Table) {
	t.catalog = c
	c.tables[t.Type] = t
}

func (c *Catalog) Table(t model.Type) (*Table, bool) {
	tbl, ok := c.tables[t]
	return tbl, ok
}

func (c *Catalog) Pool() *model.Pool { return c.pool }

// SetDefaultPolicy sets the targeting policy for tables compiled afterwards
// that leave it unspecified.
func (c *Catalog) SetDefaultPolicy(p controller.TargetPolicy) { c.policy = p }

// Types lists the known types in name order.
func (c *Catalog) Types() []model.Type {
	out := make([]model.Type, 0, len(c.tables))
	for t := range c.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Defenders lists the defender tables, cheapest first.
func (c *Catalog) Defenders() []*Table {
	var out []*Table
	for _, t := range c.Types() {
		if tbl := c.tables[t]; tbl.Category == model.CategoryDefender {
			out = append(out, tbl)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stats.Cost < out[j].Stats.Cost })
	return out
}

// IsCarrier reports whether models of type t can carry targets.
func (c *Catalog) IsCarrier(t model.Type) bool {
	tbl, ok := c.tables[t]
	return ok && tbl.Carrier()
}

// Compile turns a decoded spec into a table. The FSM must be closed: every
// state reachable from the initial state either is terminal or has a
// transition to some other state.
func (c *Catalog) Compile(spec prefabs.ArchetypeSpec) (*Table, error) {
	category := model.Category(spec.Category)
	if !category.Valid() {
		return nil, fmt.Errorf("archetype: %s: invalid category %q", spec.Name, spec.Category)
	}
	tint, err := common.ParseColor(spec.Color)
	if err != nil {
		return nil, fmt.Errorf("archetype: %s: %w", spec.Name, err)
	}
	name := spec.Name
	if name == "" {
		name = string(spec.Type)
	}

	t := &Table{
		Name:        name,
		Type:        spec.Type,
		Category:    category,
		Tint:        tint,
		Stats:       spec.Stats,
		Initial:     State(spec.FSM.Initial),
		Invalid:     State(spec.FSM.Invalid),
		Terminal:    stateSet(spec.FSM.Terminal),
		Immune:      stateSet(spec.FSM.Immune),
		transitions: map[State][]transition{},
		onEnter:     map[State][]controller.Action[State]{},
		catalog:     c,
	}
	if err := t.compileFSM(spec.FSM); err != nil {
		return nil, fmt.Errorf("archetype: %s: %w", name, err)
	}
	caps, err := t.compileCapabilities(spec)
	if err != nil {
		return nil, fmt.Errorf("archetype: %s: %w", name, err)
	}
	t.caps = caps
	if strings.TrimSpace(spec.Script) != "" {
		prog, err := compileScript(spec.Script)
		if err != nil {
			return nil, fmt.Errorf("archetype: %s: script %s: %w", name, spec.Script, err)
		}
		t.script = prog
	}
	return t, nil
}

func stateSet(names []string) map[State]bool {
	out := make(map[State]bool, len(names))
	for _, n := range names {
		out[State(n)] = true
	}
	return out
}

func (t *Table) compileFSM(spec prefabs.FSMSpec) error {
	if spec.Initial == "" {
		return fmt.Errorf("fsm: missing initial state")
	}
	if _, ok := spec.States[spec.Initial]; !ok {
		return fmt.Errorf("fsm: initial state %q not declared", spec.Initial)
	}
	if t.Category == model.CategoryEnemy && spec.Invalid == "" {
		return fmt.Errorf("fsm: enemies need an invalid state")
	}

	names := make([]string, 0, len(spec.States))
	for n := range spec.States {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		t.States = append(t.States, State(n))
	}
	if t.Invalid != "" && !t.hasState(t.Invalid) {
		t.States = append(t.States, t.Invalid)
	}
	for _, group := range [][]string{spec.Terminal, spec.Immune} {
		for _, n := range group {
			if !t.hasState(State(n)) {
				return fmt.Errorf("fsm: unknown state %q", n)
			}
		}
	}

	for _, n := range names {
		st := spec.States[n]
		for i, raw := range st.Transitions {
			to := State(raw.To)
			if raw.To == "" || !t.hasState(to) {
				return fmt.Errorf("fsm: %s transition %d: unknown target state %q", n, i, raw.To)
			}
			conds, err := compileConditions(t, raw.When)
			if err != nil {
				return fmt.Errorf("fsm: %s transition %d: %w", n, i, err)
			}
			t.transitions[State(n)] = append(t.transitions[State(n)], transition{to: to, conds: conds})
		}
		enter, err := compileActions(t, st.OnEnter)
		if err != nil {
			return fmt.Errorf("fsm: %s on_enter: %w", n, err)
		}
		if len(enter) > 0 {
			t.onEnter[State(n)] = enter
		}
	}
	return t.checkClosure()
}

func (t *Table) checkClosure() error {
	seen := map[State]bool{t.Initial: true}
	queue := []State{t.Initial}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		exits := 0
		for _, tr := range t.transitions[s] {
			if tr.to != s {
				exits++
			}
			if !seen[tr.to] {
				seen[tr.to] = true
				queue = append(queue, tr.to)
			}
		}
		if exits == 0 && !t.Terminal[s] && s != t.Invalid {
			return fmt.Errorf("fsm: state %q has no way out and is not terminal", s)
		}
	}
	return nil
}

func (t *Table) compileCapabilities(spec prefabs.ArchetypeSpec) (*controller.Capabilities[State], error) {
	policy := t.catalog.policy
	if spec.Targeting.Policy != "" {
		p, err := controller.ParseTargetPolicy(spec.Targeting.Policy)
		if err != nil {
			return nil, err
		}
		policy = p
	}
	metric, err := controller.ParseDistanceMetric(spec.Targeting.Distance)
	if err != nil {
		return nil, err
	}
	pred, err := compilePredicate(t, spec.Targeting.Predicate)
	if err != nil {
		return nil, err
	}

	caps := &controller.Capabilities[State]{
		Name:         t.Name,
		Initial:      t.Initial,
		Invalid:      t.Invalid,
		HasInvalid:   t.Invalid != "",
		FindsTargets: spec.Targeting.FindsTargets,
		MaxTargets:   spec.Targeting.MaxTargets,
		HoldingLimit: spec.Targeting.HoldingLimit,
		Policy:       policy,
		Distance:     metric,
		CanTarget:    pred,
		States:       t.States,
		Actions:      map[State][]controller.Action[State]{},
		Valid:        t.valid,
		OnDestroy:    t.destroyed,
	}
	if caps.FindsTargets && caps.MaxTargets <= 0 {
		caps.MaxTargets = 1
	}
	for name, st := range spec.FSM.States {
		actions, err := compileActions(t, st.Actions)
		if err != nil {
			return nil, fmt.Errorf("fsm: %s actions: %w", name, err)
		}
		if len(actions) > 0 {
			caps.Actions[State(name)] = actions
		}
	}
	caps.Transition = t.transition
	caps.OnEnter = func(m *Mob, ctx *controller.Context, _, to State) {
		for _, a := range t.onEnter[to] {
			a(m, ctx)
		}
	}
	return caps, nil
}

// transition returns the target of the first transition whose conditions
// all hold. Once the match is over, every non-terminal mob settles in idle.
func (t *Table) transition(m *Mob, ctx *controller.Context) State {
	cur := m.State()
	if ctx.GameState != controller.Ongoing && !t.Terminal[cur] && t.hasState("idle") {
		return "idle"
	}
	for _, tr := range t.transitions[cur] {
		if tr.holds(m, ctx) {
			return tr.to
		}
	}
	return cur
}
