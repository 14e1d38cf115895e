package archetype

import (
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"go.uber.org/zap"

	"github.com/milk9111/herbicide/controller"
	"github.com/milk9111/herbicide/model"
	"github.com/milk9111/herbicide/prefabs"
)

const scriptDispatch = `
if __phase == "update" {
	update(__engine, __state, __current_state)
}
`

// scriptProgram is a compiled archetype script shared by a table.
type scriptProgram struct {
	path     string
	compiled *tengo.Compiled
}

// scriptRuntime is one controller's clone of the program plus its private
// state map.
type scriptRuntime struct {
	compiled  *tengo.Compiled
	stateData *tengo.Map
	pending   State
}

func compileScript(path string) (*scriptProgram, error) {
	src, err := prefabs.LoadScript(path)
	if err != nil {
		return nil, err
	}
	script := tengo.NewScript([]byte(string(src) + "\n" + scriptDispatch))
	_ = script.Add("__phase", "")
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	_ = script.Add("__current_state", "")
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, err
	}
	return &scriptProgram{path: path, compiled: compiled}, nil
}

func (p *scriptProgram) instance() (*scriptRuntime, error) {
	if p == nil || p.compiled == nil {
		return nil, fmt.Errorf("nil script program")
	}
	return &scriptRuntime{
		compiled:  p.compiled.Clone(),
		stateData: &tengo.Map{Value: map[string]tengo.Object{}},
	}, nil
}

func (rt *scriptRuntime) run(phase string, current State, engine *tengo.ImmutableMap) error {
	if err := rt.compiled.Set("__phase", phase); err != nil {
		return err
	}
	if err := rt.compiled.Set("__engine", engine); err != nil {
		return err
	}
	if err := rt.compiled.Set("__state", rt.stateData); err != nil {
		return err
	}
	if err := rt.compiled.Set("__current_state", string(current)); err != nil {
		return err
	}
	return rt.compiled.Run()
}

// update runs the script and applies a requested transition.
func (rt *scriptRuntime) update(c *Controller, ctx *controller.Context) error {
	rt.pending = ""
	if err := rt.run("update", c.State(), buildScriptEngine(c, ctx, rt)); err != nil {
		return err
	}
	if rt.pending != "" && rt.pending != c.State() {
		if !c.table.hasState(rt.pending) {
			return fmt.Errorf("script requested unknown state %q", rt.pending)
		}
		c.SetState(ctx, rt.pending)
	}
	rt.pending = ""
	return nil
}

func buildScriptEngine(c *Controller, ctx *controller.Context, rt *scriptRuntime) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}
	md := c.Model()

	values["transition"] = &tengo.UserFunction{Name: "transition", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		name := strings.TrimSpace(objectAsString(args[0]))
		if name == "" {
			return tengo.FalseValue, nil
		}
		rt.pending = State(name)
		return tengo.TrueValue, nil
	}}

	values["dt"] = &tengo.UserFunction{Name: "dt", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: ctx.DT}, nil
	}}

	values["state_time"] = &tengo.UserFunction{Name: "state_time", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: c.StateTime()}, nil
	}}

	values["health"] = &tengo.UserFunction{Name: "health", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: md.Health()}, nil
	}}

	values["max_health"] = &tengo.UserFunction{Name: "max_health", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: md.MaxHealth()}, nil
	}}

	values["heal"] = &tengo.UserFunction{Name: "heal", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		amount := asFloat(objectToAny(args[0]))
		if amount <= 0 {
			return tengo.FalseValue, nil
		}
		md.AdjustHealth(amount)
		return tengo.TrueValue, nil
	}}

	values["get_position"] = &tengo.UserFunction{Name: "get_position", Value: func(args ...tengo.Object) (tengo.Object, error) {
		p := md.Position()
		return &tengo.Array{Value: []tengo.Object{&tengo.Float{Value: p.X}, &tengo.Float{Value: p.Y}}}, nil
	}}

	values["distance_to_target"] = &tengo.UserFunction{Name: "distance_to_target", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: c.DistanceToTarget(ctx)}, nil
	}}

	values["distance_to_carrier"] = &tengo.UserFunction{Name: "distance_to_carrier", Value: func(args ...tengo.Object) (tengo.Object, error) {
		carrier := c.table.catalog.NearestCarrier(c.Mob, ctx)
		if carrier == nil {
			return &tengo.Float{Value: -1}, nil
		}
		return &tengo.Float{Value: c.DistanceTo(ctx, carrier)}, nil
	}}

	values["target_type"] = &tengo.UserFunction{Name: "target_type", Value: func(args ...tengo.Object) (tengo.Object, error) {
		t := c.Target()
		if t == nil {
			return &tengo.String{Value: ""}, nil
		}
		return &tengo.String{Value: string(t.TargetType())}, nil
	}}

	values["set_cooldown"] = &tengo.UserFunction{Name: "set_cooldown", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		md.SetCooldown(asFloat(objectToAny(args[0])))
		return tengo.TrueValue, nil
	}}

	values["slow"] = &tengo.UserFunction{Name: "slow", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return tengo.FalseValue, nil
		}
		md.AddEffect(model.Effect{
			Kind:        model.EffectSlow,
			SpeedFactor: asFloat(objectToAny(args[0])),
			Duration:    asFloat(objectToAny(args[1])),
		})
		return tengo.TrueValue, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		ctx.Logger().Debug("script: "+strings.Join(parts, " "),
			zap.String("archetype", c.table.Name), zap.Stringer("entity", md.ID))
		return tengo.TrueValue, nil
	}}

	values["action"] = &tengo.UserFunction{Name: "action", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		name := strings.TrimSpace(objectAsString(args[0]))
		var arg any
		if len(args) > 1 {
			arg = objectToAny(args[1])
		}
		a, err := buildAction(c.table, name, arg)
		if err != nil {
			return tengo.FalseValue, nil
		}
		a(c.Mob, ctx)
		return tengo.TrueValue, nil
	}}

	for name, maker := range conditionRegistry {
		cond := maker(c.table)
		values[name] = &tengo.UserFunction{Name: name, Value: func(args ...tengo.Object) (tengo.Object, error) {
			if cond(c.Mob, ctx) {
				return tengo.TrueValue, nil
			}
			return tengo.FalseValue, nil
		}}
	}

	return &tengo.ImmutableMap{Value: values}
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case float64:
		return t
	case float32:
		return float64(t)
	default:
		return 0
	}
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}

func objectToAny(obj tengo.Object) any {
	if obj == nil {
		return nil
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	case *tengo.Int:
		return int(v.Value)
	case *tengo.Float:
		return v.Value
	case *tengo.Bool:
		return !v.IsFalsy()
	case *tengo.Array:
		out := make([]any, 0, len(v.Value))
		for _, item := range v.Value {
			out = append(out, objectToAny(item))
		}
		return out
	case *tengo.Map:
		out := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			out[k] = objectToAny(item)
		}
		return out
	case *tengo.Undefined:
		return nil
	default:
		return v.String()
	}
}
