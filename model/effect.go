package model

// EffectKind names a status effect.
type EffectKind string

const (
	EffectDamageOverTime EffectKind = "damage_over_time"
	EffectSlow           EffectKind = "slow"
)

// Effect is a timed status effect applied to a model.
type Effect struct {
	Kind        EffectKind `yaml:"kind"`
	Duration    float64    `yaml:"duration"`
	DPS         float64    `yaml:"dps"`
	SpeedFactor float64    `yaml:"speed_factor"`

	remaining float64
}

func (e Effect) Remaining() float64 { return e.remaining }

// AddEffect applies e. Reapplying an effect of the same kind refreshes its
// remaining time instead of stacking.
func (m *Model) AddEffect(e Effect) {
	if m == nil || e.Duration <= 0 {
		return
	}
	e.remaining = e.Duration
	for i := range m.effects {
		if m.effects[i].Kind == e.Kind {
			m.effects[i] = e
			return
		}
	}
	m.effects = append(m.effects, e)
}

// UpdateEffects ages every effect by dt, applies damage over time and drops
// expired effects.
func (m *Model) UpdateEffects(dt float64) {
	if m == nil || len(m.effects) == 0 {
		return
	}
	kept := m.effects[:0]
	for _, e := range m.effects {
		step := dt
		if step > e.remaining {
			step = e.remaining
		}
		if e.Kind == EffectDamageOverTime && e.DPS > 0 {
			m.AdjustHealth(-e.DPS * step)
		}
		e.remaining -= dt
		if e.remaining > 0 {
			kept = append(kept, e)
		}
	}
	m.effects = kept
}

func (m *Model) Effects() []Effect {
	if m == nil {
		return nil
	}
	return m.effects
}

// speedFactor is the product of all active slow factors.
func (m *Model) speedFactor() float64 {
	f := 1.0
	for _, e := range m.effects {
		if e.Kind == EffectSlow && e.SpeedFactor > 0 {
			f *= e.SpeedFactor
		}
	}
	return f
}
