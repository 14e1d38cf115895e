package prefabs

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/herbicide/model"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// ArchetypeSpec is the YAML capability table of one archetype.
type ArchetypeSpec struct {
	Name      string        `yaml:"name"`
	Type      model.Type    `yaml:"type"`
	Category  string        `yaml:"category"`
	Color     string        `yaml:"color"`
	Stats     model.Stats   `yaml:"stats"`
	Targeting TargetingSpec `yaml:"targeting"`
	FSM       FSMSpec       `yaml:"fsm"`
	// Script names a tengo file whose update function runs after the
	// table's actions every tick.
	Script string `yaml:"script"`
}

type TargetingSpec struct {
	FindsTargets bool   `yaml:"finds_targets"`
	MaxTargets   int    `yaml:"max_targets"`
	HoldingLimit int    `yaml:"holding_limit"`
	Policy       string `yaml:"policy"`
	Predicate    string `yaml:"predicate"`
	Distance     string `yaml:"distance"`
}

type FSMSpec struct {
	Initial  string               `yaml:"initial"`
	Invalid  string               `yaml:"invalid"`
	Terminal []string             `yaml:"terminal"`
	Immune   []string             `yaml:"immune"`
	States   map[string]StateSpec `yaml:"states"`
}

type StateSpec struct {
	// Actions entries are either a bare action name or a one-key map of
	// action name to argument.
	OnEnter     []any            `yaml:"on_enter"`
	Actions     []any            `yaml:"actions"`
	Transitions []TransitionSpec `yaml:"transitions"`
}

// TransitionSpec fires when every condition in When holds. A leading "!"
// negates a condition.
type TransitionSpec struct {
	To   string   `yaml:"to"`
	When []string `yaml:"when"`
}

// LoadArchetypeSpec loads a single archetype file.
func LoadArchetypeSpec(filename string) (ArchetypeSpec, error) {
	spec, err := LoadSpec[ArchetypeSpec](filename)
	if err != nil {
		return spec, err
	}
	if spec.Type == "" {
		return spec, fmt.Errorf("prefabs: %s: missing type", filename)
	}
	if spec.Name == "" {
		spec.Name = string(spec.Type)
	}
	return spec, nil
}

// LoadArchetypeSpecs loads every archetype file.
func LoadArchetypeSpecs() ([]ArchetypeSpec, error) {
	files, err := ArchetypeFiles()
	if err != nil {
		return nil, err
	}
	specs := make([]ArchetypeSpec, 0, len(files))
	for _, f := range files {
		spec, err := LoadArchetypeSpec(f)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
