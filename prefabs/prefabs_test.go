package prefabs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/milk9111/herbicide/model"
)

func TestLoadArchetypeSpecs(t *testing.T) {
	specs, err := LoadArchetypeSpecs()
	if err != nil {
		t.Fatalf("load specs: %v", err)
	}
	byType := map[model.Type]ArchetypeSpec{}
	for _, s := range specs {
		byType[s.Type] = s
	}
	if len(byType) != 13 {
		t.Fatalf("expected 13 archetypes, got %d", len(byType))
	}

	kudzu := byType[model.TypeKudzu]
	if kudzu.Targeting.HoldingLimit != 1 || kudzu.Targeting.Predicate != "free_nexus" {
		t.Fatalf("unexpected kudzu targeting %+v", kudzu.Targeting)
	}
	if kudzu.FSM.Initial != "inactive" || kudzu.FSM.Invalid != "invalid" {
		t.Fatalf("unexpected kudzu fsm %q/%q", kudzu.FSM.Initial, kudzu.FSM.Invalid)
	}
	if kudzu.Stats.Drop != model.TypeDew {
		t.Fatalf("expected kudzu to drop dew, got %q", kudzu.Stats.Drop)
	}

	raccoon := byType[model.TypeRaccoon]
	if got := raccoon.Stats.EmissionsForTier(2); got != 2 {
		t.Fatalf("expected 2 emissions at tier 2, got %d", got)
	}
	berry := byType[model.TypeBlackberry]
	if berry.Stats.Effect == nil || berry.Stats.Effect.Kind != model.EffectDamageOverTime {
		t.Fatalf("expected blackberry damage over time, got %+v", berry.Stats.Effect)
	}
	if byType[model.TypeKnotwood].Script != "knotwood.tengo" {
		t.Fatalf("expected knotwood script")
	}
}

func TestLoadScript(t *testing.T) {
	for _, name := range []string{"knotwood.tengo", "scripts/knotwood.tengo", "prefabs/scripts/knotwood.tengo"} {
		data, err := LoadScript(name)
		if err != nil || len(data) == 0 {
			t.Fatalf("load %s: %v", name, err)
		}
	}
}

func TestDiskOverride(t *testing.T) {
	old := Dir
	Dir = t.TempDir()
	defer func() { Dir = old }()

	if err := os.MkdirAll(filepath.Join(Dir, "archetypes"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	spec := []byte("type: oak\ncategory: defender\nfsm:\n  initial: idle\n")
	if err := os.WriteFile(filepath.Join(Dir, "archetypes", "oak.yaml"), spec, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	files, err := ArchetypeFiles()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	found := false
	for _, f := range files {
		if f == "archetypes/oak.yaml" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected disk archetype in %v", files)
	}
	oak, err := LoadArchetypeSpec("archetypes/oak.yaml")
	if err != nil {
		t.Fatalf("load oak: %v", err)
	}
	if oak.Name != "oak" {
		t.Fatalf("expected name to default to type, got %q", oak.Name)
	}
	if _, ok := ModTime("archetypes/oak.yaml"); !ok {
		t.Fatalf("expected a mod time for the disk file")
	}
}

func TestLoadArchetypeSpecMissingType(t *testing.T) {
	old := Dir
	Dir = t.TempDir()
	defer func() { Dir = old }()

	if err := os.WriteFile(filepath.Join(Dir, "broken.yaml"), []byte("category: enemy\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadArchetypeSpec("broken.yaml"); err == nil {
		t.Fatalf("expected missing type error")
	}
}

func TestDecodeArg(t *testing.T) {
	type args struct {
		Style string  `yaml:"style"`
		Speed float64 `yaml:"speed"`
	}
	got, err := DecodeArg[args](map[string]any{"style": "parabolic", "speed": 2})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Style != "parabolic" || got.Speed != 2 {
		t.Fatalf("unexpected decode %+v", got)
	}
	zero, err := DecodeArg[args](nil)
	if err != nil || zero != (args{}) {
		t.Fatalf("expected zero value for nil, got %+v %v", zero, err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		kind ChangeKind
		ok   bool
	}{
		{path: "prefabs/archetypes/kudzu.yaml", kind: ChangeSpec, ok: true},
		{path: "prefabs/config.YML", kind: ChangeSpec, ok: true},
		{path: "prefabs/scripts/knotwood.tengo", kind: ChangeScript, ok: true},
		{path: "prefabs/archetypes/.kudzu.yaml.swp", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			kind, ok := classify(tt.path)
			if ok != tt.ok || (ok && kind != tt.kind) {
				t.Fatalf("classify(%q) = %v, %v", tt.path, kind, ok)
			}
		})
	}
}

func TestWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "kudzu.yaml"), []byte("type: kudzu\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case ch := <-w.Events:
		if ch.Kind != ChangeSpec || filepath.Base(ch.Path) != "kudzu.yaml" {
			t.Fatalf("unexpected change %+v", ch)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for change")
	}
}
