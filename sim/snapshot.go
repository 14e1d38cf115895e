package sim

import (
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/milk9111/herbicide/archetype"
	"github.com/milk9111/herbicide/ecs"
	"github.com/milk9111/herbicide/model"
	"github.com/milk9111/herbicide/registry"
)

// ModelState is the wire form of one live model.
type ModelState struct {
	Entity    ecs.Entity     `msgpack:"id"`
	Type      model.Type     `msgpack:"type"`
	Category  model.Category `msgpack:"category"`
	Tier      int            `msgpack:"tier"`
	X         float64        `msgpack:"x"`
	Y         float64        `msgpack:"y"`
	Scale     float64        `msgpack:"scale"`
	Health    float64        `msgpack:"health,omitempty"`
	MaxHealth float64        `msgpack:"max_health,omitempty"`
	Direction string         `msgpack:"dir"`
	State     string         `msgpack:"state"`
	Color     [4]uint8       `msgpack:"color"`
	Held      bool           `msgpack:"held,omitempty"`
}

// Snapshot is a per-tick summary of the simulation.
type Snapshot struct {
	Tick     uint64          `msgpack:"tick"`
	State    string          `msgpack:"state"`
	Lives    int             `msgpack:"lives"`
	Balance  int             `msgpack:"balance"`
	Reserved int             `msgpack:"reserved"`
	Counts   registry.Counts `msgpack:"counts"`
	Models   []ModelState    `msgpack:"models"`
	Events   []ecs.Event     `msgpack:"events,omitempty"`
}

func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:     s.world.Tick(),
		State:    s.state.String(),
		Lives:    s.economy.Lives(),
		Balance:  s.economy.Balance(),
		Reserved: s.waves.Reserved(),
		Counts:   s.reg.Counts(),
		Events:   s.events,
	}
	live := s.reg.Live()
	snap.Models = make([]ModelState, 0, len(live))
	for _, c := range live {
		m := c.Model()
		if m.Destroyed() {
			continue
		}
		p := m.Position()
		col := m.Color()
		ms := ModelState{
			Entity:    m.ID,
			Type:      m.Type,
			Category:  m.Category,
			Tier:      m.Tier,
			X:         p.X,
			Y:         p.Y,
			Scale:     m.Scale(),
			Health:    m.Health(),
			MaxHealth: m.MaxHealth(),
			Direction: m.Direction().String(),
			Color:     [4]uint8{col.R, col.G, col.B, col.A},
			Held:      m.PickedUp(),
		}
		if ac, ok := c.(*archetype.Controller); ok {
			ms.State = string(ac.State())
		}
		snap.Models = append(snap.Models, ms)
	}
	return snap
}

func (snap *Snapshot) Encode() ([]byte, error) {
	return msgpack.Marshal(snap)
}

func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("sim: decode snapshot: %w", err)
	}
	return snap, nil
}

// Recorder appends msgpack snapshots to a stream, one every Every ticks.
type Recorder struct {
	enc   *msgpack.Encoder
	every uint64
	n     int
}

func NewRecorder(w io.Writer, every int) *Recorder {
	if every < 1 {
		every = 1
	}
	return &Recorder{enc: msgpack.NewEncoder(w), every: uint64(every)}
}

// Record writes snap when its tick is due.
func (r *Recorder) Record(snap Snapshot) error {
	if snap.Tick%r.every != 0 {
		return nil
	}
	if err := r.enc.Encode(&snap); err != nil {
		return fmt.Errorf("sim: record tick %d: %w", snap.Tick, err)
	}
	r.n++
	return nil
}

// Written is the number of snapshots recorded.
func (r *Recorder) Written() int { return r.n }

// ReadRecording decodes every snapshot in a recorded stream.
func ReadRecording(rd io.Reader) ([]Snapshot, error) {
	dec := msgpack.NewDecoder(rd)
	var out []Snapshot
	for {
		var snap Snapshot
		err := dec.Decode(&snap)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("sim: read recording: %w", err)
		}
		out = append(out, snap)
	}
}
