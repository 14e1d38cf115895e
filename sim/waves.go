package sim

import (
	"slices"

	"github.com/milk9111/herbicide/grid"
	"github.com/milk9111/herbicide/levels"
	"github.com/milk9111/herbicide/model"
)

// Release is one scheduled enemy.
type Release struct {
	Type  model.Type
	At    grid.Coord
	Delay float64
	Tier  int
}

// Waves releases scheduled enemies once their delay has elapsed.
type Waves struct {
	queue   []Release
	elapsed float64
}

// NewWaves orders releases by delay, keeping level order for equal delays.
func NewWaves(releases []Release) *Waves {
	q := slices.Clone(releases)
	slices.SortStableFunc(q, func(a, b Release) int {
		switch {
		case a.Delay < b.Delay:
			return -1
		case a.Delay > b.Delay:
			return 1
		}
		return 0
	})
	return &Waves{queue: q}
}

// Step advances the clock by dt and returns the releases now due.
func (w *Waves) Step(dt float64) []Release {
	w.elapsed += dt
	n := 0
	for n < len(w.queue) && w.queue[n].Delay <= w.elapsed {
		n++
	}
	if n == 0 {
		return nil
	}
	due := slices.Clone(w.queue[:n])
	w.queue = w.queue[n:]
	return due
}

// Reserved is the number of enemies not yet released.
func (w *Waves) Reserved() int { return len(w.queue) }

// Elapsed is the time since the schedule started.
func (w *Waves) Elapsed() float64 { return w.elapsed }

func releaseFrom(e levels.Entity) Release {
	return Release{Type: model.Type(e.Type), At: e.Coord(), Delay: e.Delay(), Tier: e.Tier()}
}
