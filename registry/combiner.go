package registry

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/milk9111/herbicide/common"
	"github.com/milk9111/herbicide/controller"
	"github.com/milk9111/herbicide/ecs"
	"github.com/milk9111/herbicide/grid"
	"github.com/milk9111/herbicide/model"
)

// CombineCount same-type same-tier defenders merge into one of the next tier.
const CombineCount = 3

// combineDuration is how long members shrink toward the anchor before merging.
const combineDuration = 0.35

const (
	stageWaiting = "waiting"
	stageMerging = "merging"
	stagePlaced  = "placed"
	stageAborted = "aborted"

	eventMerge = "merge"
	eventPlace = "place"
	eventAbort = "abort"
)

// busy is satisfied by controllers running a multi-step action.
type busy interface {
	Busy() bool
}

type combineJob struct {
	machine *fsm.FSM
	typ     model.Type
	tier    int
	members []controller.Controller
	anchor  grid.Coord
	elapsed float64
}

// Combiner runs combinations over several ticks. A combination waits for
// every member to finish its current action, shrinks them, then retires them
// and places the next tier at the anchor tile. Placing a new defender may
// start another combination.
type Combiner struct {
	reg  *Registry
	jobs []*combineJob
}

func newCombiner(r *Registry) *Combiner {
	return &Combiner{reg: r}
}

// Active is the number of combinations in flight.
func (c *Combiner) Active() int { return len(c.jobs) }

// Check starts a combination anchored on m when enough partners exist.
func (c *Combiner) Check(m *model.Model) bool {
	if m == nil || m.Category != model.CategoryDefender || m.Combining() {
		return false
	}
	r := c.reg
	if r.graph == nil {
		return false
	}
	tbl, ok := r.catalog.Table(m.Type)
	if !ok || (tbl.Stats.MaxTier > 0 && m.Tier >= tbl.Stats.MaxTier) {
		return false
	}
	partners := r.combinable(m.Type, m.Tier, m)
	if len(partners) < CombineCount-1 {
		return false
	}
	self, ok := r.handles.Get(m.ID)
	if !ok {
		return false
	}
	members := append([]controller.Controller{self}, partners[:CombineCount-1]...)
	for _, mc := range members {
		mc.Model().SetCombining(true)
	}
	job := &combineJob{
		typ:     m.Type,
		tier:    m.Tier,
		members: members,
		anchor:  r.graph.PositionToCoordinate(m.Position()),
	}
	job.machine = fsm.NewFSM(stageWaiting,
		fsm.Events{
			{Name: eventMerge, Src: []string{stageWaiting}, Dst: stageMerging},
			{Name: eventPlace, Src: []string{stageMerging}, Dst: stagePlaced},
			{Name: eventAbort, Src: []string{stageWaiting, stageMerging}, Dst: stageAborted},
		},
		fsm.Callbacks{},
	)
	c.jobs = append(c.jobs, job)
	r.log.Debug("combination started",
		zap.String("type", string(m.Type)), zap.Int("tier", m.Tier), zap.Int("x", job.anchor.X), zap.Int("y", job.anchor.Y))
	return true
}

// Update advances every combination by one tick.
func (c *Combiner) Update(ctx *controller.Context) {
	jobs := c.jobs
	for _, job := range jobs {
		switch job.machine.Current() {
		case stageWaiting:
			c.wait(ctx, job)
		case stageMerging:
			c.merge(ctx, job)
		}
	}
	kept := c.jobs[:0]
	for _, job := range c.jobs {
		switch job.machine.Current() {
		case stagePlaced, stageAborted:
			continue
		}
		kept = append(kept, job)
	}
	clear(c.jobs[len(kept):])
	c.jobs = kept
}

func (c *Combiner) wait(ctx *controller.Context, job *combineJob) {
	for _, mc := range job.members {
		if mc.Removed() || !mc.Valid() {
			c.abort(ctx, job, "member lost")
			return
		}
	}
	for _, mc := range job.members {
		if b, ok := mc.(busy); ok && b.Busy() {
			return
		}
	}
	job.elapsed += ctx.DT
	left := common.Clamp(1-job.elapsed/combineDuration, 0, 1)
	for _, mc := range job.members {
		mc.Model().SetScale(left)
	}
	if job.elapsed >= combineDuration {
		c.fire(job, eventMerge)
	}
}

func (c *Combiner) merge(ctx *controller.Context, job *combineJob) {
	r := c.reg
	for _, mc := range job.members {
		m := mc.Model()
		at := r.graph.PositionToCoordinate(m.Position())
		if r.graph.OccupantAt(at) == m {
			_, _ = r.graph.RemoveOccupant(at)
		}
		m.Destroy()
	}
	placed, err := r.Place(job.typ, job.anchor, controller.WithTier(job.tier+1))
	if err != nil {
		ctx.Logger().Error("combined defender not placed", zap.String("type", string(job.typ)), zap.Error(err))
		c.fire(job, eventAbort)
		return
	}
	m := placed.Model()
	ctx.Emit(ecs.Event{Kind: ecs.EventCombined, Entity: m.ID, Type: string(m.Type), Value: m.Tier})
	ctx.Logger().Info("defenders combined",
		zap.String("type", string(m.Type)), zap.Int("tier", m.Tier), zap.Int("x", job.anchor.X), zap.Int("y", job.anchor.Y))
	c.fire(job, eventPlace)
	c.Check(m)
}

func (c *Combiner) abort(ctx *controller.Context, job *combineJob, reason string) {
	for _, mc := range job.members {
		m := mc.Model()
		if mc.Removed() {
			continue
		}
		m.SetCombining(false)
		m.SetScale(1)
	}
	ctx.Logger().Debug("combination aborted", zap.String("type", string(job.typ)), zap.String("reason", reason))
	c.fire(job, eventAbort)
}

func (c *Combiner) fire(job *combineJob, event string) {
	if err := job.machine.Event(context.Background(), event); err != nil {
		panic(fmt.Sprintf("registry: combine stage %s rejected %s: %v", job.machine.Current(), event, err))
	}
}
