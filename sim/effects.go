package sim

import (
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/milk9111/herbicide/controller"
	"github.com/milk9111/herbicide/model"
	"github.com/milk9111/herbicide/registry"
)

// bursts turns visual burst requests into effect controllers. Kinds that do
// not name an effect archetype use the generic burst.
type bursts struct {
	reg *registry.Registry
	log *zap.Logger
}

func (b *bursts) SpawnVisualBurst(kind string, pos cp.Vector, rotation float64) {
	t := model.TypeBurst
	if tbl, ok := b.reg.Catalog().Table(model.Type(kind)); ok && tbl.Category == model.CategoryEffect {
		t = tbl.Type
	}
	c, err := b.reg.Create(t, controller.WithPosition(pos))
	if err != nil {
		b.log.Debug("burst skipped", zap.String("kind", kind), zap.Error(err))
		return
	}
	if rotation != 0 {
		c.Model().Face(model.DirectionOf(cp.ForAngle(rotation)))
	}
}
