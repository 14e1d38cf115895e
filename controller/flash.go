package controller

import (
	"github.com/milk9111/herbicide/common"
	"github.com/milk9111/herbicide/model"
)

// TriggerFlash restarts the damage flash.
func (m *Mob[S]) TriggerFlash() { m.Model().SetFlashRemaining(model.FlashDuration) }

// updateFlash shows full red on the first flash frame, then eases back to
// the model's tint.
func (m *Mob[S]) updateFlash(dt float64) {
	md := m.Model()
	rem := md.FlashRemaining()
	if rem <= 0 {
		return
	}
	next := common.Clamp(rem-dt, 0, model.FlashDuration)
	md.SetFlashRemaining(next)
	switch {
	case rem >= model.FlashDuration:
		md.SetColor(common.Red)
	case next <= 0:
		md.SetColor(md.Tint)
	default:
		md.SetColor(common.LerpColor(md.Tint, common.Red, common.CosineEase(rem, model.FlashDuration)))
	}
}
