package sim

import (
	"go.uber.org/zap"

	"github.com/milk9111/herbicide/ecs"
	"github.com/milk9111/herbicide/model"
)

// Economy tracks lives and balance from drained events. It is the registry's
// purchase gate.
type Economy struct {
	lives    int
	balance  int
	unlocked map[model.Type]bool
	log      *zap.Logger
}

func NewEconomy(lives, balance int, unlocked []model.Type, log *zap.Logger) *Economy {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Economy{lives: lives, balance: balance, unlocked: map[model.Type]bool{}, log: log}
	for _, t := range unlocked {
		e.unlocked[t] = true
	}
	return e
}

func (e *Economy) IsUnlocked(t model.Type) bool { return e.unlocked[t] }
func (e *Economy) Balance() int                 { return e.balance }
func (e *Economy) Lives() int                   { return e.lives }

func (e *Economy) Unlock(t model.Type) { e.unlocked[t] = true }

// Apply folds one tick's events into the totals.
func (e *Economy) Apply(events []ecs.Event) {
	for _, evt := range events {
		switch evt.Kind {
		case ecs.EventPurchase:
			e.balance -= evt.Value
		case ecs.EventCashIn, ecs.EventCollected:
			e.balance += evt.Value
		case ecs.EventLifeLost:
			e.lives -= evt.Value
			if e.lives < 0 {
				e.lives = 0
			}
			e.log.Info("life lost", zap.String("by", evt.Type), zap.Int("lives", e.lives))
		}
	}
}
