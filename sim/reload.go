package sim

import (
	"go.uber.org/zap"

	"github.com/milk9111/herbicide/archetype"
	"github.com/milk9111/herbicide/prefabs"
)

// Reloader recompiles the archetype tables when prefab files change on disk.
// The watcher runs on its own goroutine; Poll is called from the tick loop so
// tables are only swapped between ticks.
type Reloader struct {
	watcher *prefabs.Watcher
	catalog *archetype.Catalog
	log     *zap.Logger
}

func NewReloader(catalog *archetype.Catalog, log *zap.Logger, dirs ...string) (*Reloader, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(dirs) == 0 {
		dirs = prefabs.DefaultDirs()
	}
	w, err := prefabs.NewWatcher(dirs...)
	if err != nil {
		return nil, err
	}
	return &Reloader{watcher: w, catalog: catalog, log: log}, nil
}

// Poll reloads once if any change arrived since the last call. It never
// blocks and reports whether the tables were replaced.
func (r *Reloader) Poll() bool {
	var changed []string
	events, errs := r.watcher.Events, r.watcher.Errors
	for {
		select {
		case ch, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			changed = append(changed, ch.Path)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			r.log.Warn("prefab watcher error", zap.Error(err))
		default:
			return r.reload(changed)
		}
	}
}

func (r *Reloader) reload(changed []string) bool {
	if len(changed) == 0 {
		return false
	}
	if err := r.catalog.Reload(); err != nil {
		r.log.Error("archetype reload failed", zap.Strings("changed", changed), zap.Error(err))
		return false
	}
	r.log.Info("archetype tables reloaded", zap.Strings("changed", changed), zap.Int("tables", len(r.catalog.Types())))
	return true
}

func (r *Reloader) Close() error { return r.watcher.Close() }
