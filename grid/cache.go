package grid

import "github.com/jakecoffman/cp"

type pathKey struct {
	start Coord
	goal  Coord
}

type cachedStep struct {
	next Coord
	ok   bool
}

// PathCache memoises path queries for one controller. It is dropped wholesale
// whenever the graph's blocking-occupant count differs from the count seen on
// the previous Sync.
type PathCache struct {
	blocking int
	synced   bool
	steps    map[pathKey]cachedStep
	dists    map[pathKey]int
}

func NewPathCache() *PathCache {
	return &PathCache{
		steps: map[pathKey]cachedStep{},
		dists: map[pathKey]int{},
	}
}

// Sync invalidates the cache if the blocking count changed. It reports
// whether entries were dropped.
func (c *PathCache) Sync(g *Graph) bool {
	n := g.BlockingOccupants()
	if c.synced && n == c.blocking {
		return false
	}
	dropped := c.synced
	c.synced = true
	c.blocking = n
	c.Invalidate()
	return dropped
}

// Invalidate drops every cached result.
func (c *PathCache) Invalidate() {
	clear(c.steps)
	clear(c.dists)
}

func (c *PathCache) Len() int { return len(c.steps) + len(c.dists) }

// NextStep is a cached Graph.NextStepToward.
func (c *PathCache) NextStep(g *Graph, start, goal cp.Vector) cp.Vector {
	key := pathKey{start: g.PositionToCoordinate(start), goal: g.PositionToCoordinate(goal)}
	step, ok := c.steps[key]
	if !ok {
		path := g.findPath(key.start, key.goal)
		if len(path) >= 2 {
			step = cachedStep{next: path[1], ok: true}
		}
		c.steps[key] = step
		if _, seen := c.dists[key]; !seen {
			c.dists[key] = pathLen(path)
		}
	}
	if !step.ok {
		return start
	}
	return g.CoordinateToPosition(step.next)
}

// Distance is a cached Graph.PathDistance.
func (c *PathCache) Distance(g *Graph, start, goal cp.Vector) int {
	key := pathKey{start: g.PositionToCoordinate(start), goal: g.PositionToCoordinate(goal)}
	if d, ok := c.dists[key]; ok {
		return d
	}
	d := pathLen(g.findPath(key.start, key.goal))
	c.dists[key] = d
	return d
}

// Reachable is a cached Graph.CanReach.
func (c *PathCache) Reachable(g *Graph, start, goal cp.Vector) bool {
	return c.Distance(g, start, goal) >= 0
}

func pathLen(path []Coord) int {
	if path == nil {
		return -1
	}
	return len(path) - 1
}
