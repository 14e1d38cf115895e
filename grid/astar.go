package grid

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/herbicide/common"
)

// NextStepToward returns the world position of the next cell on a shortest
// path from start to goal. It returns start unchanged when either cell is
// absent, when start and goal share a cell, or when no path exists.
func (g *Graph) NextStepToward(start, goal cp.Vector) cp.Vector {
	path := g.findPath(g.PositionToCoordinate(start), g.PositionToCoordinate(goal))
	if len(path) < 2 {
		return start
	}
	return g.CoordinateToPosition(path[1])
}

// PathDistance returns the number of steps on a shortest path from start to
// goal, or -1 when no path exists.
func (g *Graph) PathDistance(start, goal cp.Vector) int {
	path := g.findPath(g.PositionToCoordinate(start), g.PositionToCoordinate(goal))
	if path == nil {
		return -1
	}
	return len(path) - 1
}

// CanReach reports whether a path exists from start to goal.
func (g *Graph) CanReach(start, goal cp.Vector) bool {
	return g.PathDistance(start, goal) >= 0
}

// findPath runs A* with a Manhattan heuristic and unit edge cost. A neighbour
// is expanded only when it is the goal or walkable. The open list is scanned
// linearly and the first entry with the lowest f wins, so ties resolve in
// insertion order.
func (g *Graph) findPath(start, goal Coord) []Coord {
	startTile, ok := g.tiles[start]
	if !ok {
		return nil
	}
	if _, ok := g.tiles[goal]; !ok {
		return nil
	}
	if start == goal {
		return []Coord{start}
	}

	open := make([]*Tile, 0, 64)
	open = append(open, startTile)
	openSet := map[Coord]bool{start: true}

	cameFrom := make(map[Coord]Coord, 128)
	gScore := make(map[Coord]int, 128)
	fScore := make(map[Coord]int, 128)
	gScore[start] = 0
	fScore[start] = heuristic(start, goal)

	for len(open) > 0 {
		bestIdx := 0
		bestScore := fScore[open[0].coord]
		for i := 1; i < len(open); i++ {
			if f := fScore[open[i].coord]; f < bestScore {
				bestScore = f
				bestIdx = i
			}
		}
		current := open[bestIdx]
		open = append(open[:bestIdx], open[bestIdx+1:]...)
		delete(openSet, current.coord)

		if current.coord == goal {
			return reconstructPath(cameFrom, goal, start)
		}

		for _, n := range current.neighbors {
			if n == nil {
				continue
			}
			if n.coord != goal && !n.Walkable() {
				continue
			}
			tentative := gScore[current.coord] + 1
			prev, seen := gScore[n.coord]
			if seen && tentative >= prev {
				continue
			}
			cameFrom[n.coord] = current.coord
			gScore[n.coord] = tentative
			fScore[n.coord] = tentative + heuristic(n.coord, goal)
			if !openSet[n.coord] {
				open = append(open, n)
				openSet[n.coord] = true
			}
		}
	}

	return nil
}

func reconstructPath(cameFrom map[Coord]Coord, current, start Coord) []Coord {
	path := make([]Coord, 0, 32)
	for {
		path = append(path, current)
		if current == start {
			break
		}
		prev, ok := cameFrom[current]
		if !ok {
			return nil
		}
		current = prev
	}
	// reverse
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func heuristic(a, b Coord) int {
	return common.Abs(a.X-b.X) + common.Abs(a.Y-b.Y)
}
