// Package spatial implements the uniform-cell spatial index used for
// aggro and area-of-effect queries (spec §4.1).
package spatial

import (
	"math"

	"github.com/wildforge/zonecore/internal/geometry"
	"github.com/wildforge/zonecore/internal/guid"
)

type cellCoord struct{ X, Y, Z int64 }

func toCellCoord(v geometry.Vector, cellSize float64) cellCoord {
	return cellCoord{
		X: floorDiv(v.X, cellSize),
		Y: floorDiv(v.Y, cellSize),
		Z: floorDiv(v.Z, cellSize),
	}
}

func floorDiv(v, cellSize float64) int64 {
	return int64(math.Floor(v / cellSize))
}

// Grid is a uniform-cell spatial index: cell -> set of entity ids, plus an
// auxiliary id -> position map used to locate an entity's current cell on
// move or remove.
//
// Invariant: every id in positions appears in exactly one cell's set; no
// empty cell sets are retained.
type Grid struct {
	cellSize  float64
	cells     map[cellCoord]map[guid.ID]struct{}
	positions map[guid.ID]geometry.Vector
}

// NewGrid creates an empty grid with the given cell size (50 outdoors, 25
// indoors, per spec defaults).
func NewGrid(cellSize float64) *Grid {
	return &Grid{
		cellSize:  cellSize,
		cells:     make(map[cellCoord]map[guid.ID]struct{}),
		positions: make(map[guid.ID]geometry.Vector),
	}
}

// Insert adds id at pos. If id is already indexed, it is removed from its
// old cell first.
func (g *Grid) Insert(id guid.ID, pos geometry.Vector) {
	if _, ok := g.positions[id]; ok {
		g.Remove(id)
	}
	cc := toCellCoord(pos, g.cellSize)
	set, ok := g.cells[cc]
	if !ok {
		set = make(map[guid.ID]struct{})
		g.cells[cc] = set
	}
	set[id] = struct{}{}
	g.positions[id] = pos
}

// Remove drops id from the grid. No-op if absent.
func (g *Grid) Remove(id guid.ID) {
	pos, ok := g.positions[id]
	if !ok {
		return
	}
	cc := toCellCoord(pos, g.cellSize)
	if set, ok := g.cells[cc]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(g.cells, cc)
		}
	}
	delete(g.positions, id)
}

// Update moves id to newPos. If the cell is unchanged, only the position
// record is updated; otherwise this is a remove+insert.
func (g *Grid) Update(id guid.ID, newPos geometry.Vector) {
	oldPos, ok := g.positions[id]
	if !ok {
		g.Insert(id, newPos)
		return
	}
	if toCellCoord(oldPos, g.cellSize) == toCellCoord(newPos, g.cellSize) {
		g.positions[id] = newPos
		return
	}
	g.Remove(id)
	g.Insert(id, newPos)
}

// Position returns id's last known position and whether it is indexed.
func (g *Grid) Position(id guid.ID) (geometry.Vector, bool) {
	p, ok := g.positions[id]
	return p, ok
}

// QueryRange returns every id within radius of center: the AABB of cells
// covering the sphere is scanned, then candidates are filtered by squared
// Euclidean distance. Unordered, O(k) in candidate count.
func (g *Grid) QueryRange(center geometry.Vector, radius float64) []guid.ID {
	minC := toCellCoord(geometry.Vector{X: center.X - radius, Y: center.Y - radius, Z: center.Z - radius}, g.cellSize)
	maxC := toCellCoord(geometry.Vector{X: center.X + radius, Y: center.Y + radius, Z: center.Z + radius}, g.cellSize)

	radiusSq := radius * radius
	var out []guid.ID
	for x := minC.X; x <= maxC.X; x++ {
		for y := minC.Y; y <= maxC.Y; y++ {
			for z := minC.Z; z <= maxC.Z; z++ {
				set, ok := g.cells[cellCoord{x, y, z}]
				if !ok {
					continue
				}
				for id := range set {
					pos := g.positions[id]
					d := pos.Sub(center)
					distSq := d.X*d.X + d.Y*d.Y + d.Z*d.Z
					if distSq <= radiusSq {
						out = append(out, id)
					}
				}
			}
		}
	}
	return out
}

// Count returns the number of indexed entities.
func (g *Grid) Count() int { return len(g.positions) }
