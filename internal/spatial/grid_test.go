package spatial

import (
	"math"
	"testing"

	"github.com/wildforge/zonecore/internal/geometry"
	"github.com/wildforge/zonecore/internal/guid"
)

func v(x, y, z float64) geometry.Vector { return geometry.Vector{X: x, Y: y, Z: z} }

func TestInsertUpdateRoundTrip(t *testing.T) {
	g := NewGrid(50)
	id := guid.ID(1)
	p1 := v(10, 0, 10)
	p2 := v(400, 0, -300)

	g.Insert(id, p1)
	g.Update(id, p2)

	got, ok := g.Position(id)
	if !ok || got != p2 {
		t.Fatalf("Position after update = %v, %v; want %v, true", got, ok, p2)
	}

	oldCell := toCellCoord(p1, g.cellSize)
	if set, ok := g.cells[oldCell]; ok {
		if _, present := set[id]; present {
			t.Fatalf("old cell still contains id after Update")
		}
	}
}

func TestQueryRangeMatchesBruteForce(t *testing.T) {
	g := NewGrid(20)
	type placed struct {
		id  guid.ID
		pos geometry.Vector
	}
	var all []placed
	coords := [][3]float64{
		{0, 0, 0}, {5, 0, 5}, {-15, 0, 20}, {100, 0, 100}, {-1, 0, -1}, {30, 0, 0}, {0, 0, -40},
	}
	for i, c := range coords {
		id := guid.ID(i + 1)
		pos := v(c[0], c[1], c[2])
		g.Insert(id, pos)
		all = append(all, placed{id, pos})
	}

	center := v(0, 0, 0)
	radius := 32.0
	got := map[guid.ID]bool{}
	for _, id := range g.QueryRange(center, radius) {
		got[id] = true
	}

	want := map[guid.ID]bool{}
	for _, p := range all {
		if dist3D(center, p.pos) <= radius {
			want[p.id] = true
		}
	}

	if len(got) != len(want) {
		t.Fatalf("QueryRange returned %d ids, want %d (got=%v want=%v)", len(got), len(want), got, want)
	}
	for id := range want {
		if !got[id] {
			t.Errorf("QueryRange missing expected id %v", id)
		}
	}
}

func dist3D(a, b geometry.Vector) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func TestRemoveDropsEmptyCells(t *testing.T) {
	g := NewGrid(50)
	id := guid.ID(42)
	g.Insert(id, v(1, 1, 1))
	g.Remove(id)

	if g.Count() != 0 {
		t.Fatalf("Count after Remove = %d, want 0", g.Count())
	}
	if len(g.cells) != 0 {
		t.Fatalf("grid retained %d empty cell set(s) after Remove", len(g.cells))
	}
}
