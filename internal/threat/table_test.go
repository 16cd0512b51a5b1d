package threat

import (
	"testing"

	"github.com/wildforge/zonecore/internal/guid"
)

func TestHighestBreaksTiesByInsertionOrder(t *testing.T) {
	tbl := New()
	a := guid.ID(1)
	b := guid.ID(2)

	tbl.Add(a, 100)
	tbl.Add(b, 100)

	got, ok := tbl.Highest()
	if !ok || got != a {
		t.Fatalf("Highest() = %v, %v; want %v, true (first-inserted wins on ties)", got, ok, a)
	}
}

func TestHighestPrefersGreaterPoints(t *testing.T) {
	tbl := New()
	a := guid.ID(1)
	b := guid.ID(2)

	tbl.Add(a, 100)
	tbl.Add(b, 50)
	tbl.Add(b, 75) // now b=125 > a=100

	got, ok := tbl.Highest()
	if !ok || got != b {
		t.Fatalf("Highest() = %v, %v; want %v, true", got, ok, b)
	}
}

func TestRemoveAndEmpty(t *testing.T) {
	tbl := New()
	a := guid.ID(1)
	tbl.Add(a, 100)
	tbl.Remove(a)

	if !tbl.Empty() {
		t.Fatalf("Empty() = false after removing only entry")
	}
	if _, ok := tbl.Highest(); ok {
		t.Fatalf("Highest() ok=true on empty table")
	}
}
