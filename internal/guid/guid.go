// Package guid allocates the engine's 64-bit entity identifiers. The high
// 8 bits encode the entity kind; the remainder is a monotonic counter
// scoped to the running process.
package guid

import "sync/atomic"

// Kind is the high-8-bit type tag of a GUID.
type Kind uint8

const (
	KindPlayer   Kind = 0x10
	KindCreature Kind = 0x02
	KindObject   Kind = 0x03
	KindVehicle  Kind = 0x04
	KindCorpse   Kind = 0x05
)

// ID is a fully-formed entity identifier: tag<<56 | counter.
type ID uint64

// Kind extracts the type tag from an ID.
func (id ID) Kind() Kind {
	return Kind(id >> 56)
}

// Counter extracts the low 56 bits.
func (id ID) Counter() uint64 {
	return uint64(id) & 0x00FFFFFFFFFFFFFF
}

func (id ID) IsZero() bool { return id == 0 }

// Allocator hands out unique IDs for one Kind.
type Allocator struct {
	kind    Kind
	counter uint64 // atomic
}

// NewAllocator returns an Allocator minting IDs tagged with kind.
func NewAllocator(kind Kind) *Allocator {
	return &Allocator{kind: kind}
}

// Next returns the next unique ID for this allocator's kind.
func (a *Allocator) Next() ID {
	n := atomic.AddUint64(&a.counter, 1)
	return ID(uint64(a.kind)<<56 | (n & 0x00FFFFFFFFFFFFFF))
}

// Registry mints IDs across all kinds from a shared set of per-kind
// allocators, so callers needn't juggle one Allocator per kind.
type Registry struct {
	players   *Allocator
	creatures *Allocator
	objects   *Allocator
	vehicles  *Allocator
	corpses   *Allocator
}

func NewRegistry() *Registry {
	return &Registry{
		players:   NewAllocator(KindPlayer),
		creatures: NewAllocator(KindCreature),
		objects:   NewAllocator(KindObject),
		vehicles:  NewAllocator(KindVehicle),
		corpses:   NewAllocator(KindCorpse),
	}
}

func (r *Registry) Next(kind Kind) ID {
	switch kind {
	case KindPlayer:
		return r.players.Next()
	case KindCreature:
		return r.creatures.Next()
	case KindObject:
		return r.objects.Next()
	case KindVehicle:
		return r.vehicles.Next()
	case KindCorpse:
		return r.corpses.Next()
	default:
		return r.objects.Next()
	}
}
